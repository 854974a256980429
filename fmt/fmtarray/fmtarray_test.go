// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fmtarray_test

import (
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/nnir/fmt/fmtarray"
)

func iota(n int) []int32 {
	data := make([]int32, n)
	for i := range data {
		data[i] = int32(i)
	}
	return data
}

func TestSprint(t *testing.T) {
	tests := []struct {
		data   any
		axlens []int
		limit  int
		want   string
	}{
		{
			data: []int32{42},
			want: "42",
		},
		{
			data:   iota(6),
			axlens: []int{6},
			want:   "{0, 1, 2, 3, 4, 5}",
		},
		{
			data:   iota(6),
			axlens: []int{2, 3},
			want:   "{{0, 1, 2}, {3, 4, 5}}",
		},
		{
			data:   iota(8),
			axlens: []int{2, 2, 2},
			want:   "{{{0, 1}, {2, 3}}, {{4, 5}, {6, 7}}}",
		},
		{
			data:   []float32{0.5, 1, 2.25},
			axlens: []int{3},
			want:   "{0.5, 1, 2.25}",
		},
		{
			data:   []float64{1.0 / 3},
			axlens: []int{1},
			want:   "{0.3333333333}",
		},
		{
			data:   []bool{true, false},
			axlens: []int{2},
			want:   "{true, false}",
		},
		{
			data:   iota(6),
			axlens: []int{6},
			limit:  4,
			want:   fmtarray.Elided,
		},
		{
			data:   iota(6),
			axlens: []int{4},
			want:   "6 elements do not match axis lengths [4]",
		},
		{
			data: []dtype.Bfloat16T{},
			want: "0 elements do not match axis lengths []",
		},
	}
	for i, test := range tests {
		if got := fmtarray.SprintAny(test.data, test.axlens, test.limit); got != test.want {
			t.Errorf("test %d: got %q but want %q", i, got, test.want)
		}
	}
}
