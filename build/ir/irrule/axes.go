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

package irrule

import (
	"slices"
	"strconv"

	"github.com/gx-org/nnir/build/ir"
)

func itoa(i int) string { return strconv.Itoa(i) }

// BroadcastDims returns the dimensions of the result of an elementwise
// operation on two tensors. Trailing axes are aligned.
// Returns false if two known axis lengths are different and neither is 1.
func BroadcastDims(a, b []ir.Dim) ([]ir.Dim, bool) {
	if len(a) < len(b) {
		a, b = b, a
	}
	r := slices.Clone(a)
	offset := len(a) - len(b)
	for i, db := range b {
		da := a[offset+i]
		d, ok := broadcastDim(da, db)
		if !ok {
			return nil, false
		}
		r[offset+i] = d
	}
	return r, true
}

func broadcastDim(a, b ir.Dim) (ir.Dim, bool) {
	switch {
	case a == b:
		return a, true
	case a == 1:
		return b, true
	case b == 1:
		return a, true
	case !a.Known():
		return b, true
	case !b.Known():
		return a, true
	}
	return 0, false
}

// NormalizeAxis returns a positive axis index given an index that can be
// negative to count from the last axis.
func NormalizeAxis(axis, rank int) (int, bool) {
	if axis < 0 {
		axis += rank
	}
	return axis, axis >= 0 && axis < rank
}

// NormalizeAxes returns sorted unique positive axes.
// The operand index is used to report errors.
func NormalizeAxes(index int, axes []int64, rank int) ([]int, error) {
	seen := make(map[int]bool)
	r := make([]int, 0, len(axes))
	for _, axis := range axes {
		n, ok := NormalizeAxis(int(axis), rank)
		if !ok {
			return nil, ir.Mismatchf(index, "axis %d out of range for rank %d", axis, rank)
		}
		if seen[n] {
			return nil, ir.Mismatchf(index, "axis %d specified twice", axis)
		}
		seen[n] = true
		r = append(r, n)
	}
	slices.Sort(r)
	return r, nil
}

// ReduceDims returns the dimensions of a tensor after reducing some axes.
// The axes must be normalized.
func ReduceDims(dims []ir.Dim, axes []int, keepDims bool) []ir.Dim {
	var r []ir.Dim
	for i, dim := range dims {
		if !slices.Contains(axes, i) {
			r = append(r, dim)
			continue
		}
		if keepDims {
			r = append(r, 1)
		}
	}
	return r
}

// DimsFromInts converts a list of integers into dimensions.
// Negative integers are unknown dimensions.
func DimsFromInts(vals []int64) []ir.Dim {
	dims := make([]ir.Dim, len(vals))
	for i, v := range vals {
		if v < 0 {
			dims[i] = ir.UnknownDim
			continue
		}
		dims[i] = ir.Dim(v)
	}
	return dims
}
