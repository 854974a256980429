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

// Package fmtarray formats the elements of tensors on a single line.
package fmtarray

import (
	"fmt"
	"strings"

	"github.com/gx-org/backend/dtype"
	"github.com/pkg/errors"
)

// Elided replaces the elements of a tensor with too many elements.
const Elided = "{...}"

type printer[T dtype.GoDataType] struct {
	w       strings.Builder
	data    []T
	axlens  []int
	offsets []int
}

func axesOffsets(axlens []int) []int {
	offsets := make([]int, len(axlens))
	for i := range offsets {
		offsets[i] = 1
		for _, d := range axlens[i+1:] {
			offsets[i] *= d
		}
	}
	return offsets
}

func newPrinter[T dtype.GoDataType](data []T, axlens []int) (*printer[T], error) {
	total := 1
	for _, size := range axlens {
		total *= size
	}
	if total != len(data) {
		return nil, errors.Errorf("%d elements do not match axis lengths %v", len(data), axlens)
	}
	return &printer[T]{data: data, axlens: axlens, offsets: axesOffsets(axlens)}, nil
}

func toValue[T dtype.GoDataType](x T) string {
	var fmtstr string
	switch any(x).(type) {
	case float32:
		fmtstr = "%.6f"
	case float64:
		fmtstr = "%.10f"
	default:
		return fmt.Sprint(x)
	}
	result := fmt.Sprintf(fmtstr, x)
	if strings.ContainsRune(result, '.') {
		// Remove trailing zeroes after the decimal point and the point itself
		// if no digit is left after it.
		result = strings.TrimRight(result, "0")
		result = strings.TrimSuffix(result, ".")
	}
	return result
}

// print the elements starting at offset for the axes from axis onward.
func (p *printer[T]) print(axis, offset int) {
	if axis == len(p.axlens) {
		p.w.WriteString(toValue(p.data[offset]))
		return
	}
	p.w.WriteString("{")
	for i := range p.axlens[axis] {
		if i > 0 {
			p.w.WriteString(", ")
		}
		p.print(axis+1, offset+i*p.offsets[axis])
	}
	p.w.WriteString("}")
}

// Sprint returns the elements of a tensor given its axis lengths.
// Scalars are printed as a single value and tensors as nested braces.
// Tensors with more than limit elements are elided if limit is positive.
func Sprint[T dtype.GoDataType](data []T, axlens []int, limit int) string {
	p, err := newPrinter(data, axlens)
	if err != nil {
		return err.Error()
	}
	if limit > 0 && len(data) > limit {
		return Elided
	}
	p.print(0, 0)
	return p.w.String()
}

// SprintAny returns the elements of a tensor stored in a Go slice
// of a supported element type. See Sprint.
func SprintAny(data any, axlens []int, limit int) string {
	switch dataT := data.(type) {
	case []bool:
		return Sprint(dataT, axlens, limit)
	case []int32:
		return Sprint(dataT, axlens, limit)
	case []int64:
		return Sprint(dataT, axlens, limit)
	case []uint32:
		return Sprint(dataT, axlens, limit)
	case []uint64:
		return Sprint(dataT, axlens, limit)
	case []dtype.Bfloat16T:
		return Sprint(dataT, axlens, limit)
	case []float32:
		return Sprint(dataT, axlens, limit)
	case []float64:
		return Sprint(dataT, axlens, limit)
	}
	return fmt.Sprintf("%v", data)
}
