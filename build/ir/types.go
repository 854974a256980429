// Copyright 2024 Google LLC
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

package ir

import (
	"slices"
	"strconv"
	"strings"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
)

type (
	// Type of the value computed by an expression.
	// A nil Type means that the type is not known yet.
	Type interface {
		irType()

		// Equal returns true if the other type is the same type.
		Equal(Type) bool

		// String representation of the type.
		String() string
	}

	// Dim is the length of a tensor axis.
	// A negative length means that the length is not known.
	Dim int64

	// TensorType is the type of a tensor value.
	TensorType struct {
		// DType is the type of the elements.
		DType dtype.DataType
		// Dims are the axis lengths of the tensor.
		// Nil for a scalar or if the rank is unknown.
		Dims []Dim
		// Unranked is true if the number of axes is not known.
		Unranked bool
	}

	// TupleType is the type of a tuple of values.
	TupleType struct {
		Fields []Type
	}
)

// UnknownDim is the length of an axis not known before runtime.
const UnknownDim Dim = -1

var (
	_ Type = (*TensorType)(nil)
	_ Type = (*TupleType)(nil)
)

// Known returns true if the length is known.
func (d Dim) Known() bool { return d >= 0 }

// String representation of the axis length.
func (d Dim) String() string {
	if !d.Known() {
		return "?"
	}
	return strconv.FormatInt(int64(d), 10)
}

// Tensor returns a tensor type with static axis lengths.
// No axis returns a scalar type.
func Tensor(dt dtype.DataType, axlens ...int) *TensorType {
	var dims []Dim
	if len(axlens) > 0 {
		dims = make([]Dim, len(axlens))
		for i, al := range axlens {
			dims[i] = Dim(al)
		}
	}
	return &TensorType{DType: dt, Dims: dims}
}

// TensorDims returns a tensor type given axis lengths that may be unknown.
func TensorDims(dt dtype.DataType, dims ...Dim) *TensorType {
	return &TensorType{DType: dt, Dims: slices.Clone(dims)}
}

// Scalar returns the type of a scalar.
func Scalar(dt dtype.DataType) *TensorType {
	return &TensorType{DType: dt}
}

// UnrankedTensor returns a tensor type with an unknown number of axes.
func UnrankedTensor(dt dtype.DataType) *TensorType {
	return &TensorType{DType: dt, Unranked: true}
}

// TupleOf returns a tuple type.
func TupleOf(fields ...Type) *TupleType {
	return &TupleType{Fields: fields}
}

func (*TensorType) irType() {}

// Rank returns the number of axes and true if it is known.
func (t *TensorType) Rank() (int, bool) {
	if t.Unranked {
		return 0, false
	}
	return len(t.Dims), true
}

// IsScalar returns true if the tensor has no axis.
func (t *TensorType) IsScalar() bool {
	return !t.Unranked && len(t.Dims) == 0
}

// IsStatic returns true if the rank and all axis lengths are known.
func (t *TensorType) IsStatic() bool {
	if t.Unranked {
		return false
	}
	for _, d := range t.Dims {
		if !d.Known() {
			return false
		}
	}
	return true
}

// Size returns the number of elements in the tensor
// and true if the size is known.
func (t *TensorType) Size() (int64, bool) {
	if !t.IsStatic() {
		return 0, false
	}
	size := int64(1)
	for _, d := range t.Dims {
		size *= int64(d)
	}
	return size, true
}

// BackendShape returns the backend shape of a tensor with static axis lengths.
// Returns false if the shape is not fully known.
func (t *TensorType) BackendShape() (*shape.Shape, bool) {
	if !t.IsStatic() {
		return nil, false
	}
	axlens := make([]int, len(t.Dims))
	for i, d := range t.Dims {
		axlens[i] = int(d)
	}
	return &shape.Shape{DType: t.DType, AxisLengths: axlens}, true
}

// WithDims returns a tensor type with the same element type but different axes.
func (t *TensorType) WithDims(dims []Dim) *TensorType {
	return TensorDims(t.DType, dims...)
}

// WithDType returns a tensor type with the same axes but a different element type.
func (t *TensorType) WithDType(dt dtype.DataType) *TensorType {
	return &TensorType{DType: dt, Dims: slices.Clone(t.Dims), Unranked: t.Unranked}
}

// Equal returns true if other is a tensor type with the same element type
// and the same axes. Unknown axis lengths are equal to each other.
func (t *TensorType) Equal(other Type) bool {
	otherT, ok := other.(*TensorType)
	if !ok || otherT == nil {
		return false
	}
	return t.DType == otherT.DType &&
		t.Unranked == otherT.Unranked &&
		slices.EqualFunc(t.Dims, otherT.Dims, func(a, b Dim) bool {
			return a == b || (!a.Known() && !b.Known())
		})
}

// String representation of the type, for example float32[4,?].
func (t *TensorType) String() string {
	name := DTypeName(t.DType)
	if t.Unranked {
		return name + "[*]"
	}
	if len(t.Dims) == 0 {
		return name
	}
	dims := make([]string, len(t.Dims))
	for i, d := range t.Dims {
		dims[i] = d.String()
	}
	return name + "[" + strings.Join(dims, ",") + "]"
}

func (*TupleType) irType() {}

// Equal returns true if other is a tuple with equal fields.
func (t *TupleType) Equal(other Type) bool {
	otherT, ok := other.(*TupleType)
	if !ok || otherT == nil {
		return false
	}
	return slices.EqualFunc(t.Fields, otherT.Fields, TypesEqual)
}

// String representation of the type.
func (t *TupleType) String() string {
	fields := make([]string, len(t.Fields))
	for i, field := range t.Fields {
		fields[i] = TypeString(field)
	}
	return "(" + strings.Join(fields, ", ") + ")"
}

// TypesEqual returns true if two types are equal.
// Two unknown types are equal.
func TypesEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// TypeString returns the string representation of a type, including unknown types.
func TypeString(t Type) string {
	if t == nil {
		return "unknown"
	}
	return t.String()
}

// ParseType parses the string representation of a type.
// It is the inverse of TypeString.
func ParseType(s string) (Type, error) {
	p := typeParser{s: s}
	typ, err := p.parse()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.s) {
		return nil, p.errorf("unexpected trailing characters")
	}
	return typ, nil
}
