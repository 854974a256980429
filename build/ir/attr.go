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

package ir

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gx-org/backend/dtype"
)

// AttrKind is the kind of value stored in an attribute.
type AttrKind int

// Kinds of attribute values.
const (
	InvalidAttr AttrKind = iota
	IntAttr
	IntsAttr
	FloatAttr
	FloatsAttr
	StringAttr
	BoolAttr
	DTypeAttr
)

// String returns a string representation of an attribute kind.
func (k AttrKind) String() string {
	switch k {
	case IntAttr:
		return "int"
	case IntsAttr:
		return "ints"
	case FloatAttr:
		return "float"
	case FloatsAttr:
		return "floats"
	case StringAttr:
		return "string"
	case BoolAttr:
		return "bool"
	case DTypeAttr:
		return "dtype"
	}
	return "invalid"
}

type (
	// Attr is the value of an operator attribute, such as a stride or an axis.
	// The zero value is an invalid attribute.
	Attr struct {
		kind   AttrKind
		i      int64
		ints   []int64
		f      float64
		floats []float64
		s      string
		b      bool
		dt     dtype.DataType
	}

	// Attrs maps attribute names to values.
	Attrs map[string]Attr

	// AttrSpec declares an attribute accepted by an opcode.
	AttrSpec struct {
		Name     string
		Kind     AttrKind
		Required bool
		// Default is used when the attribute is not required and absent.
		// An invalid default means that the attribute may be absent.
		Default Attr
		// OneOf lists the accepted values of a string attribute.
		// Any value is accepted if empty.
		OneOf []string
	}
)

// Int returns an integer attribute.
func Int(v int64) Attr { return Attr{kind: IntAttr, i: v} }

// Ints returns a list of integers attribute.
func Ints(v ...int64) Attr { return Attr{kind: IntsAttr, ints: slices.Clone(v)} }

// Float returns a float attribute.
func Float(v float64) Attr { return Attr{kind: FloatAttr, f: v} }

// Floats returns a list of floats attribute.
func Floats(v ...float64) Attr { return Attr{kind: FloatsAttr, floats: slices.Clone(v)} }

// Str returns a string attribute.
func Str(v string) Attr { return Attr{kind: StringAttr, s: v} }

// Bool returns a boolean attribute.
func Bool(v bool) Attr { return Attr{kind: BoolAttr, b: v} }

// DType returns an element type attribute.
func DType(v dtype.DataType) Attr { return Attr{kind: DTypeAttr, dt: v} }

// Kind of the attribute value.
func (a Attr) Kind() AttrKind { return a.kind }

// Valid returns true if the attribute holds a value.
func (a Attr) Valid() bool { return a.kind != InvalidAttr }

// AsInt returns the value of an integer attribute.
func (a Attr) AsInt() (int64, bool) { return a.i, a.kind == IntAttr }

// AsInts returns a copy of the value of a list of integers attribute.
func (a Attr) AsInts() ([]int64, bool) { return slices.Clone(a.ints), a.kind == IntsAttr }

// AsFloat returns the value of a float attribute.
func (a Attr) AsFloat() (float64, bool) { return a.f, a.kind == FloatAttr }

// AsFloats returns a copy of the value of a list of floats attribute.
func (a Attr) AsFloats() ([]float64, bool) { return slices.Clone(a.floats), a.kind == FloatsAttr }

// AsString returns the value of a string attribute.
func (a Attr) AsString() (string, bool) { return a.s, a.kind == StringAttr }

// AsBool returns the value of a boolean attribute.
func (a Attr) AsBool() (bool, bool) { return a.b, a.kind == BoolAttr }

// AsDType returns the value of an element type attribute.
func (a Attr) AsDType() (dtype.DataType, bool) { return a.dt, a.kind == DTypeAttr }

// Equal returns true if both attributes have the same kind and value.
func (a Attr) Equal(b Attr) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case IntAttr:
		return a.i == b.i
	case IntsAttr:
		return slices.Equal(a.ints, b.ints)
	case FloatAttr:
		return a.f == b.f
	case FloatsAttr:
		return slices.Equal(a.floats, b.floats)
	case StringAttr:
		return a.s == b.s
	case BoolAttr:
		return a.b == b.b
	case DTypeAttr:
		return a.dt == b.dt
	}
	return true
}

func joinInts(vals []int64) string {
	ss := make([]string, len(vals))
	for i, v := range vals {
		ss[i] = strconv.FormatInt(v, 10)
	}
	return "[" + strings.Join(ss, ",") + "]"
}

func joinFloats(vals []float64) string {
	ss := make([]string, len(vals))
	for i, v := range vals {
		ss[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(ss, ",") + "]"
}

// String representation of the attribute value.
func (a Attr) String() string {
	switch a.kind {
	case IntAttr:
		return strconv.FormatInt(a.i, 10)
	case IntsAttr:
		return joinInts(a.ints)
	case FloatAttr:
		return strconv.FormatFloat(a.f, 'g', -1, 64)
	case FloatsAttr:
		return joinFloats(a.floats)
	case StringAttr:
		return strconv.Quote(a.s)
	case BoolAttr:
		return strconv.FormatBool(a.b)
	case DTypeAttr:
		return DTypeName(a.dt)
	}
	return "<invalid>"
}

// GoString returns a Go syntax representation of the attribute.
func (a Attr) GoString() string {
	return fmt.Sprintf("ir.Attr{%s:%s}", a.kind, a.String())
}

func (s AttrSpec) equal(o AttrSpec) bool {
	return s.Name == o.Name &&
		s.Kind == o.Kind &&
		s.Required == o.Required &&
		s.Default.Equal(o.Default) &&
		slices.Equal(s.OneOf, o.OneOf)
}

func (s AttrSpec) accepts(a Attr) bool {
	if len(s.OneOf) == 0 {
		return true
	}
	v, ok := a.AsString()
	return ok && slices.Contains(s.OneOf, v)
}
