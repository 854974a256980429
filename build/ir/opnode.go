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
	"maps"
	"slices"
	"strings"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/nnir/build/irerr"
)

// OpNode is the static configuration of one operator instance:
// an opcode and its attributes. An OpNode is immutable.
type OpNode struct {
	op    Opcode
	def   *OpDef
	names []string
	attrs Attrs
}

// MakeOpNode returns a new operator node after checking the attributes
// against the schema of the opcode. Absent attributes with a default value
// are set to their default.
func (r *Registry) MakeOpNode(op Opcode, attrs Attrs) (*OpNode, error) {
	def, err := r.Lookup(op)
	if err != nil {
		return nil, err
	}
	node := &OpNode{op: op, def: def, attrs: make(Attrs, len(def.Attrs))}
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		if _, ok := def.Attr(name); !ok {
			return nil, irerr.Errorf(irerr.InvalidAttribute, "unknown attribute %q", name).WithOpcode(def.Name)
		}
	}
	for _, spec := range def.Attrs {
		val, ok := attrs[spec.Name]
		if !ok || !val.Valid() {
			switch {
			case spec.Required:
				return nil, irerr.Errorf(irerr.InvalidAttribute, "missing required attribute %q", spec.Name).WithOpcode(def.Name)
			case spec.Default.Valid():
				val = spec.Default
			default:
				continue
			}
		}
		if val.Kind() != spec.Kind {
			return nil, irerr.Errorf(irerr.InvalidAttribute, "attribute %q has the wrong kind", spec.Name).
				WithOpcode(def.Name).
				WithTypes(spec.Kind.String(), val.Kind().String())
		}
		if !spec.accepts(val) {
			return nil, irerr.Errorf(irerr.InvalidAttribute, "attribute %q cannot be %s", spec.Name, val).
				WithOpcode(def.Name).
				WithTypes("one of "+strings.Join(spec.OneOf, ", "), val.String())
		}
		node.attrs[spec.Name] = val
	}
	node.names = slices.Sorted(maps.Keys(node.attrs))
	return node, nil
}

// MustOpNode returns a new operator node and panics if an error occurs.
func (r *Registry) MustOpNode(op Opcode, attrs Attrs) *OpNode {
	node, err := r.MakeOpNode(op, attrs)
	if err != nil {
		panic(err)
	}
	return node
}

// Opcode of the operator.
func (n *OpNode) Opcode() Opcode { return n.op }

// Def returns the definition of the opcode.
func (n *OpNode) Def() *OpDef { return n.def }

// Name of the opcode.
func (n *OpNode) Name() string { return n.def.Name }

// Attr returns an attribute given its name.
func (n *OpNode) Attr(name string) (Attr, bool) {
	val, ok := n.attrs[name]
	return val, ok
}

// AttrNames returns the names of the attributes set on the node, sorted.
func (n *OpNode) AttrNames() []string {
	return slices.Clone(n.names)
}

// Attrs returns an iterator over the attributes sorted by name.
func (n *OpNode) Attrs() func(func(string, Attr) bool) {
	return func(yield func(string, Attr) bool) {
		for _, name := range n.names {
			if !yield(name, n.attrs[name]) {
				return
			}
		}
	}
}

// Int returns the value of an integer attribute or 0 if absent.
func (n *OpNode) Int(name string) int64 {
	v, _ := n.attrs[name].AsInt()
	return v
}

// Ints returns the value of a list of integers attribute or nil if absent.
func (n *OpNode) Ints(name string) []int64 {
	v, _ := n.attrs[name].AsInts()
	return v
}

// Float returns the value of a float attribute or 0 if absent.
func (n *OpNode) Float(name string) float64 {
	v, _ := n.attrs[name].AsFloat()
	return v
}

// Bool returns the value of a boolean attribute or false if absent.
func (n *OpNode) Bool(name string) bool {
	v, _ := n.attrs[name].AsBool()
	return v
}

// Str returns the value of a string attribute or an empty string if absent.
func (n *OpNode) Str(name string) string {
	v, _ := n.attrs[name].AsString()
	return v
}

// DType returns the value of an element type attribute or dtype.Invalid if absent.
func (n *OpNode) DType(name string) dtype.DataType {
	v, ok := n.attrs[name].AsDType()
	if !ok {
		return dtype.Invalid
	}
	return v
}

// Equal returns true if both nodes have the same opcode and the same attributes.
func (n *OpNode) Equal(other *OpNode) bool {
	if n.op != other.op || len(n.names) != len(other.names) {
		return false
	}
	for name, val := range n.attrs {
		otherVal, ok := other.attrs[name]
		if !ok || !val.Equal(otherVal) {
			return false
		}
	}
	return true
}

// Key returns a canonical string of the node.
// Two nodes are equal if and only if their keys are equal.
func (n *OpNode) Key() string {
	var s strings.Builder
	s.WriteString(n.def.Name)
	if len(n.names) == 0 {
		return s.String()
	}
	s.WriteString("{")
	for i, name := range n.names {
		if i > 0 {
			s.WriteString(",")
		}
		val := n.attrs[name]
		s.WriteString(name)
		s.WriteString("=")
		s.WriteString(val.Kind().String())
		s.WriteString(":")
		s.WriteString(val.String())
	}
	s.WriteString("}")
	return s.String()
}

// String representation of the node.
func (n *OpNode) String() string {
	var s strings.Builder
	s.WriteString(n.def.Name)
	if len(n.names) == 0 {
		return s.String()
	}
	s.WriteString("{")
	for i, name := range n.names {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(name)
		s.WriteString("=")
		s.WriteString(n.attrs[name].String())
	}
	s.WriteString("}")
	return s.String()
}
