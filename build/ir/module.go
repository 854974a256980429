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
	"strconv"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/nnir/base/uname"
	"github.com/gx-org/nnir/build/irerr"
)

// Module owns expressions. Expressions are addressed by their identity.
type Module struct {
	reg    *Registry
	exprs  map[ID]Expr
	graphs []*Graph
	names  *uname.Unique
}

// NewModule returns a new module building calls with the opcodes of a registry.
// A nil registry is the default registry.
func NewModule(reg *Registry) *Module {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Module{
		reg:   reg,
		exprs: make(map[ID]Expr),
		names: uname.New(),
	}
}

// Registry returns the registry of the opcodes used by the module.
func (m *Module) Registry() *Registry { return m.reg }

// Expr returns a live expression given its identity.
func (m *Module) Expr(id ID) (Expr, bool) {
	e, ok := m.exprs[id]
	return e, ok
}

// Len returns the number of live expressions in the module.
func (m *Module) Len() int { return len(m.exprs) }

// IDs returns the identities of all the live expressions, in creation order.
func (m *Module) IDs() []ID {
	return slices.Sorted(maps.Keys(m.exprs))
}

// Graphs returns the graphs built from the module.
func (m *Module) Graphs() []*Graph {
	return slices.Clone(m.graphs)
}

func (m *Module) checkOperand(e Expr) (ID, error) {
	if e == nil {
		return 0, irerr.Internalf("nil operand")
	}
	if e.Module() != m {
		return 0, irerr.Internalf("expression %s belongs to another module", e.ID())
	}
	if !e.Live() {
		return 0, irerr.Internalf("expression %s has been removed from its module", e.ID())
	}
	return e.ID(), nil
}

func (m *Module) checkOperands(operands []Expr) ([]ID, error) {
	ids := make([]ID, len(operands))
	for i, op := range operands {
		var err error
		if ids[i], err = m.checkOperand(op); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// add an expression to the module and registers its use in its operands.
func (m *Module) add(e Expr, typ Type, ops []ID) {
	b := e.base()
	b.mod = m
	b.id = newID()
	b.typ = typ
	b.ops = ops
	for i, op := range ops {
		m.exprs[op].base().uses.Add(Use{User: b.id, Index: i})
	}
	m.exprs[b.id] = e
}

// Placeholder returns a new placeholder for a value provided at runtime.
// The name is made unique within the module if it is already used.
// A nil type is a type to be determined later.
func (m *Module) Placeholder(name string, typ Type) *Placeholder {
	p := &Placeholder{name: m.names.Name(name)}
	m.add(p, typ, nil)
	return p
}

// Tuple returns a new tuple grouping values.
func (m *Module) Tuple(fields ...Expr) (*Tuple, error) {
	ids, err := m.checkOperands(fields)
	if err != nil {
		return nil, err
	}
	var typ Type
	if types := operandTypes(fields); types != nil {
		typ = TupleOf(types...)
	}
	t := &Tuple{}
	m.add(t, typ, ids)
	return t, nil
}

// GetItem returns a new expression extracting a field of a tuple.
func (m *Module) GetItem(tpl Expr, index int) (*GetItem, error) {
	id, err := m.checkOperand(tpl)
	if err != nil {
		return nil, err
	}
	var typ Type
	if tplType := tpl.Type(); tplType != nil {
		if typ, err = inferGetItem(index, tplType, 0); err != nil {
			return nil, err
		}
	}
	g := &GetItem{index: index}
	m.add(g, typ, []ID{id})
	return g, nil
}

// Call returns a new expression applying an operator to operands.
//
// The number of operands is checked against the arity of the opcode.
// If the types of all the operands are known, they are checked by the type
// rule of the opcode which also computes the type of the call. Otherwise,
// the type of the call is left unknown for type inference.
//
// Nothing is added to the module if an error is returned.
func (m *Module) Call(op *OpNode, operands ...Expr) (*Call, error) {
	if op == nil {
		return nil, irerr.Internalf("nil operator")
	}
	def, err := m.reg.Lookup(op.Opcode())
	if err != nil {
		return nil, err
	}
	if def != op.def {
		return nil, irerr.Errorf(irerr.UnknownOpcode, "operator node built with another registry").WithOpcode(op.Name())
	}
	if !def.Arity.Accepts(len(operands)) {
		return nil, irerr.Errorf(irerr.ArityMismatch, "wrong number of operands").
			WithOpcode(def.Name).
			WithTypes(def.Arity.String(), strconv.Itoa(len(operands)))
	}
	ids, err := m.checkOperands(operands)
	if err != nil {
		return nil, err
	}
	c := &Call{op: op}
	var typ Type
	if types := operandTypes(operands); types != nil {
		if typ, err = InferType(c, types); err != nil {
			return nil, err
		}
	}
	m.add(c, typ, ids)
	return c, nil
}

// MustCall returns a new call and panics if an error occurs.
func (m *Module) MustCall(op *OpNode, operands ...Expr) *Call {
	c, err := m.Call(op, operands...)
	if err != nil {
		panic(err)
	}
	return c
}

// Constant returns a new constant given its type and its elements.
// The value must be a Go slice of the element type of the tensor
// (for example []float32 for float32) with as many elements as the tensor.
// The constant stores a copy of the value.
func (m *Module) Constant(typ *TensorType, value any) (*Constant, error) {
	if typ == nil {
		return nil, irerr.Errorf(irerr.TypeMismatch, "constant has no type")
	}
	size, ok := typ.Size()
	if !ok {
		return nil, irerr.Errorf(irerr.TypeMismatch, "constant type %s is not static", typ)
	}
	dt, n, ok := sliceInfo(value)
	if !ok {
		return nil, irerr.Errorf(irerr.TypeMismatch, "unsupported constant value of type %T", value)
	}
	if dt != typ.DType {
		return nil, irerr.Errorf(irerr.TypeMismatch, "constant value does not match its type").
			WithTypes(DTypeName(typ.DType), DTypeName(dt))
	}
	if int64(n) != size {
		return nil, irerr.Errorf(irerr.TypeMismatch, "constant has %d elements but its type %s has %d", n, typ, size)
	}
	c := &Constant{value: cloneValue(value)}
	m.add(c, typ.WithDims(typ.Dims), nil)
	return c, nil
}

// NewConstant returns a new constant of a tensor given its elements and axis lengths.
// No axis lengths returns a tensor with one axis.
func NewConstant[T dtype.GoDataType](m *Module, vals []T, axlens ...int) (*Constant, error) {
	if len(axlens) == 0 {
		axlens = []int{len(vals)}
	}
	return m.Constant(Tensor(dtype.Generic[T](), axlens...), vals)
}

// NewScalar returns a new constant of a scalar.
func NewScalar[T dtype.GoDataType](m *Module, val T) (*Constant, error) {
	return m.Constant(Scalar(dtype.Generic[T]()), []T{val})
}

func sliceInfo(value any) (dtype.DataType, int, bool) {
	switch vT := value.(type) {
	case []bool:
		return dtype.Bool, len(vT), true
	case []int32:
		return dtype.Int32, len(vT), true
	case []int64:
		return dtype.Int64, len(vT), true
	case []uint32:
		return dtype.Uint32, len(vT), true
	case []uint64:
		return dtype.Uint64, len(vT), true
	case []dtype.Bfloat16T:
		return dtype.Bfloat16, len(vT), true
	case []float32:
		return dtype.Float32, len(vT), true
	case []float64:
		return dtype.Float64, len(vT), true
	}
	return dtype.Invalid, 0, false
}

func cloneValue(value any) any {
	switch vT := value.(type) {
	case []bool:
		return slices.Clone(vT)
	case []int32:
		return slices.Clone(vT)
	case []int64:
		return slices.Clone(vT)
	case []uint32:
		return slices.Clone(vT)
	case []uint64:
		return slices.Clone(vT)
	case []dtype.Bfloat16T:
		return slices.Clone(vT)
	case []float32:
		return slices.Clone(vT)
	case []float64:
		return slices.Clone(vT)
	}
	return value
}

// CommitTypes sets the types of expressions with an unknown type.
// Either all the types are committed or, if an error is returned, none.
// A type already committed cannot be changed.
func (m *Module) CommitTypes(types map[ID]Type) error {
	for id, typ := range types {
		e, ok := m.exprs[id]
		if !ok {
			return irerr.Internalf("cannot commit type of %s: expression not in module", id)
		}
		if typ == nil {
			return irerr.Internalf("cannot commit an unknown type to %s", id)
		}
		if prev := e.Type(); prev != nil && !prev.Equal(typ) {
			return irerr.Internalf("cannot change type of %s from %s to %s", id, prev, typ)
		}
	}
	for id, typ := range types {
		m.exprs[id].base().typ = typ
	}
	return nil
}
