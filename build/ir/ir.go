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

// Package ir defines the intermediate representation of a neural network:
// a directed acyclic graph of operator applications over tensor values.
//
// Operator kinds are declared in a Registry. An OpNode is the static
// configuration of one operator instance. Expressions are owned by a Module,
// an arena addressing every expression by a stable identity. A Graph is a set
// of output expressions of a module, together with everything they depend on.
//
// A module is not safe for concurrent mutation: only one goroutine may build
// expressions or rewrite a graph of a module at a time. Reading a module
// that is not being mutated is safe from multiple goroutines.
package ir

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/gx-org/nnir/base/ordered"
	"github.com/gx-org/nnir/build/irerr"
	"github.com/gx-org/nnir/fmt/fmtarray"
)

type (
	// ID is the identity of an expression.
	// Identities strictly increase in creation order and are never reused.
	ID uint64

	// Use is a reference to an expression from one of its consumers.
	Use struct {
		// User is the expression consuming the value.
		User ID
		// Index of the operand in the user.
		Index int
	}

	// Expr is a value in the graph.
	// The set of expressions is closed: Call, Constant, Placeholder, Tuple and GetItem.
	Expr interface {
		// ID returns the identity of the expression.
		ID() ID
		// Kind returns the variant of the expression.
		Kind() ExprKind
		// Type returns the type of the value or nil if the type is not known yet.
		Type() Type
		// Operands returns the expressions consumed by the expression.
		Operands() []Expr
		// OperandIDs returns the identities of the operands.
		OperandIDs() []ID
		// Uses returns the references to the expression.
		Uses() []Use
		// Live returns false once the expression has been removed from its module.
		Live() bool
		// Module owning the expression.
		Module() *Module
		// String representation of the expression.
		String() string

		base() *exprBase
	}

	// ExprKind is the variant of an expression.
	ExprKind int

	exprBase struct {
		mod  *Module
		id   ID
		typ  Type
		ops  []ID
		uses ordered.Set[Use]
		dead bool
	}
)

// Kinds of expressions.
const (
	InvalidExpr ExprKind = iota
	CallExpr
	ConstantExpr
	PlaceholderExpr
	TupleExpr
	GetItemExpr
)

// String representation of the kind.
func (k ExprKind) String() string {
	switch k {
	case CallExpr:
		return "call"
	case ConstantExpr:
		return "constant"
	case PlaceholderExpr:
		return "placeholder"
	case TupleExpr:
		return "tuple"
	case GetItemExpr:
		return "getitem"
	}
	return "invalid"
}

var lastID atomic.Uint64

func newID() ID {
	return ID(lastID.Add(1))
}

// String representation of the identity.
func (id ID) String() string {
	return "%" + strconv.FormatUint(uint64(id), 10)
}

func (b *exprBase) base() *exprBase { return b }

// ID returns the identity of the expression.
func (b *exprBase) ID() ID { return b.id }

// Type returns the type of the value or nil if the type is not known yet.
func (b *exprBase) Type() Type { return b.typ }

// Module owning the expression.
func (b *exprBase) Module() *Module { return b.mod }

// Live returns false once the expression has been removed from its module.
func (b *exprBase) Live() bool { return !b.dead }

// OperandIDs returns the identities of the operands.
func (b *exprBase) OperandIDs() []ID {
	return append([]ID(nil), b.ops...)
}

// Operands returns the expressions consumed by the expression.
// Returns nil once the expression has been removed.
func (b *exprBase) Operands() []Expr {
	if b.dead {
		return nil
	}
	ops := make([]Expr, len(b.ops))
	for i, id := range b.ops {
		ops[i] = b.mod.exprs[id]
	}
	return ops
}

// Uses returns the references to the expression in insertion order.
func (b *exprBase) Uses() []Use {
	return b.uses.Slice()
}

func (b *exprBase) operandString() string {
	ss := make([]string, len(b.ops))
	for i, id := range b.ops {
		ss[i] = id.String()
	}
	return strings.Join(ss, ", ")
}

// Call applies an operator to operands.
type Call struct {
	exprBase
	op *OpNode
}

var _ Expr = (*Call)(nil)

// Kind returns CallExpr.
func (*Call) Kind() ExprKind { return CallExpr }

// Op returns the operator applied by the call.
func (c *Call) Op() *OpNode { return c.op }

// String representation of the call.
func (c *Call) String() string {
	return fmt.Sprintf("%s = %s(%s)", c.id, c.op, c.operandString())
}

// Placeholder is a value provided when the graph is executed,
// for example the input of a model.
type Placeholder struct {
	exprBase
	name string
}

var _ Expr = (*Placeholder)(nil)

// Kind returns PlaceholderExpr.
func (*Placeholder) Kind() ExprKind { return PlaceholderExpr }

// Name of the placeholder, unique in its module.
func (p *Placeholder) Name() string { return p.name }

// String representation of the placeholder.
func (p *Placeholder) String() string {
	return fmt.Sprintf("%s = placeholder %s", p.id, p.name)
}

// Constant is a tensor value known when the graph is built.
type Constant struct {
	exprBase
	value any
}

var _ Expr = (*Constant)(nil)

// Kind returns ConstantExpr.
func (*Constant) Kind() ExprKind { return ConstantExpr }

// Value returns a copy of the elements of the constant as a Go slice,
// for example []float32.
func (c *Constant) Value() any { return cloneValue(c.value) }

// TensorType returns the type of the constant.
func (c *Constant) TensorType() *TensorType { return c.typ.(*TensorType) }

// constantElementsLimit is the maximum number of elements printed for a constant.
const constantElementsLimit = 16

// String representation of the constant.
// The elements of large constants are elided.
func (c *Constant) String() string {
	dims := c.TensorType().Dims
	axlens := make([]int, len(dims))
	for i, dim := range dims {
		axlens[i] = int(dim)
	}
	return fmt.Sprintf("%s = constant %s", c.id, fmtarray.SprintAny(c.value, axlens, constantElementsLimit))
}

// Tuple groups values.
type Tuple struct {
	exprBase
}

var _ Expr = (*Tuple)(nil)

// Kind returns TupleExpr.
func (*Tuple) Kind() ExprKind { return TupleExpr }

// String representation of the tuple.
func (t *Tuple) String() string {
	return fmt.Sprintf("%s = tuple(%s)", t.id, t.operandString())
}

// GetItem extracts a field from a tuple.
type GetItem struct {
	exprBase
	index int
}

var _ Expr = (*GetItem)(nil)

// Kind returns GetItemExpr.
func (*GetItem) Kind() ExprKind { return GetItemExpr }

// Index of the field in the tuple.
func (g *GetItem) Index() int { return g.index }

// Tuple returns the tuple from which the field is extracted.
func (g *GetItem) Tuple() Expr { return g.mod.exprs[g.ops[0]] }

// String representation of the expression.
func (g *GetItem) String() string {
	return fmt.Sprintf("%s = %s[%d]", g.id, g.ops[0], g.index)
}

// InferType computes the type of an expression given the types of its operands.
// The types of all operands must be known.
// Placeholders and constants return their own type.
func InferType(e Expr, operands []Type) (Type, error) {
	switch eT := e.(type) {
	case *Call:
		typ, err := eT.op.def.Infer(eT.op, operands)
		if err != nil {
			return nil, typeError(err, eT.op.Name(), eT.id)
		}
		if typ == nil {
			return nil, irerr.Internalf("type rule of %s returned no type and no error", eT.op.Name())
		}
		return typ, nil
	case *Placeholder, *Constant:
		return e.Type(), nil
	case *Tuple:
		return TupleOf(operands...), nil
	case *GetItem:
		return inferGetItem(eT.index, operands[0], eT.id)
	default:
		return nil, irerr.Internalf("expression type %T not supported", e)
	}
}

func inferGetItem(index int, tpl Type, id ID) (Type, error) {
	tplT, ok := tpl.(*TupleType)
	if !ok {
		return nil, typeError(OperandMismatch(0, "tuple", tpl), "getitem", id)
	}
	if index < 0 || index >= len(tplT.Fields) {
		return nil, typeError(Mismatchf(0, "index %d out of range for %s", index, tplT), "getitem", id)
	}
	return tplT.Fields[index], nil
}

func operandTypes(ops []Expr) []Type {
	types := make([]Type, len(ops))
	for i, op := range ops {
		types[i] = op.Type()
		if types[i] == nil {
			return nil
		}
	}
	return types
}
