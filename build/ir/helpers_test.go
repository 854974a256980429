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

package ir_test

import (
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/nnir/build/ir"
)

type testOps struct {
	reg                          *ir.Registry
	add, mul, sigmoid, sum, pair ir.Opcode
}

func sameType(_ *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	first := operands[0]
	for i, typ := range operands[1:] {
		if !typ.Equal(first) {
			return nil, ir.OperandMismatch(i+1, first.String(), typ)
		}
	}
	return first, nil
}

func floatUnary(_ *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	tensor, ok := operands[0].(*ir.TensorType)
	if !ok || !ir.IsFloat(tensor.DType) {
		return nil, ir.OperandMismatch(0, "floating-point tensor", operands[0])
	}
	return tensor, nil
}

func reduceAxis(op *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	tensor, ok := operands[0].(*ir.TensorType)
	if !ok {
		return nil, ir.OperandMismatch(0, "tensor", operands[0])
	}
	axis := int(op.Int("axis"))
	rank, ok := tensor.Rank()
	if !ok {
		return ir.UnrankedTensor(tensor.DType), nil
	}
	if axis < 0 || axis >= rank {
		return nil, ir.Mismatchf(0, "axis %d out of range for %s", axis, tensor)
	}
	dims := append(append([]ir.Dim{}, tensor.Dims[:axis]...), tensor.Dims[axis+1:]...)
	return tensor.WithDims(dims), nil
}

func tupleOf(_ *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	return ir.TupleOf(operands...), nil
}

func newTestOps(t *testing.T) *testOps {
	t.Helper()
	reg := ir.NewRegistry()
	return &testOps{
		reg:     reg,
		add:     reg.MustRegister(ir.OpDef{Name: "add", Arity: ir.Exactly(2), Infer: sameType}),
		mul:     reg.MustRegister(ir.OpDef{Name: "mul", Arity: ir.Exactly(2), Infer: sameType}),
		sigmoid: reg.MustRegister(ir.OpDef{Name: "sigmoid", Arity: ir.Exactly(1), Infer: floatUnary}),
		sum: reg.MustRegister(ir.OpDef{
			Name:  "sum",
			Arity: ir.Exactly(1),
			Infer: reduceAxis,
			Attrs: []ir.AttrSpec{
				{Name: "axis", Kind: ir.IntAttr, Required: true},
				{Name: "keepdims", Kind: ir.BoolAttr, Default: ir.Bool(false)},
			},
		}),
		pair: reg.MustRegister(ir.OpDef{Name: "pair", Arity: ir.AtLeast(1), Infer: tupleOf}),
	}
}

func (ops *testOps) node(t *testing.T, op ir.Opcode, attrs ir.Attrs) *ir.OpNode {
	t.Helper()
	node, err := ops.reg.MakeOpNode(op, attrs)
	if err != nil {
		t.Fatalf("cannot build operator node: %+v", err)
	}
	return node
}

func (ops *testOps) call(t *testing.T, m *ir.Module, op ir.Opcode, operands ...ir.Expr) *ir.Call {
	t.Helper()
	c, err := m.Call(ops.node(t, op, nil), operands...)
	if err != nil {
		t.Fatalf("cannot build call: %+v", err)
	}
	return c
}

func f32(axlens ...int) *ir.TensorType {
	return ir.Tensor(dtype.Float32, axlens...)
}

func ids(exprs []ir.Expr) []ir.ID {
	r := make([]ir.ID, len(exprs))
	for i, e := range exprs {
		r[i] = e.ID()
	}
	return r
}
