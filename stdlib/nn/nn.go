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

// Package nn declares neural network operators.
package nn

import (
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/ir/irrule"
	"github.com/gx-org/nnir/stdlib/builtin"
)

// Package description of the nn package.
var Package = builtin.Package{
	FullPath: "nn",
	Defs: []ir.OpDef{
		{Name: "sigmoid", Arity: ir.Exactly(1), Infer: floatUnary},
		{Name: "relu", Arity: ir.Exactly(1), Infer: irrule.Unary(irrule.IsNumeric())},
		{
			Name:  "softmax",
			Arity: ir.Exactly(1),
			Infer: softmaxType,
			Attrs: []ir.AttrSpec{
				{Name: "axis", Kind: ir.IntAttr, Default: ir.Int(-1)},
			},
		},
		conv2dDef,
		oneHotDef,
	},
}

var floatUnary = irrule.Unary(irrule.IsFloat())

func softmaxType(op *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	if err := irrule.And(irrule.IsFloat(), irrule.HasRankAtLeast(1)).Check(0, operands[0]); err != nil {
		return nil, err
	}
	tensor := operands[0].(*ir.TensorType)
	rank, ok := tensor.Rank()
	if !ok {
		return tensor, nil
	}
	if _, ok := irrule.NormalizeAxis(int(op.Int("axis")), rank); !ok {
		return nil, ir.Mismatchf(0, "softmax axis %d out of range for %s", op.Int("axis"), tensor)
	}
	return tensor, nil
}

// Opcodes of the nn package.
type Opcodes struct {
	Sigmoid, Relu, Softmax ir.Opcode
	Conv2D                 ir.Opcode
	OneHot                 ir.Opcode
}

// Register the opcodes of the package in a registry.
func Register(reg *ir.Registry) (*Opcodes, error) {
	ops, err := builtin.Build(reg, Package)
	if err != nil {
		return nil, err
	}
	return &Opcodes{
		Sigmoid: ops.Get("sigmoid"),
		Relu:    ops.Get("relu"),
		Softmax: ops.Get("softmax"),
		Conv2D:  ops.Get("conv2d"),
		OneHot:  ops.Get("onehot"),
	}, nil
}
