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

package num

import (
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/ir/irrule"
)

var (
	numericReduce = irrule.IsNumeric()
	floatReduce   = irrule.IsFloat()
)

// reduction returns the definition of a reduction operator.
// An empty list of axes reduces all the axes.
func reduction(name string, p irrule.Pattern) ir.OpDef {
	return ir.OpDef{
		Name:  name,
		Arity: ir.Exactly(1),
		Infer: func(op *ir.OpNode, operands []ir.Type) (ir.Type, error) {
			return reduceType(p, op, operands)
		},
		Attrs: []ir.AttrSpec{
			{Name: "axes", Kind: ir.IntsAttr, Default: ir.Ints()},
			{Name: "keepdims", Kind: ir.BoolAttr, Default: ir.Bool(false)},
		},
	}
}

func reduceType(p irrule.Pattern, op *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	if err := p.Check(0, operands[0]); err != nil {
		return nil, err
	}
	tensor := operands[0].(*ir.TensorType)
	if tensor.Unranked {
		return tensor, nil
	}
	rank := len(tensor.Dims)
	axes := op.Ints("axes")
	if len(axes) == 0 {
		for i := range rank {
			axes = append(axes, int64(i))
		}
	}
	normalized, err := irrule.NormalizeAxes(0, axes, rank)
	if err != nil {
		return nil, err
	}
	return tensor.WithDims(irrule.ReduceDims(tensor.Dims, normalized, op.Bool("keepdims"))), nil
}
