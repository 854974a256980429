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

package shapes

import (
	"slices"

	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/ir/irrule"
)

var unsqueezeDef = ir.OpDef{
	Name:  "unsqueeze",
	Arity: ir.Exactly(1),
	Infer: unsqueezeType,
	Attrs: []ir.AttrSpec{
		{Name: "axes", Kind: ir.IntsAttr, Required: true},
	},
}

// unsqueezeType inserts axes of length 1. Axes are positions in the result.
func unsqueezeType(op *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	if err := irrule.IsTensor().Check(0, operands[0]); err != nil {
		return nil, err
	}
	tensor := operands[0].(*ir.TensorType)
	if tensor.Unranked {
		return tensor, nil
	}
	axesAttr := op.Ints("axes")
	rank := len(tensor.Dims) + len(axesAttr)
	axes, err := irrule.NormalizeAxes(0, axesAttr, rank)
	if err != nil {
		return nil, err
	}
	dims := slices.Clone(tensor.Dims)
	for _, axis := range axes {
		dims = slices.Insert(dims, axis, 1)
	}
	return tensor.WithDims(dims), nil
}
