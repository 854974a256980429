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
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/ir/irrule"
)

var broadcastDef = ir.OpDef{
	Name:  "broadcast",
	Arity: ir.Exactly(1),
	Infer: broadcastType,
	Attrs: []ir.AttrSpec{
		{Name: "shape", Kind: ir.IntsAttr, Required: true},
	},
}

// broadcastType checks that an operand can be broadcast to a target shape.
// Trailing axes are aligned. An axis of the operand must be 1 or the length
// of the target axis.
func broadcastType(op *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	if err := irrule.IsTensor().Check(0, operands[0]); err != nil {
		return nil, err
	}
	tensor := operands[0].(*ir.TensorType)
	target := irrule.DimsFromInts(op.Ints("shape"))
	if tensor.Unranked {
		return tensor.WithDims(target), nil
	}
	if len(tensor.Dims) > len(target) {
		return nil, ir.OperandMismatch(0, "tensor of rank at most "+ir.TensorDims(tensor.DType, target...).String(), tensor)
	}
	offset := len(target) - len(tensor.Dims)
	for i, dim := range tensor.Dims {
		want := target[offset+i]
		if !dim.Known() || !want.Known() || dim == 1 || dim == want {
			continue
		}
		return nil, ir.Mismatchf(0, "cannot broadcast axis %d of length %s to %s", i, dim, want)
	}
	return tensor.WithDims(target), nil
}
