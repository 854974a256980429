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

package nn

import (
	"slices"

	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/ir/irrule"
)

// One-hot modes.
const (
	// OneHotNormal sets the on value at the index. Negative indices are out of range.
	OneHotNormal = "normal"
	// OneHotProcessNeg counts negative indices from the end of the depth.
	OneHotProcessNeg = "process_neg"
)

// onehot expands integer indices into one-hot vectors.
//
// Operands are the indices and a rank-1 tensor of two values [off, on].
// The new axis of length depth is inserted at the given axis.
var oneHotDef = ir.OpDef{
	Name:  "onehot",
	Arity: ir.Exactly(2),
	Infer: oneHotType,
	Attrs: []ir.AttrSpec{
		{Name: "depth", Kind: ir.IntAttr, Required: true},
		{Name: "axis", Kind: ir.IntAttr, Default: ir.Int(-1)},
		{Name: "mode", Kind: ir.StringAttr, Default: ir.Str(OneHotNormal), OneOf: []string{OneHotNormal, OneHotProcessNeg}},
	},
}

func oneHotType(op *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	if err := irrule.IsIntegral().Check(0, operands[0]); err != nil {
		return nil, err
	}
	if err := irrule.And(irrule.IsNumeric(), irrule.IsRank(1)).Check(1, operands[1]); err != nil {
		return nil, err
	}
	indices, values := operands[0].(*ir.TensorType), operands[1].(*ir.TensorType)
	if !values.Unranked && values.Dims[0].Known() && values.Dims[0] != 2 {
		return nil, ir.OperandMismatch(1, ir.Tensor(values.DType, 2).String(), values)
	}
	depth := op.Int("depth")
	if depth < 1 {
		return nil, ir.Mismatchf(-1, "invalid depth %d", depth)
	}
	if indices.Unranked {
		return ir.UnrankedTensor(values.DType), nil
	}
	rank := len(indices.Dims)
	axis, ok := irrule.NormalizeAxis(int(op.Int("axis")), rank+1)
	if !ok {
		return nil, ir.Mismatchf(0, "axis %d out of range for %s", op.Int("axis"), indices)
	}
	dims := slices.Insert(slices.Clone(indices.Dims), axis, ir.Dim(depth))
	return ir.TensorDims(values.DType, dims...), nil
}
