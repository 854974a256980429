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
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/ir/irrule"
)

// conv2d computes a 2D convolution.
//
// Operands are the input [N, C, H, W], the weights [O, C/groups, KH, KW]
// and an optional bias [O].
var conv2dDef = ir.OpDef{
	Name:  "conv2d",
	Arity: ir.Between(2, 3),
	Infer: conv2dType,
	Attrs: []ir.AttrSpec{
		{Name: "stride", Kind: ir.IntsAttr, Default: ir.Ints(1, 1)},
		// Padding is [top, left, bottom, right].
		{Name: "padding", Kind: ir.IntsAttr, Default: ir.Ints(0, 0, 0, 0)},
		{Name: "dilation", Kind: ir.IntsAttr, Default: ir.Ints(1, 1)},
		{Name: "groups", Kind: ir.IntAttr, Default: ir.Int(1)},
	},
}

func checkLen(op *ir.OpNode, name string, want int) ([]int64, error) {
	vals := op.Ints(name)
	if len(vals) != want {
		return nil, ir.Mismatchf(-1, "attribute %s has %d values but want %d", name, len(vals), want)
	}
	for _, v := range vals {
		if v < 0 || (name != "padding" && v == 0) {
			return nil, ir.Mismatchf(-1, "invalid %s %v", name, vals)
		}
	}
	return vals, nil
}

// convDim returns the length of an output axis of a convolution.
func convDim(in, kernel ir.Dim, padBefore, padAfter, stride, dilation int64) (ir.Dim, bool) {
	if !in.Known() || !kernel.Known() {
		return ir.UnknownDim, true
	}
	span := dilation*(int64(kernel)-1) + 1
	padded := int64(in) + padBefore + padAfter
	if padded < span {
		return 0, false
	}
	return ir.Dim((padded-span)/stride + 1), true
}

func dimsMatch(a, b ir.Dim) bool {
	return !a.Known() || !b.Known() || a == b
}

func conv2dType(op *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	stride, err := checkLen(op, "stride", 2)
	if err != nil {
		return nil, err
	}
	padding, err := checkLen(op, "padding", 4)
	if err != nil {
		return nil, err
	}
	dilation, err := checkLen(op, "dilation", 2)
	if err != nil {
		return nil, err
	}
	groups := op.Int("groups")
	if groups < 1 {
		return nil, ir.Mismatchf(-1, "invalid number of groups %d", groups)
	}
	p := irrule.And(irrule.IsFloat(), irrule.IsRank(4))
	tensors, err := irrule.Tensors(p, operands[:2])
	if err != nil {
		return nil, err
	}
	input, weights := tensors[0], tensors[1]
	if weights.DType != input.DType {
		return nil, ir.OperandMismatch(1, ir.DTypeName(input.DType)+" tensor", weights)
	}
	if len(operands) == 3 {
		bias := operands[2]
		if err := irrule.And(irrule.IsDType(input.DType), irrule.IsRank(1)).Check(2, bias); err != nil {
			return nil, err
		}
		if bT := bias.(*ir.TensorType); !weights.Unranked && !bT.Unranked && !dimsMatch(bT.Dims[0], weights.Dims[0]) {
			return nil, ir.OperandMismatch(2, ir.TensorDims(input.DType, weights.Dims[0]).String(), bias)
		}
	}
	if input.Unranked || weights.Unranked {
		return ir.TensorDims(input.DType, ir.UnknownDim, ir.UnknownDim, ir.UnknownDim, ir.UnknownDim), nil
	}
	in, w := input.Dims, weights.Dims
	if in[1].Known() && w[1].Known() && int64(in[1]) != int64(w[1])*groups {
		return nil, ir.Mismatchf(1, "weights have %s input channels but input has %s channels in %d groups", w[1], in[1], groups)
	}
	if w[0].Known() && int64(w[0])%groups != 0 {
		return nil, ir.Mismatchf(1, "%s output channels cannot be split in %d groups", w[0], groups)
	}
	h, ok := convDim(in[2], w[2], padding[0], padding[2], stride[0], dilation[0])
	if !ok {
		return nil, ir.Mismatchf(0, "input height %s is smaller than the dilated kernel", in[2])
	}
	wd, ok := convDim(in[3], w[3], padding[1], padding[3], stride[1], dilation[1])
	if !ok {
		return nil, ir.Mismatchf(0, "input width %s is smaller than the dilated kernel", in[3])
	}
	return ir.TensorDims(input.DType, in[0], w[0], h, wd), nil
}
