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

var concatDef = ir.OpDef{
	Name:  "concat",
	Arity: ir.AtLeast(1),
	Infer: concatType,
	Attrs: []ir.AttrSpec{
		{Name: "axis", Kind: ir.IntAttr, Required: true},
	},
}

func concatType(op *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	tensors, err := irrule.Tensors(irrule.HasRankAtLeast(1), operands)
	if err != nil {
		return nil, err
	}
	first := tensors[0]
	for i, tensor := range tensors[1:] {
		if tensor.DType != first.DType {
			return nil, ir.OperandMismatch(i+1, ir.DTypeName(first.DType)+" tensor", tensor)
		}
	}
	var ranked *ir.TensorType
	for _, tensor := range tensors {
		if !tensor.Unranked {
			ranked = tensor
			break
		}
	}
	if ranked == nil {
		return first, nil
	}
	rank := len(ranked.Dims)
	axis, ok := irrule.NormalizeAxis(int(op.Int("axis")), rank)
	if !ok {
		return nil, ir.Mismatchf(0, "axis %d out of range for rank %d", op.Int("axis"), rank)
	}
	dims := make([]ir.Dim, rank)
	copy(dims, ranked.Dims)
	dims[axis] = 0
	for i, tensor := range tensors {
		if tensor.Unranked {
			dims[axis] = ir.UnknownDim
			continue
		}
		if len(tensor.Dims) != rank {
			return nil, ir.Mismatchf(i, "rank %d does not match rank %d of %s", len(tensor.Dims), rank, ranked)
		}
		for j, dim := range tensor.Dims {
			if j == axis {
				if dims[axis].Known() && dim.Known() {
					dims[axis] += dim
				} else {
					dims[axis] = ir.UnknownDim
				}
				continue
			}
			switch {
			case !dim.Known():
			case !dims[j].Known():
				dims[j] = dim
			case dims[j] != dim:
				return nil, ir.Mismatchf(i, "axis %d has length %s but want %s", j, dim, dims[j])
			}
		}
	}
	return first.WithDims(dims), nil
}
