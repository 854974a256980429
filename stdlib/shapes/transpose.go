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

var transposeDef = ir.OpDef{
	Name:  "transpose",
	Arity: ir.Exactly(1),
	Infer: transposeType,
	Attrs: []ir.AttrSpec{
		// No permutation reverses the axes.
		{Name: "perm", Kind: ir.IntsAttr, Default: ir.Ints()},
	},
}

func transposeType(op *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	if err := irrule.IsTensor().Check(0, operands[0]); err != nil {
		return nil, err
	}
	tensor := operands[0].(*ir.TensorType)
	if tensor.Unranked {
		return tensor, nil
	}
	rank := len(tensor.Dims)
	perm := op.Ints("perm")
	if len(perm) == 0 {
		for i := range rank {
			perm = append(perm, int64(rank-1-i))
		}
	}
	if len(perm) != rank {
		return nil, ir.Mismatchf(0, "permutation %v does not match rank %d", perm, rank)
	}
	axes, err := irrule.NormalizeAxes(0, perm, rank)
	if err != nil {
		return nil, err
	}
	if len(axes) != rank {
		return nil, ir.Mismatchf(0, "invalid permutation %v", perm)
	}
	dims := make([]ir.Dim, rank)
	for i, axis := range perm {
		n, _ := irrule.NormalizeAxis(int(axis), rank)
		dims[i] = tensor.Dims[n]
	}
	return tensor.WithDims(dims), nil
}
