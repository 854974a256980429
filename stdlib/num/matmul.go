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

// matmulType computes the type of a matrix product [..., M, K] x [..., K, N].
// Batch axes are broadcast.
func matmulType(_ *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	tensors, err := irrule.Tensors(irrule.And(irrule.IsNumeric(), irrule.HasRankAtLeast(2)), operands)
	if err != nil {
		return nil, err
	}
	x, y := tensors[0], tensors[1]
	if x.DType != y.DType {
		return nil, ir.OperandMismatch(1, ir.DTypeName(x.DType)+" tensor", y)
	}
	if x.Unranked || y.Unranked {
		return ir.UnrankedTensor(x.DType), nil
	}
	xr, yr := len(x.Dims), len(y.Dims)
	m, kx := x.Dims[xr-2], x.Dims[xr-1]
	ky, n := y.Dims[yr-2], y.Dims[yr-1]
	if kx.Known() && ky.Known() && kx != ky {
		return nil, ir.Mismatchf(1, "contracting axis of length %s does not match %s in %s", ky, kx, x)
	}
	batch, ok := irrule.BroadcastDims(x.Dims[:xr-2], y.Dims[:yr-2])
	if !ok {
		return nil, ir.OperandMismatch(1, "batch axes broadcastable with "+x.String(), y)
	}
	return ir.TensorDims(x.DType, append(batch, m, n)...), nil
}
