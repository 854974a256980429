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

var reshapeDef = ir.OpDef{
	Name:  "reshape",
	Arity: ir.Exactly(1),
	Infer: reshapeType,
	Attrs: []ir.AttrSpec{
		// A length of -1 is inferred from the number of elements.
		{Name: "shape", Kind: ir.IntsAttr, Required: true},
	},
}

func reshapeType(op *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	if err := irrule.IsTensor().Check(0, operands[0]); err != nil {
		return nil, err
	}
	tensor := operands[0].(*ir.TensorType)
	target := irrule.DimsFromInts(op.Ints("shape"))
	inferred := -1
	known := int64(1)
	for i, dim := range target {
		if dim.Known() {
			known *= int64(dim)
			continue
		}
		if inferred >= 0 {
			return nil, ir.Mismatchf(-1, "more than one axis length to infer in shape %v", op.Ints("shape"))
		}
		inferred = i
	}
	size, static := tensor.Size()
	if !static {
		return tensor.WithDims(target), nil
	}
	if inferred < 0 {
		if known != size {
			return nil, ir.Mismatchf(0, "cannot reshape %s with %d elements into a shape with %d elements", tensor, size, known)
		}
		return tensor.WithDims(target), nil
	}
	if known == 0 || size%known != 0 {
		return nil, ir.Mismatchf(0, "cannot reshape %s into shape %v", tensor, op.Ints("shape"))
	}
	target[inferred] = ir.Dim(size / known)
	return tensor.WithDims(target), nil
}
