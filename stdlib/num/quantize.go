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
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/ir/irrule"
)

// quantize maps floating-point values to integers:
// q = round(x / scale) + zero_point.
var quantizeDef = ir.OpDef{
	Name:  "quantize",
	Arity: ir.Exactly(1),
	Infer: quantizeType,
	Attrs: []ir.AttrSpec{
		{Name: "dtype", Kind: ir.DTypeAttr, Default: ir.DType(dtype.Int32)},
		{Name: "scale", Kind: ir.FloatAttr, Default: ir.Float(1)},
		{Name: "zero_point", Kind: ir.IntAttr, Default: ir.Int(0)},
	},
}

// dequantize maps integers back to floating-point values:
// x = (q - zero_point) * scale.
var dequantizeDef = ir.OpDef{
	Name:  "dequantize",
	Arity: ir.Exactly(1),
	Infer: dequantizeType,
	Attrs: []ir.AttrSpec{
		{Name: "dtype", Kind: ir.DTypeAttr, Default: ir.DType(dtype.Float32)},
		{Name: "scale", Kind: ir.FloatAttr, Default: ir.Float(1)},
		{Name: "zero_point", Kind: ir.IntAttr, Default: ir.Int(0)},
	},
}

func checkScale(op *ir.OpNode) error {
	if scale := op.Float("scale"); scale <= 0 {
		return ir.Mismatchf(-1, "invalid scale %g", scale)
	}
	return nil
}

func quantizeType(op *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	if err := irrule.IsFloat().Check(0, operands[0]); err != nil {
		return nil, err
	}
	target := op.DType("dtype")
	if !ir.IsInteger(target) {
		return nil, ir.Mismatchf(-1, "cannot quantize to %s: integer type required", ir.DTypeName(target))
	}
	if err := checkScale(op); err != nil {
		return nil, err
	}
	return operands[0].(*ir.TensorType).WithDType(target), nil
}

func dequantizeType(op *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	if err := irrule.IsIntegral().Check(0, operands[0]); err != nil {
		return nil, err
	}
	target := op.DType("dtype")
	if !ir.IsFloat(target) {
		return nil, ir.Mismatchf(-1, "cannot dequantize to %s: floating-point type required", ir.DTypeName(target))
	}
	if err := checkScale(op); err != nil {
		return nil, err
	}
	return operands[0].(*ir.TensorType).WithDType(target), nil
}
