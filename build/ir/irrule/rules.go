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

package irrule

import (
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/nnir/build/ir"
)

// Tensors checks that all operands are tensors matching a pattern and
// returns them.
func Tensors(p Pattern, operands []ir.Type) ([]*ir.TensorType, error) {
	r := make([]*ir.TensorType, len(operands))
	for i, operand := range operands {
		if err := p.Check(i, operand); err != nil {
			return nil, err
		}
		tensor, ok := operand.(*ir.TensorType)
		if !ok {
			return nil, ir.OperandMismatch(i, "tensor", operand)
		}
		r[i] = tensor
	}
	return r, nil
}

// Elementwise is the type rule of operators applied element by element
// on numeric tensors with the same element type and broadcastable shapes.
func Elementwise(_ *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	return broadcastOperands(IsNumeric(), operands)
}

// Logical is the type rule of elementwise operators on booleans.
func Logical(_ *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	return broadcastOperands(IsDType(dtype.Bool), operands)
}

func broadcastOperands(p Pattern, operands []ir.Type) (ir.Type, error) {
	tensors, err := Tensors(p, operands)
	if err != nil {
		return nil, err
	}
	result := tensors[0]
	for i, tensor := range tensors[1:] {
		if tensor.DType != result.DType {
			return nil, ir.Mismatchf(i+1, "element type %s does not match element type %s of operand 0",
				ir.DTypeName(tensor.DType), ir.DTypeName(result.DType))
		}
		if result.Unranked || tensor.Unranked {
			result = ir.UnrankedTensor(result.DType)
			continue
		}
		dims, ok := BroadcastDims(result.Dims, tensor.Dims)
		if !ok {
			return nil, ir.OperandMismatch(i+1, "a shape broadcastable with "+result.String(), tensor)
		}
		result = result.WithDims(dims)
	}
	return result, nil
}

// Compare is the type rule of elementwise comparisons.
// The result has the broadcast shape of the operands and a boolean element type.
func Compare(op *ir.OpNode, operands []ir.Type) (ir.Type, error) {
	typ, err := Elementwise(op, operands)
	if err != nil {
		return nil, err
	}
	return typ.(*ir.TensorType).WithDType(dtype.Bool), nil
}

// Unary returns a type rule for operators with one operand matching a pattern
// and returning a value of the same type.
func Unary(p Pattern) ir.TypeRule {
	return func(_ *ir.OpNode, operands []ir.Type) (ir.Type, error) {
		if err := p.Check(0, operands[0]); err != nil {
			return nil, err
		}
		return operands[0], nil
	}
}

// SameAsOperand returns a type rule returning the type of an operand.
func SameAsOperand(index int) ir.TypeRule {
	return func(_ *ir.OpNode, operands []ir.Type) (ir.Type, error) {
		if index >= len(operands) {
			return nil, ir.Mismatchf(index, "missing operand")
		}
		return operands[index], nil
	}
}
