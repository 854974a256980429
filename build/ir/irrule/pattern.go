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

// Package irrule provides type patterns and type rules shared by opcode definitions.
package irrule

import (
	"strings"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/nnir/build/ir"
)

// Pattern matches a type.
type Pattern struct {
	desc  string
	match func(ir.Type) bool
}

// NewPattern returns a pattern given a description of what it accepts.
func NewPattern(desc string, match func(ir.Type) bool) Pattern {
	return Pattern{desc: desc, match: match}
}

// Match returns true if the type matches the pattern.
func (p Pattern) Match(typ ir.Type) bool {
	return typ != nil && p.match(typ)
}

// String returns a description of the types accepted by the pattern.
func (p Pattern) String() string {
	return p.desc
}

// Check returns a type mismatch for the operand at the given index
// if its type does not match the pattern.
func (p Pattern) Check(index int, typ ir.Type) error {
	if p.Match(typ) {
		return nil
	}
	return ir.OperandMismatch(index, p.desc, typ)
}

func tensorMatch(f func(*ir.TensorType) bool) func(ir.Type) bool {
	return func(typ ir.Type) bool {
		tensor, ok := typ.(*ir.TensorType)
		return ok && f(tensor)
	}
}

// IsTensor matches any tensor.
func IsTensor() Pattern {
	return NewPattern("tensor", tensorMatch(func(*ir.TensorType) bool { return true }))
}

// IsScalar matches tensors of rank 0.
func IsScalar() Pattern {
	return NewPattern("scalar", tensorMatch((*ir.TensorType).IsScalar))
}

// IsRank matches tensors of a given rank. Unranked tensors match.
func IsRank(rank int) Pattern {
	return NewPattern("tensor of rank "+itoa(rank), tensorMatch(func(t *ir.TensorType) bool {
		r, ok := t.Rank()
		return !ok || r == rank
	}))
}

// HasRankAtLeast matches tensors of at least a given rank. Unranked tensors match.
func HasRankAtLeast(rank int) Pattern {
	return NewPattern("tensor of rank at least "+itoa(rank), tensorMatch(func(t *ir.TensorType) bool {
		r, ok := t.Rank()
		return !ok || r >= rank
	}))
}

// IsFloat matches tensors of a floating-point element type.
func IsFloat() Pattern {
	return NewPattern("floating-point tensor", tensorMatch(func(t *ir.TensorType) bool {
		return ir.IsFloat(t.DType)
	}))
}

// IsIntegral matches tensors of an integer element type.
func IsIntegral() Pattern {
	return NewPattern("integer tensor", tensorMatch(func(t *ir.TensorType) bool {
		return ir.IsInteger(t.DType)
	}))
}

// IsNumeric matches tensors on which arithmetic is defined.
func IsNumeric() Pattern {
	return NewPattern("numeric tensor", tensorMatch(func(t *ir.TensorType) bool {
		return ir.IsNumeric(t.DType)
	}))
}

// IsDType matches tensors of a given element type.
func IsDType(dt dtype.DataType) Pattern {
	return NewPattern(ir.DTypeName(dt)+" tensor", tensorMatch(func(t *ir.TensorType) bool {
		return t.DType == dt
	}))
}

func join(ps []Pattern, sep string) string {
	descs := make([]string, len(ps))
	for i, p := range ps {
		descs[i] = p.desc
	}
	return strings.Join(descs, sep)
}

// And matches types matching all the patterns.
func And(ps ...Pattern) Pattern {
	return NewPattern(join(ps, " and "), func(typ ir.Type) bool {
		for _, p := range ps {
			if !p.match(typ) {
				return false
			}
		}
		return true
	})
}

// Or matches types matching any of the patterns.
func Or(ps ...Pattern) Pattern {
	return NewPattern(join(ps, " or "), func(typ ir.Type) bool {
		for _, p := range ps {
			if p.match(typ) {
				return true
			}
		}
		return false
	})
}
