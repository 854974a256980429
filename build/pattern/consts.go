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

package pattern

import (
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/nnir/build/ir"
	"golang.org/x/exp/constraints"
)

func all[T constraints.Integer | constraints.Float](vals []T, pred func(float64) bool) bool {
	for _, v := range vals {
		if !pred(float64(v)) {
			return false
		}
	}
	return true
}

// AllElements returns a constant condition true if every element of the
// constant, converted to float64, satisfies pred.
// Constants of booleans or bfloat16 never satisfy the condition.
func AllElements(pred func(float64) bool) func(*ir.Constant) bool {
	return func(c *ir.Constant) bool {
		switch vals := c.Value().(type) {
		case []int32:
			return all(vals, pred)
		case []int64:
			return all(vals, pred)
		case []uint32:
			return all(vals, pred)
		case []uint64:
			return all(vals, pred)
		case []float32:
			return all(vals, pred)
		case []float64:
			return all(vals, pred)
		}
		return false
	}
}

// Splat returns a constant condition true if every element of the constant equals v.
func Splat(v float64) func(*ir.Constant) bool {
	return AllElements(func(x float64) bool { return x == v })
}

// IsScalarConst matches a constant with no axes.
func IsScalarConst(name string, cond func(*ir.Constant) bool) Pattern {
	return IsConst(name, func(c *ir.Constant) bool {
		if !c.TensorType().IsScalar() {
			return false
		}
		return cond == nil || cond(c)
	})
}

// HasDType returns a constant condition true if the element type of the constant is dt.
func HasDType(dt dtype.DataType) func(*ir.Constant) bool {
	return func(c *ir.Constant) bool {
		return c.TensorType().DType == dt
	}
}
