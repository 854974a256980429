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

package rewrite

import (
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/pattern"
	"github.com/gx-org/nnir/stdlib/math"
)

// sameType is true if the expression bound to x has the type of the root.
// Replacing the root by x then leaves the types of its users unchanged.
func sameType(x string) func(pattern.Bindings, ir.Expr) bool {
	return func(b pattern.Bindings, root ir.Expr) bool {
		return root.Type() != nil && ir.TypesEqual(b[x].Type(), root.Type())
	}
}

func forward(name string) func(*ir.Module, pattern.Bindings, ir.Expr) (ir.Expr, error) {
	return func(_ *ir.Module, b pattern.Bindings, _ ir.Expr) (ir.Expr, error) {
		return b[name], nil
	}
}

// identity returns the rules replacing op(x, c) and op(c, x) by x
// when all the elements of the constant c are equal to v.
func identity(name string, op ir.Opcode, v float64, commutative bool) []Rule {
	c := pattern.IsConst("", pattern.Splat(v))
	x := pattern.Wildcard("x")
	rules := []Rule{{
		Name:    name,
		Pattern: pattern.Where(pattern.IsCall("", op, x, c), "x has the type of the result", sameType("x")),
		Build:   forward("x"),
	}}
	if commutative {
		rules = append(rules, Rule{
			Name:    name + "_commuted",
			Pattern: pattern.Where(pattern.IsCall("", op, c, x), "x has the type of the result", sameType("x")),
			Build:   forward("x"),
		})
	}
	return rules
}

// Algebraic returns rules removing operations without effect:
// double negations, additions of zero and multiplications or divisions by one.
func Algebraic(ops *math.Opcodes) []Rule {
	rules := []Rule{{
		Name:    "neg_neg",
		Pattern: pattern.IsCall("", ops.Neg, pattern.IsCall("", ops.Neg, pattern.Wildcard("x"))),
		Build:   forward("x"),
	}}
	rules = append(rules, identity("add_zero", ops.Add, 0, true)...)
	rules = append(rules, identity("sub_zero", ops.Sub, 0, false)...)
	rules = append(rules, identity("mul_one", ops.Mul, 1, true)...)
	rules = append(rules, identity("div_one", ops.Div, 1, false)...)
	return rules
}
