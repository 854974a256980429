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

// Package math declares elementwise arithmetic operators.
// Math operators do not change the shape of their operands
// beyond broadcasting.
package math

import (
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/ir/irrule"
	"github.com/gx-org/nnir/stdlib/builtin"
)

// Package description of the math package.
var Package = builtin.Package{
	FullPath: "math",
	Defs: []ir.OpDef{
		binary("add"),
		binary("sub"),
		binary("mul"),
		binary("div"),
		binary("max"),
		binary("min"),
		{Name: "neg", Arity: ir.Exactly(1), Infer: numericUnary},
		{Name: "abs", Arity: ir.Exactly(1), Infer: numericUnary},
		{Name: "exp", Arity: ir.Exactly(1), Infer: floatUnary},
	},
}

var (
	numericUnary = irrule.Unary(irrule.IsNumeric())
	floatUnary   = irrule.Unary(irrule.IsFloat())
)

func binary(name string) ir.OpDef {
	return ir.OpDef{Name: name, Arity: ir.Exactly(2), Infer: irrule.Elementwise}
}

// Opcodes of the math package.
type Opcodes struct {
	Add, Sub, Mul, Div ir.Opcode
	Max, Min           ir.Opcode
	Neg, Abs, Exp      ir.Opcode
}

// Register the opcodes of the package in a registry.
func Register(reg *ir.Registry) (*Opcodes, error) {
	ops, err := builtin.Build(reg, Package)
	if err != nil {
		return nil, err
	}
	return &Opcodes{
		Add: ops.Get("add"),
		Sub: ops.Get("sub"),
		Mul: ops.Get("mul"),
		Div: ops.Get("div"),
		Max: ops.Get("max"),
		Min: ops.Get("min"),
		Neg: ops.Get("neg"),
		Abs: ops.Get("abs"),
		Exp: ops.Get("exp"),
	}, nil
}
