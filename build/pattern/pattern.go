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

// Package pattern matches expression trees of a graph.
//
// A pattern describes the root of a subgraph: the kind of its expressions,
// the opcodes of its calls and constraints on their types and values.
// Patterns can name the expressions they match. A name used twice must
// match the same expression both times.
package pattern

import (
	"fmt"
	"strings"

	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/ir/irrule"
)

type (
	// Bindings maps pattern names to the expressions they matched.
	Bindings map[string]ir.Expr

	// Pattern matches an expression and its operands.
	Pattern interface {
		// String representation of the pattern.
		String() string

		match(b Bindings, e ir.Expr) bool
	}
)

// Match an expression against a pattern.
// Returns the expressions bound to the names of the pattern.
func Match(p Pattern, e ir.Expr) (Bindings, bool) {
	b := Bindings{}
	if !p.match(b, e) {
		return nil, false
	}
	return b, true
}

// Call returns the call bound to a name or nil.
func (b Bindings) Call(name string) *ir.Call {
	c, _ := b[name].(*ir.Call)
	return c
}

// Constant returns the constant bound to a name or nil.
func (b Bindings) Constant(name string) *ir.Constant {
	c, _ := b[name].(*ir.Constant)
	return c
}

func (b Bindings) bind(name string, e ir.Expr) bool {
	if name == "" {
		return true
	}
	if prev, ok := b[name]; ok {
		return prev.ID() == e.ID()
	}
	b[name] = e
	return true
}

func (b Bindings) clone() Bindings {
	c := make(Bindings, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

func named(name, s string) string {
	if name == "" {
		return s
	}
	return name + "@" + s
}

type wildcard struct {
	name string
}

// Wildcard matches any expression.
func Wildcard(name string) Pattern {
	return wildcard{name: name}
}

func (p wildcard) match(b Bindings, e ir.Expr) bool {
	return b.bind(p.name, e)
}

func (p wildcard) String() string {
	if p.name == "" {
		return "_"
	}
	return p.name
}

type callPattern struct {
	name    string
	op      ir.Opcode
	args    []Pattern
	anyArgs bool
}

// IsCall matches a call of an opcode with exactly len(args) operands
// matching args in order.
func IsCall(name string, op ir.Opcode, args ...Pattern) Pattern {
	return callPattern{name: name, op: op, args: args}
}

// IsOp matches a call of an opcode whatever its operands.
func IsOp(name string, op ir.Opcode) Pattern {
	return callPattern{name: name, op: op, anyArgs: true}
}

func (p callPattern) match(b Bindings, e ir.Expr) bool {
	call, ok := e.(*ir.Call)
	if !ok || call.Op().Opcode() != p.op {
		return false
	}
	if !p.anyArgs {
		operands := call.Operands()
		if len(operands) != len(p.args) {
			return false
		}
		for i, arg := range p.args {
			if !arg.match(b, operands[i]) {
				return false
			}
		}
	}
	return b.bind(p.name, e)
}

func (p callPattern) String() string {
	if p.anyArgs {
		return named(p.name, p.op.String()+"(...)")
	}
	args := make([]string, len(p.args))
	for i, arg := range p.args {
		args[i] = arg.String()
	}
	return named(p.name, fmt.Sprintf("%s(%s)", p.op, strings.Join(args, ", ")))
}

type leafPattern struct {
	name string
	kind ir.ExprKind
	desc string
	cond func(ir.Expr) bool
}

// IsConst matches a constant. A nil condition accepts any constant.
func IsConst(name string, cond func(*ir.Constant) bool) Pattern {
	p := leafPattern{name: name, kind: ir.ConstantExpr, desc: "const"}
	if cond != nil {
		p.cond = func(e ir.Expr) bool { return cond(e.(*ir.Constant)) }
	}
	return p
}

// IsPlaceholder matches a placeholder.
func IsPlaceholder(name string) Pattern {
	return leafPattern{name: name, kind: ir.PlaceholderExpr, desc: "placeholder"}
}

func (p leafPattern) match(b Bindings, e ir.Expr) bool {
	if e.Kind() != p.kind {
		return false
	}
	if p.cond != nil && !p.cond(e) {
		return false
	}
	return b.bind(p.name, e)
}

func (p leafPattern) String() string {
	return named(p.name, p.desc)
}

type typedPattern struct {
	p   Pattern
	typ irrule.Pattern
}

// WithType restricts a pattern to expressions with a type matching typ.
// Expressions with an unknown type never match.
func WithType(p Pattern, typ irrule.Pattern) Pattern {
	return typedPattern{p: p, typ: typ}
}

func (p typedPattern) match(b Bindings, e ir.Expr) bool {
	return p.typ.Match(e.Type()) && p.p.match(b, e)
}

func (p typedPattern) String() string {
	return fmt.Sprintf("%s : %s", p.p, p.typ)
}

type wherePattern struct {
	p    Pattern
	desc string
	cond func(Bindings, ir.Expr) bool
}

// Where restricts a pattern with a condition evaluated once the pattern
// has matched. The condition can read the bindings of the pattern.
func Where(p Pattern, desc string, cond func(Bindings, ir.Expr) bool) Pattern {
	return wherePattern{p: p, desc: desc, cond: cond}
}

func (p wherePattern) match(b Bindings, e ir.Expr) bool {
	return p.p.match(b, e) && p.cond(b, e)
}

func (p wherePattern) String() string {
	return fmt.Sprintf("%s if %s", p.p, p.desc)
}

type orPattern []Pattern

// Or matches the first pattern matching an expression.
func Or(ps ...Pattern) Pattern {
	return orPattern(ps)
}

func (ps orPattern) match(b Bindings, e ir.Expr) bool {
	for _, p := range ps {
		try := b.clone()
		if !p.match(try, e) {
			continue
		}
		for k, v := range try {
			b[k] = v
		}
		return true
	}
	return false
}

func (ps orPattern) String() string {
	s := make([]string, len(ps))
	for i, p := range ps {
		s[i] = p.String()
	}
	return "(" + strings.Join(s, " | ") + ")"
}
