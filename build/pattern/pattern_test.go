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

package pattern_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/ir/irrule"
	"github.com/gx-org/nnir/build/pattern"
	"github.com/gx-org/nnir/stdlib"
)

type fixture struct {
	ops         *stdlib.Opcodes
	x, y        *ir.Placeholder
	one, two    *ir.Constant
	ones        *ir.Constant
	mul, add    *ir.Call
	addSame     *ir.Call
	neg, negNeg *ir.Call
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := ir.NewRegistry()
	ops, err := stdlib.Register(reg)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	m := ir.NewModule(reg)
	f := &fixture{ops: ops}
	f.x = m.Placeholder("x", ir.Tensor(dtype.Float32, 4))
	f.y = m.Placeholder("y", ir.Tensor(dtype.Float32, 4))
	if f.one, err = ir.NewScalar(m, float32(1)); err != nil {
		t.Fatalf("%+v", err)
	}
	if f.two, err = ir.NewScalar(m, float32(2)); err != nil {
		t.Fatalf("%+v", err)
	}
	if f.ones, err = ir.NewConstant(m, []float32{1, 1, 1, 1}); err != nil {
		t.Fatalf("%+v", err)
	}
	call := func(op ir.Opcode, operands ...ir.Expr) *ir.Call {
		return m.MustCall(reg.MustOpNode(op, nil), operands...)
	}
	f.mul = call(ops.Math.Mul, f.x, f.one)
	f.add = call(ops.Math.Add, f.x, f.y)
	f.addSame = call(ops.Math.Add, f.x, f.x)
	f.neg = call(ops.Math.Neg, f.x)
	f.negNeg = call(ops.Math.Neg, f.neg)
	return f
}

func bindingIDs(b pattern.Bindings) map[string]ir.ID {
	if b == nil {
		return nil
	}
	ids := make(map[string]ir.ID, len(b))
	for name, e := range b {
		ids[name] = e.ID()
	}
	return ids
}

func TestMatch(t *testing.T) {
	f := newFixture(t)
	mulByOne := pattern.IsCall("m", f.ops.Math.Mul, pattern.Wildcard("x"), pattern.IsScalarConst("one", pattern.Splat(1)))
	tests := []struct {
		p    pattern.Pattern
		e    ir.Expr
		want map[string]ir.ID
	}{
		{
			p:    mulByOne,
			e:    f.mul,
			want: map[string]ir.ID{"m": f.mul.ID(), "x": f.x.ID(), "one": f.one.ID()},
		},
		{
			p: mulByOne,
			e: f.neg,
		},
		{
			p: pattern.IsCall("", f.ops.Math.Mul, pattern.Wildcard("x"), pattern.IsScalarConst("", pattern.Splat(2))),
			e: f.mul,
		},
		{
			p:    pattern.IsCall("", f.ops.Math.Add, pattern.Wildcard("v"), pattern.Wildcard("v")),
			e:    f.addSame,
			want: map[string]ir.ID{"v": f.x.ID()},
		},
		{
			p: pattern.IsCall("", f.ops.Math.Add, pattern.Wildcard("v"), pattern.Wildcard("v")),
			e: f.add,
		},
		{
			p: pattern.IsCall("", f.ops.Math.Add, pattern.Wildcard("")),
			e: f.add,
		},
		{
			p:    pattern.IsCall("outer", f.ops.Math.Neg, pattern.IsCall("inner", f.ops.Math.Neg, pattern.Wildcard("x"))),
			e:    f.negNeg,
			want: map[string]ir.ID{"outer": f.negNeg.ID(), "inner": f.neg.ID(), "x": f.x.ID()},
		},
		{
			p:    pattern.IsOp("a", f.ops.Math.Add),
			e:    f.add,
			want: map[string]ir.ID{"a": f.add.ID()},
		},
		{
			p:    pattern.WithType(pattern.Wildcard("v"), irrule.IsFloat()),
			e:    f.x,
			want: map[string]ir.ID{"v": f.x.ID()},
		},
		{
			p: pattern.WithType(pattern.Wildcard("v"), irrule.IsIntegral()),
			e: f.x,
		},
		{
			p:    pattern.IsPlaceholder("p"),
			e:    f.y,
			want: map[string]ir.ID{"p": f.y.ID()},
		},
		{
			p: pattern.IsPlaceholder("p"),
			e: f.one,
		},
		{
			p:    pattern.IsConst("c", pattern.Splat(1)),
			e:    f.ones,
			want: map[string]ir.ID{"c": f.ones.ID()},
		},
		{
			p: pattern.IsScalarConst("c", nil),
			e: f.ones,
		},
		{
			p: pattern.IsConst("c", pattern.HasDType(dtype.Int32)),
			e: f.one,
		},
		{
			p: pattern.Or(
				pattern.IsCall("m", f.ops.Math.Mul, pattern.Wildcard("a"), pattern.Wildcard("b")),
				pattern.IsCall("s", f.ops.Math.Add, pattern.Wildcard("a"), pattern.Wildcard("b")),
			),
			e:    f.add,
			want: map[string]ir.ID{"s": f.add.ID(), "a": f.x.ID(), "b": f.y.ID()},
		},
		{
			p: pattern.Where(
				pattern.IsCall("", f.ops.Math.Add, pattern.Wildcard("a"), pattern.Wildcard("b")),
				"a is not b",
				func(b pattern.Bindings, _ ir.Expr) bool { return b["a"] != b["b"] },
			),
			e:    f.add,
			want: map[string]ir.ID{"a": f.x.ID(), "b": f.y.ID()},
		},
		{
			p: pattern.Where(
				pattern.IsCall("", f.ops.Math.Add, pattern.Wildcard("a"), pattern.Wildcard("b")),
				"a is not b",
				func(b pattern.Bindings, _ ir.Expr) bool { return b["a"] != b["b"] },
			),
			e: f.addSame,
		},
	}
	for i, test := range tests {
		b, ok := pattern.Match(test.p, test.e)
		if ok != (test.want != nil) {
			t.Errorf("test %d: %s on %s: got match %v but want %v", i, test.p, test.e, ok, test.want != nil)
			continue
		}
		if diff := cmp.Diff(test.want, bindingIDs(b)); diff != "" {
			t.Errorf("test %d: %s on %s: incorrect bindings:\n%s", i, test.p, test.e, diff)
		}
	}
}

func TestBindingsAccessors(t *testing.T) {
	f := newFixture(t)
	p := pattern.IsCall("m", f.ops.Math.Mul, pattern.Wildcard("x"), pattern.IsConst("c", nil))
	b, ok := pattern.Match(p, f.mul)
	if !ok {
		t.Fatalf("%s does not match %s", p, f.mul)
	}
	if got := b.Call("m"); got != f.mul {
		t.Errorf("got call %v but want %v", got, f.mul)
	}
	if got := b.Constant("c"); got != f.one {
		t.Errorf("got constant %v but want %v", got, f.one)
	}
	if got := b.Call("x"); got != nil {
		t.Errorf("got call %v bound to a placeholder", got)
	}
}

func TestString(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		p    pattern.Pattern
		want string
	}{
		{
			p:    pattern.IsCall("m", f.ops.Math.Mul, pattern.Wildcard("x"), pattern.IsConst("", nil)),
			want: fmt.Sprintf("m@%s(x, const)", f.ops.Math.Mul),
		},
		{
			p:    pattern.WithType(pattern.Wildcard(""), irrule.IsFloat()),
			want: "_ : floating-point tensor",
		},
		{
			p:    pattern.Or(pattern.IsPlaceholder("p"), pattern.IsOp("", f.ops.Math.Neg)),
			want: fmt.Sprintf("(p@placeholder | %s(...))", f.ops.Math.Neg),
		},
	}
	for i, test := range tests {
		if got := test.p.String(); got != test.want {
			t.Errorf("test %d: got %q but want %q", i, got, test.want)
		}
	}
}
