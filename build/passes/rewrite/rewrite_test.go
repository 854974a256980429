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

package rewrite_test

import (
	"context"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/irerr"
	"github.com/gx-org/nnir/build/passes"
	"github.com/gx-org/nnir/build/passes/rewrite"
	"github.com/gx-org/nnir/build/pattern"
	"github.com/gx-org/nnir/stdlib"
	"github.com/pkg/errors"
)

type builder struct {
	t   *testing.T
	reg *ir.Registry
	ops *stdlib.Opcodes
	m   *ir.Module
}

func newBuilder(t *testing.T) *builder {
	t.Helper()
	reg := ir.NewRegistry()
	ops, err := stdlib.Register(reg)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return &builder{t: t, reg: reg, ops: ops, m: ir.NewModule(reg)}
}

func (b *builder) call(op ir.Opcode, operands ...ir.Expr) *ir.Call {
	b.t.Helper()
	c, err := b.m.Call(b.reg.MustOpNode(op, nil), operands...)
	if err != nil {
		b.t.Fatalf("%+v", err)
	}
	return c
}

func (b *builder) scalar(v float32) *ir.Constant {
	b.t.Helper()
	c, err := ir.NewScalar(b.m, v)
	if err != nil {
		b.t.Fatalf("%+v", err)
	}
	return c
}

func (b *builder) graph(outputs ...ir.Expr) *ir.Graph {
	b.t.Helper()
	g, err := b.m.NewGraph(outputs...)
	if err != nil {
		b.t.Fatalf("%+v", err)
	}
	return g
}

func ids(exprs ...ir.Expr) []ir.ID {
	var r []ir.ID
	for _, e := range exprs {
		r = append(r, e.ID())
	}
	slices.Sort(r)
	return r
}

func TestAlgebraic(t *testing.T) {
	b := newBuilder(t)
	x := b.m.Placeholder("x", ir.Tensor(dtype.Float32, 4))
	one, zero := b.scalar(1), b.scalar(0)
	mul := b.call(b.ops.Math.Mul, x, one)
	add := b.call(b.ops.Math.Add, zero, mul)
	neg1 := b.call(b.ops.Math.Neg, add)
	neg2 := b.call(b.ops.Math.Neg, neg1)
	out := b.call(b.ops.NN.Sigmoid, neg2)
	g := b.graph(out)
	res, err := rewrite.Run(context.Background(), g, rewrite.Algebraic(b.ops.Math))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	want := &rewrite.Result{
		Iterations: 2,
		Rewrites:   3,
		Pruned:     ids(one, zero, mul, add, neg1, neg2),
		Converged:  true,
	}
	slices.Sort(res.Pruned)
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("incorrect result:\n%s", diff)
	}
	if diff := cmp.Diff(ids(x), out.OperandIDs()); diff != "" {
		t.Errorf("incorrect operands of %s:\n%s", out.ID(), diff)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("invalid graph: %+v", err)
	}
}

func TestKeepBroadcasts(t *testing.T) {
	b := newBuilder(t)
	x := b.m.Placeholder("x", ir.Scalar(dtype.Float32))
	ones, err := ir.NewConstant(b.m, []float32{1, 1, 1})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	mul := b.call(b.ops.Math.Mul, x, ones)
	g := b.graph(mul)
	res, err := rewrite.Run(context.Background(), g, rewrite.Algebraic(b.ops.Math))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if res.Rewrites != 0 || !res.Converged || res.Iterations != 1 {
		t.Errorf("incorrect result: %+v", res)
	}
	if !mul.Live() {
		t.Errorf("%s has been removed", mul)
	}
}

// rebuild replaces a call by a new identical call.
func rebuild(m *ir.Module, _ pattern.Bindings, root ir.Expr) (ir.Expr, error) {
	call := root.(*ir.Call)
	return m.Call(call.Op(), call.Operands()...)
}

func TestMaxIterations(t *testing.T) {
	b := newBuilder(t)
	x := b.m.Placeholder("x", ir.Tensor(dtype.Float32, 2))
	g := b.graph(b.call(b.ops.NN.Relu, x))
	rules := []rewrite.Rule{{
		Name:    "rebuild",
		Pattern: pattern.IsOp("", b.ops.NN.Relu),
		Build:   rebuild,
	}}
	res, err := rewrite.Run(context.Background(), g, rules, rewrite.WithMaxIterations(3))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if res.Iterations != 3 || res.Rewrites != 3 || res.Converged {
		t.Errorf("incorrect result: %+v", res)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("invalid graph: %+v", err)
	}
}

func TestRollbackOnError(t *testing.T) {
	b := newBuilder(t)
	x := b.m.Placeholder("x", ir.Tensor(dtype.Float32, 2))
	neg1 := b.call(b.ops.Math.Neg, x)
	neg2 := b.call(b.ops.Math.Neg, neg1)
	out := b.call(b.ops.Math.Exp, neg2)
	g := b.graph(out)
	errBroken := errors.New("broken")
	rules := append(rewrite.Algebraic(b.ops.Math), rewrite.Rule{
		Name:    "broken",
		Pattern: pattern.IsOp("", b.ops.Math.Exp),
		Build: func(*ir.Module, pattern.Bindings, ir.Expr) (ir.Expr, error) {
			return nil, errBroken
		},
	})
	_, err := rewrite.Run(context.Background(), g, rules)
	if !errors.Is(err, errBroken) {
		t.Fatalf("got error %v but want %v", err, errBroken)
	}
	if got, want := err.Error(), "rule broken: broken"; got != want {
		t.Errorf("incorrect error message: got %q but want %q", got, want)
	}
	// The double negation replaced before the error has been restored.
	if diff := cmp.Diff(ids(neg2), out.OperandIDs()); diff != "" {
		t.Errorf("incorrect operands of %s:\n%s", out.ID(), diff)
	}
	if !neg1.Live() || !neg2.Live() {
		t.Errorf("negations removed after the error")
	}
}

func TestCycle(t *testing.T) {
	b := newBuilder(t)
	x := b.m.Placeholder("x", ir.Tensor(dtype.Float32, 2))
	sig := b.call(b.ops.NN.Sigmoid, x)
	g := b.graph(sig)
	rules := []rewrite.Rule{{
		Name:    "wrap",
		Pattern: pattern.IsOp("", b.ops.NN.Sigmoid),
		Build: func(m *ir.Module, _ pattern.Bindings, root ir.Expr) (ir.Expr, error) {
			return m.Call(b.reg.MustOpNode(b.ops.Math.Exp, nil), root)
		},
	}}
	_, err := rewrite.Run(context.Background(), g, rules)
	if !errors.Is(err, irerr.WouldCreateCycle) {
		t.Fatalf("got error %v but want %v", err, irerr.WouldCreateCycle)
	}
	if diff := cmp.Diff(ids(sig), g.OutputIDs()); diff != "" {
		t.Errorf("incorrect outputs:\n%s", diff)
	}
}

func TestPass(t *testing.T) {
	b := newBuilder(t)
	x := b.m.Placeholder("x", ir.Tensor(dtype.Float32, 2))
	g := b.graph(b.call(b.ops.Math.Div, x, b.scalar(1)))
	mgr := passes.NewManager([]passes.Pass{
		rewrite.Pass("algebraic", rewrite.Algebraic(b.ops.Math)),
	}, passes.WithVerify(true))
	stats, err := mgr.Run(context.Background(), g)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(stats) != 1 || !stats[0].Changed {
		t.Errorf("incorrect stats: %+v", stats)
	}
	if diff := cmp.Diff(ids(x), g.OutputIDs()); diff != "" {
		t.Errorf("incorrect outputs:\n%s", diff)
	}
}
