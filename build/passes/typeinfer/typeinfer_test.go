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

package typeinfer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/irerr"
	"github.com/gx-org/nnir/build/passes"
	"github.com/gx-org/nnir/build/passes/typeinfer"
	"github.com/gx-org/nnir/stdlib"
)

type fixture struct {
	reg  *ir.Registry
	ops  *stdlib.Opcodes
	m    *ir.Module
	x, y *ir.Placeholder
	a, b *ir.Call
	g    *ir.Graph
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{reg: ir.NewRegistry()}
	var err error
	if f.ops, err = stdlib.Register(f.reg); err != nil {
		t.Fatalf("%+v", err)
	}
	f.m = ir.NewModule(f.reg)
	f.x = f.m.Placeholder("x", nil)
	f.y = f.m.Placeholder("y", ir.Tensor(dtype.Float32, 4))
	f.a = f.m.MustCall(f.reg.MustOpNode(f.ops.NN.Sigmoid, nil), f.x)
	f.b = f.m.MustCall(f.reg.MustOpNode(f.ops.Math.Add, nil), f.a, f.y)
	if f.g, err = f.m.NewGraph(f.b); err != nil {
		t.Fatalf("%+v", err)
	}
	return f
}

func (f *fixture) setX(t *testing.T, typ ir.Type) {
	t.Helper()
	if err := f.m.CommitTypes(map[ir.ID]ir.Type{f.x.ID(): typ}); err != nil {
		t.Fatalf("%+v", err)
	}
}

func TestInfer(t *testing.T) {
	f := newFixture(t)
	f.setX(t, ir.Tensor(dtype.Float32, 4))
	res, err := typeinfer.Run(context.Background(), f.g)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if want := (typeinfer.Result{Inferred: 2}); *res != want {
		t.Errorf("incorrect result: got %+v but want %+v", *res, want)
	}
	want := ir.Tensor(dtype.Float32, 4)
	for _, e := range []ir.Expr{f.a, f.b} {
		if !ir.TypesEqual(e.Type(), want) {
			t.Errorf("%s: got type %s but want %s", e.ID(), ir.TypeString(e.Type()), want)
		}
	}
	// A second run re-validates without committing anything.
	res, err = typeinfer.Run(context.Background(), f.g, typeinfer.WithWorkers(3))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if want := (typeinfer.Result{Revalidated: 2}); *res != want {
		t.Errorf("incorrect result of the second run: got %+v but want %+v", *res, want)
	}
	for _, e := range []ir.Expr{f.a, f.b} {
		if !ir.TypesEqual(e.Type(), want) {
			t.Errorf("%s: type changed to %s after the second run", e.ID(), ir.TypeString(e.Type()))
		}
	}
}

func TestInferMismatch(t *testing.T) {
	f := newFixture(t)
	f.setX(t, ir.Tensor(dtype.Float32, 3))
	_, err := typeinfer.Run(context.Background(), f.g)
	var irErr *irerr.Error
	if !errors.As(err, &irErr) {
		t.Fatalf("got error %v but want a type mismatch", err)
	}
	if irErr.Kind != irerr.TypeMismatch || irErr.Expr != uint64(f.b.ID()) || irErr.Opcode != "add" {
		t.Errorf("error %v does not report a type mismatch in add at %s", err, f.b.ID())
	}
	if f.a.Type() != nil {
		t.Errorf("type %s of %s committed despite the error", f.a.Type(), f.a.ID())
	}
}

func TestInferUnresolved(t *testing.T) {
	f := newFixture(t)
	res, err := typeinfer.Run(context.Background(), f.g)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if want := (typeinfer.Result{Unresolved: 3}); *res != want {
		t.Errorf("incorrect result: got %+v but want %+v", *res, want)
	}
}

func TestInferCanceled(t *testing.T) {
	f := newFixture(t)
	f.setX(t, ir.Tensor(dtype.Float32, 4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := typeinfer.Run(ctx, f.g); !errors.Is(err, context.Canceled) {
		t.Errorf("got error %v but want %v", err, context.Canceled)
	}
	if f.a.Type() != nil {
		t.Errorf("type committed despite the cancellation")
	}
}

func TestPass(t *testing.T) {
	f := newFixture(t)
	f.setX(t, ir.Tensor(dtype.Float32, 4))
	mgr := passes.NewManager([]passes.Pass{typeinfer.Pass(), typeinfer.Pass()}, passes.WithVerify(true))
	stats, err := mgr.Run(context.Background(), f.g)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(stats) != 2 || !stats[0].Changed || stats[1].Changed {
		t.Errorf("incorrect stats: %+v", stats)
	}
}
