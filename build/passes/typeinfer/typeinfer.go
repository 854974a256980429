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

// Package typeinfer computes the types of the expressions of a graph
// that are not known yet.
package typeinfer

import (
	"context"
	"sync"

	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/irerr"
	"github.com/gx-org/nnir/build/passes"
	"github.com/gx-org/nnir/internal/ctxlog"
	"go.uber.org/multierr"
)

type (
	// Option configures the type inference.
	Option func(*config)

	config struct {
		workers int
	}

	// Result of a type inference.
	Result struct {
		// Inferred is the number of expressions for which a type has been committed.
		Inferred int
		// Revalidated is the number of expressions with a committed type
		// that have been checked again.
		Revalidated int
		// Unresolved is the number of expressions which type is still unknown,
		// because they depend on a placeholder of unknown type.
		Unresolved int
	}
)

// WithWorkers sets the number of goroutines checking committed types.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = max(n, 1)
	}
}

type checked struct {
	pos int
	e   ir.Expr
}

// inferrer holds the state of one run.
// Staged types are only visible to the inferrer until they are committed.
type inferrer struct {
	staged map[ir.ID]ir.Type
}

func (inf *inferrer) typeOf(e ir.Expr) ir.Type {
	if typ := e.Type(); typ != nil {
		return typ
	}
	return inf.staged[e.ID()]
}

func (inf *inferrer) operandTypes(e ir.Expr) []ir.Type {
	ops := e.Operands()
	types := make([]ir.Type, len(ops))
	for i, op := range ops {
		if types[i] = inf.typeOf(op); types[i] == nil {
			return nil
		}
	}
	return types
}

// Run infers the types of all the expressions of a graph in topological order.
//
// The types are committed only if the whole graph is checked without error.
// Expressions with a type already committed are checked again: the inferred
// type has to be equal to the committed type. The first error in topological
// order is returned. Running the inference twice is a no-op the second time.
func Run(ctx context.Context, g *ir.Graph, opts ...Option) (*Result, error) {
	cfg := config{workers: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := ctxlog.FromContext(ctx)
	order, err := g.TopoOrder()
	if err != nil {
		return nil, err
	}
	inf := &inferrer{staged: make(map[ir.ID]ir.Type)}
	res := &Result{}
	var toCheck []checked
	firstErrPos := len(order)
	var firstErr error
	for pos, e := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(e.OperandIDs()) == 0 {
			if e.Type() == nil {
				res.Unresolved++
			}
			continue
		}
		if e.Type() != nil {
			toCheck = append(toCheck, checked{pos: pos, e: e})
			continue
		}
		types := inf.operandTypes(e)
		if types == nil {
			res.Unresolved++
			continue
		}
		typ, err := ir.InferType(e, types)
		if err != nil {
			firstErrPos, firstErr = pos, err
			break
		}
		inf.staged[e.ID()] = typ
	}
	res.Revalidated = len(toCheck)
	if pos, err := revalidate(ctx, toCheck, cfg.workers); err != nil && pos < firstErrPos {
		firstErr = err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := g.Module().CommitTypes(inf.staged); err != nil {
		return nil, err
	}
	res.Inferred = len(inf.staged)
	logger.DebugContext(ctx, "types inferred",
		"inferred", res.Inferred,
		"revalidated", res.Revalidated,
		"unresolved", res.Unresolved)
	return res, nil
}

func check(c checked) error {
	ops := c.e.Operands()
	types := make([]ir.Type, len(ops))
	for i, op := range ops {
		types[i] = op.Type()
	}
	for _, typ := range types {
		if typ == nil {
			return irerr.Internalf("expression %s has a committed type but operands of unknown type", c.e.ID())
		}
	}
	typ, err := ir.InferType(c.e, types)
	if err != nil {
		return err
	}
	if !typ.Equal(c.e.Type()) {
		mismatch := irerr.Errorf(irerr.TypeMismatch, "committed type differs from inferred type").
			WithExpr(uint64(c.e.ID())).
			WithTypes(typ.String(), c.e.Type().String())
		if call, ok := c.e.(*ir.Call); ok {
			mismatch = mismatch.WithOpcode(call.Op().Name())
		}
		return mismatch
	}
	return nil
}

// revalidate checks committed types with a pool of workers.
// The graph is not modified while the workers run.
// Returns the error of the expression coming first in topological order.
func revalidate(ctx context.Context, toCheck []checked, workers int) (int, error) {
	errs := make([]error, len(toCheck))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(workers, max(len(toCheck), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = check(toCheck[i])
			}
		}()
	}
	for i := range toCheck {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	all := multierr.Combine(errs...)
	if all == nil {
		return len(toCheck), nil
	}
	ctxlog.FromContext(ctx).DebugContext(ctx, "committed types do not check", "errors", len(multierr.Errors(all)))
	for i, err := range errs {
		if err != nil {
			return toCheck[i].pos, err
		}
	}
	return -1, all
}

// Pass returns the type inference as a pass.
// The pass never changes the structure of a graph.
func Pass(opts ...Option) passes.Pass {
	return passes.Func{
		PassName: "typeinfer",
		F: func(ctx context.Context, g *ir.Graph) (bool, error) {
			res, err := Run(ctx, g, opts...)
			if err != nil {
				return false, err
			}
			return res.Inferred > 0, nil
		},
	}
}
