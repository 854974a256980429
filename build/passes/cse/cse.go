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

// Package cse merges expressions computing the same value.
//
// Two calls are merged if they apply equal operator nodes to the same
// operands. Two constants are merged if they have the same type and the
// same elements, compared bit for bit. Tuples and tuple elements are merged likewise.
// Placeholders are never merged.
package cse

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/passes"
	"github.com/gx-org/nnir/internal/ctxlog"
)

// Result of the elimination.
type Result struct {
	// Merged is the number of expressions replaced by an equivalent one.
	Merged int
	// Pruned lists the expressions removed from the module.
	Pruned []ir.ID
}

type eliminator struct {
	canon  map[string]ir.Expr
	consts map[string][]*ir.Constant
}

func operandKey(e ir.Expr) string {
	ids := e.OperandIDs()
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	return strings.Join(s, ",")
}

// key returns the key under which an expression is deduplicated
// or false if the expression is never merged.
func key(e ir.Expr) (string, bool) {
	switch eT := e.(type) {
	case *ir.Call:
		return "call:" + eT.Op().Key() + "(" + operandKey(e) + ")", true
	case *ir.Tuple:
		return "tuple(" + operandKey(e) + ")", true
	case *ir.GetItem:
		return fmt.Sprintf("getitem:%s[%d]", eT.Tuple().ID(), eT.Index()), true
	}
	return "", false
}

// equivalent returns an expression computing the same value as e
// or nil if e is the first of its kind.
func (el *eliminator) equivalent(e ir.Expr) ir.Expr {
	if c, ok := e.(*ir.Constant); ok {
		return el.constant(c)
	}
	k, ok := key(e)
	if !ok {
		return nil
	}
	if prev, ok := el.canon[k]; ok {
		return prev
	}
	el.canon[k] = e
	return nil
}

func (el *eliminator) constant(c *ir.Constant) ir.Expr {
	typ := c.TensorType().String()
	for _, prev := range el.consts[typ] {
		if sameElements(prev.Value(), c.Value()) {
			return prev
		}
	}
	el.consts[typ] = append(el.consts[typ], c)
	return nil
}

func sameBits[T any, B comparable](a []T, b any, bits func(T) B) bool {
	bT, ok := b.([]T)
	if !ok {
		return false
	}
	return slices.EqualFunc(a, bT, func(x, y T) bool { return bits(x) == bits(y) })
}

func identity[T comparable](x T) T { return x }

// sameElements compares the elements of two constants bit for bit:
// +0 and -0 differ and a NaN equals a NaN with the same payload.
// Constants of other element types, such as bfloat16, are never merged.
func sameElements(a, b any) bool {
	switch aT := a.(type) {
	case []float32:
		return sameBits(aT, b, math.Float32bits)
	case []float64:
		return sameBits(aT, b, math.Float64bits)
	case []bool:
		return sameBits(aT, b, identity[bool])
	case []int32:
		return sameBits(aT, b, identity[int32])
	case []int64:
		return sameBits(aT, b, identity[int64])
	case []uint32:
		return sameBits(aT, b, identity[uint32])
	case []uint64:
		return sameBits(aT, b, identity[uint64])
	}
	return false
}

// Run the elimination on a graph.
// Expressions are visited in topological order so that the operands of an
// expression have already been merged when the expression is visited.
// Expressions no longer referenced are pruned.
func Run(ctx context.Context, g *ir.Graph) (*Result, error) {
	order, err := g.TopoOrder()
	if err != nil {
		return nil, err
	}
	el := &eliminator{
		canon:  make(map[string]ir.Expr),
		consts: make(map[string][]*ir.Constant),
	}
	tx := g.Begin()
	for _, e := range order {
		if err := ctx.Err(); err != nil {
			tx.Rollback()
			return nil, err
		}
		prev := el.equivalent(e)
		if prev == nil {
			continue
		}
		if err := tx.ReplaceAllUses(e, prev); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	res := &Result{Merged: tx.Len()}
	tx.Commit()
	if res.Merged == 0 {
		return res, nil
	}
	if res.Pruned, err = g.PruneDead(); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).DebugContext(ctx, "common subexpressions eliminated", "merged", res.Merged, "pruned", len(res.Pruned))
	return res, nil
}

// Pass returns the elimination as a pass.
func Pass() passes.Pass {
	return passes.Func{
		PassName: "cse",
		F: func(ctx context.Context, g *ir.Graph) (bool, error) {
			res, err := Run(ctx, g)
			if err != nil {
				return false, err
			}
			return res.Merged > 0, nil
		},
	}
}
