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

package ir

import (
	"slices"

	"github.com/gx-org/nnir/base/ordered"
	"github.com/gx-org/nnir/build/irerr"
)

// Graph is a sequence of output expressions and all the expressions
// they depend on.
type Graph struct {
	mod     *Module
	outputs []ID
}

// NewGraph returns a new graph given its outputs.
// The module keeps the graph until it is released: its outputs are roots
// for PruneDead and ReplaceAllUses of every graph of the module.
func (m *Module) NewGraph(outputs ...Expr) (*Graph, error) {
	ids, err := m.checkOperands(outputs)
	if err != nil {
		return nil, err
	}
	g := &Graph{mod: m, outputs: ids}
	if err := g.CheckAcyclic(); err != nil {
		return nil, err
	}
	m.graphs = append(m.graphs, g)
	return g, nil
}

// Release removes the graph from its module. The expressions only reachable
// from its outputs can then be pruned. The graph has no output afterwards.
func (g *Graph) Release() {
	g.mod.graphs = slices.DeleteFunc(g.mod.graphs, func(other *Graph) bool { return other == g })
	g.outputs = nil
}

// Module returns the module owning the expressions of the graph.
func (g *Graph) Module() *Module { return g.mod }

// Outputs returns the outputs of the graph.
func (g *Graph) Outputs() []Expr {
	outs := make([]Expr, len(g.outputs))
	for i, id := range g.outputs {
		outs[i] = g.mod.exprs[id]
	}
	return outs
}

// OutputIDs returns the identities of the outputs of the graph.
func (g *Graph) OutputIDs() []ID {
	return slices.Clone(g.outputs)
}

// Contains returns true if the expression is reachable from the outputs.
func (g *Graph) Contains(e Expr) bool {
	if e == nil || e.Module() != g.mod || !e.Live() {
		return false
	}
	return g.reach()[e.ID()]
}

// Len returns the number of expressions reachable from the outputs.
func (g *Graph) Len() int {
	return len(g.reach())
}

// reach returns the set of expressions reachable from roots.
func (m *Module) reach(roots []ID) map[ID]bool {
	seen := make(map[ID]bool)
	stack := slices.Clone(roots)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		e, ok := m.exprs[id]
		if !ok {
			continue
		}
		seen[id] = true
		stack = append(stack, e.base().ops...)
	}
	return seen
}

func (g *Graph) reach() map[ID]bool {
	return g.mod.reach(g.outputs)
}

// sortTopo sorts a set of expressions such that operands come before their users.
// Only edges between expressions of the set are considered.
// Among expressions ready to be emitted, the one with the smallest identity comes first.
func (m *Module) sortTopo(set map[ID]bool, operands func(*exprBase) []ID) ([]Expr, error) {
	pending := make(map[ID]int, len(set))
	users := make(map[ID][]ID, len(set))
	var ready ordered.Heap[ID]
	for id := range set {
		for _, op := range operands(m.exprs[id].base()) {
			if !set[op] {
				continue
			}
			pending[id]++
			users[op] = append(users[op], id)
		}
		if pending[id] == 0 {
			ready.Push(id)
		}
	}
	order := make([]Expr, 0, len(set))
	for ready.Len() > 0 {
		id := ready.Pop()
		order = append(order, m.exprs[id])
		for _, user := range users[id] {
			pending[user]--
			if pending[user] == 0 {
				ready.Push(user)
			}
		}
	}
	if len(order) != len(set) {
		for id := range set {
			if pending[id] > 0 {
				return nil, irerr.Internal(irerr.Errorf(irerr.CycleDetected, "%s is part of a cycle", id).WithExpr(uint64(id)))
			}
		}
	}
	return order, nil
}

func currentOperands(b *exprBase) []ID {
	return b.ops
}

// TopoOrder returns all the expressions of the graph such that every operand
// comes before its users. The order is deterministic: among independent
// expressions, the one created first comes first.
func (g *Graph) TopoOrder() ([]Expr, error) {
	return g.mod.sortTopo(g.reach(), currentOperands)
}

const (
	white = iota
	grey
	black
)

// CheckAcyclic returns a CycleDetected internal error if the graph contains a cycle.
// A cycle cannot be built with the API of this package: a cycle is always a bug.
func (g *Graph) CheckAcyclic() error {
	colour := make(map[ID]int)
	var visit func(id ID) error
	visit = func(id ID) error {
		switch colour[id] {
		case grey:
			return irerr.Internal(irerr.Errorf(irerr.CycleDetected, "%s depends on itself", id).WithExpr(uint64(id)))
		case black:
			return nil
		}
		e, ok := g.mod.exprs[id]
		if !ok {
			return irerr.Internalf("dangling reference to %s", id)
		}
		colour[id] = grey
		for _, op := range e.base().ops {
			if err := visit(op); err != nil {
				return err
			}
		}
		colour[id] = black
		return nil
	}
	for _, out := range g.outputs {
		if err := visit(out); err != nil {
			return err
		}
	}
	return nil
}

// IsAcyclic returns true if the graph has no cycle.
func (g *Graph) IsAcyclic() bool {
	return g.CheckAcyclic() == nil
}

// Validate checks the structural invariants of the graph and of its module
// and returns all the violations found.
func (g *Graph) Validate() error {
	var app irerr.Appender
	if err := g.CheckAcyclic(); err != nil {
		app.Append(err)
	}
	for i, out := range g.outputs {
		if _, ok := g.mod.exprs[out]; !ok {
			app.AppendInternalf("output %d references %s which is not in the module", i, out)
		}
	}
	for _, id := range g.mod.IDs() {
		g.mod.validateExpr(&app, g.mod.exprs[id])
	}
	return app.ToError()
}

func (m *Module) validateExpr(app *irerr.Appender, e Expr) {
	b := e.base()
	app.Push(irerr.PrefixWith("%s: ", b.id))
	defer app.Pop()
	if b.dead {
		app.AppendInternalf("removed expression still in module")
	}
	for i, op := range b.ops {
		opExpr, ok := m.exprs[op]
		if !ok {
			app.AppendInternalf("operand %d references %s which is not in the module", i, op)
			continue
		}
		if !opExpr.base().uses.Has(Use{User: b.id, Index: i}) {
			app.AppendInternalf("operand %s does not record its use at index %d", op, i)
		}
	}
	for use := range b.uses.All() {
		user, ok := m.exprs[use.User]
		if !ok {
			app.AppendInternalf("use by %s which is not in the module", use.User)
			continue
		}
		ops := user.base().ops
		if use.Index < 0 || use.Index >= len(ops) || ops[use.Index] != b.id {
			app.AppendInternalf("use %v does not match the operands of %s", use, use.User)
		}
	}
}

// PruneDead removes from the module all the expressions unreachable from
// the outputs of the graphs of the module. Users are removed before their
// operands. Returns the identities of the removed expressions in the order
// in which they have been removed.
func (g *Graph) PruneDead() ([]ID, error) {
	m := g.mod
	var roots []ID
	for _, other := range m.graphs {
		roots = append(roots, other.outputs...)
	}
	live := m.reach(roots)
	dead := make(map[ID]bool)
	for id := range m.exprs {
		if !live[id] {
			dead[id] = true
		}
	}
	order, err := m.sortTopo(dead, currentOperands)
	if err != nil {
		return nil, err
	}
	removed := make([]ID, 0, len(order))
	for _, e := range slices.Backward(order) {
		b := e.base()
		for i, op := range b.ops {
			if opExpr, ok := m.exprs[op]; ok {
				opExpr.base().uses.Remove(Use{User: b.id, Index: i})
			}
		}
		b.dead = true
		b.uses.Clear()
		delete(m.exprs, b.id)
		removed = append(removed, b.id)
	}
	return removed, nil
}
