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
	"github.com/gx-org/nnir/build/irerr"
)

type (
	outputRef struct {
		g     *Graph
		index int
	}

	// replaceStep records a replacement so that it can be undone.
	replaceStep struct {
		old, new *exprBase
		moved    []Use
		outputs  []outputRef
		types    map[ID]Type
	}

	// Tx is a sequence of rewrites of a graph applied immediately
	// but that can be rolled back as a whole.
	//
	// Expressions must not be pruned while a transaction is in progress.
	Tx struct {
		g     *Graph
		steps []*replaceStep
		done  bool
	}
)

// Begin starts a new transaction on the graph.
func (g *Graph) Begin() *Tx {
	return &Tx{g: g}
}

// ReplaceAllUses replaces every reference to old by new: the operands of
// the users of old and the outputs of the graphs of the module.
// Afterward, old has no use left.
//
// The types of the users of old, and of their users, are recomputed.
// If the replacement would create a cycle or if a recomputed type does not
// satisfy a type rule, an error is returned and the graph is left unchanged.
func (g *Graph) ReplaceAllUses(old, new Expr) error {
	tx := g.Begin()
	if err := tx.ReplaceAllUses(old, new); err != nil {
		tx.Rollback()
		return err
	}
	tx.Commit()
	return nil
}

// ReplaceAllUses replaces every reference to old by new.
// See Graph.ReplaceAllUses. A failing replacement leaves the graph as it was
// before the call: earlier replacements of the transaction are kept until
// Rollback is called.
func (tx *Tx) ReplaceAllUses(old, new Expr) error {
	if tx.done {
		return irerr.Internalf("transaction already committed or rolled back")
	}
	step, err := tx.g.replace(old, new)
	if err != nil {
		return err
	}
	if step != nil {
		tx.steps = append(tx.steps, step)
	}
	return nil
}

// Len returns the number of replacements applied by the transaction.
func (tx *Tx) Len() int {
	return len(tx.steps)
}

// Commit the transaction.
func (tx *Tx) Commit() {
	tx.done = true
	tx.steps = nil
}

// Rollback undoes all the replacements of the transaction.
// Expressions built during the transaction are left in the module,
// unreachable from the outputs.
func (tx *Tx) Rollback() {
	if tx.done {
		return
	}
	for i := len(tx.steps) - 1; i >= 0; i-- {
		tx.steps[i].undo(tx.g.mod)
	}
	tx.done = true
	tx.steps = nil
}

func (s *replaceStep) undo(m *Module) {
	for id, typ := range s.types {
		m.exprs[id].base().typ = typ
	}
	for _, out := range s.outputs {
		out.g.outputs[out.index] = s.old.id
	}
	for _, use := range s.moved {
		m.exprs[use.User].base().ops[use.Index] = s.old.id
		s.new.uses.Remove(use)
		s.old.uses.Add(use)
	}
}

func wouldCreateCycle(old, new, consumer ID) error {
	return irerr.Errorf(irerr.WouldCreateCycle, "cannot replace %s by %s: %s depends on %s which uses %s", old, new, new, consumer, old).
		WithExpr(uint64(new))
}

func (g *Graph) replace(old, new Expr) (*replaceStep, error) {
	m := g.mod
	oldID, err := m.checkOperand(old)
	if err != nil {
		return nil, err
	}
	newID, err := m.checkOperand(new)
	if err != nil {
		return nil, err
	}
	if oldID == newID {
		return nil, nil
	}
	oldB, newB := old.base(), new.base()
	moved := oldB.uses.Slice()
	consumers := make(map[ID]bool, len(moved))
	for _, use := range moved {
		consumers[use.User] = true
	}
	deps := m.reach([]ID{newID})
	for _, use := range moved {
		if deps[use.User] {
			return nil, wouldCreateCycle(oldID, newID, use.User)
		}
	}
	types, err := m.retype(consumers, moved, newB.typ)
	if err != nil {
		return nil, err
	}
	// Checks are done: commit the replacement.
	step := &replaceStep{old: oldB, new: newB, moved: moved, types: make(map[ID]Type)}
	for _, use := range moved {
		m.exprs[use.User].base().ops[use.Index] = newID
		newB.uses.Add(use)
	}
	oldB.uses.Clear()
	for _, other := range m.graphs {
		for i, out := range other.outputs {
			if out == oldID {
				other.outputs[i] = newID
				step.outputs = append(step.outputs, outputRef{g: other, index: i})
			}
		}
	}
	for id, typ := range types {
		b := m.exprs[id].base()
		if TypesEqual(b.typ, typ) {
			continue
		}
		step.types[id] = b.typ
		b.typ = typ
	}
	return step, nil
}

// retype computes the types of the consumers of a replaced value and of all
// their transitive users. Nothing is modified.
func (m *Module) retype(consumers map[ID]bool, moved []Use, newType Type) (map[ID]Type, error) {
	movedSlots := make(map[Use]bool, len(moved))
	for _, use := range moved {
		movedSlots[use] = true
	}
	affected := make(map[ID]bool)
	var stack []ID
	for id := range consumers {
		stack = append(stack, id)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if affected[id] {
			continue
		}
		affected[id] = true
		for use := range m.exprs[id].base().uses.All() {
			stack = append(stack, use.User)
		}
	}
	order, err := m.sortTopo(affected, currentOperands)
	if err != nil {
		return nil, err
	}
	staged := make(map[ID]Type, len(order))
	for _, e := range order {
		b := e.base()
		types := make([]Type, len(b.ops))
		known := true
		for i, op := range b.ops {
			switch {
			case movedSlots[Use{User: b.id, Index: i}]:
				types[i] = newType
			case affected[op]:
				types[i] = staged[op]
			default:
				types[i] = m.exprs[op].Type()
			}
			if types[i] == nil {
				known = false
			}
		}
		if !known {
			staged[b.id] = nil
			continue
		}
		typ, err := InferType(e, types)
		if err != nil {
			return nil, err
		}
		staged[b.id] = typ
	}
	return staged, nil
}
