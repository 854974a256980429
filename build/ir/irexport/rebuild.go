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

package irexport

import (
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/irerr"
	"github.com/pkg/errors"
)

type rebuilder struct {
	mod   *ir.Module
	exprs map[ir.ID]ir.Expr
}

func (rb *rebuilder) operands(r Record) ([]ir.Expr, error) {
	ops := make([]ir.Expr, len(r.Operands))
	for i, id := range r.Operands {
		e, ok := rb.exprs[id]
		if !ok {
			return nil, errors.Errorf("record %s references %s before its definition", r.ID, id)
		}
		ops[i] = e
	}
	return ops, nil
}

func (rb *rebuilder) call(r Record, ops []ir.Expr) (ir.Expr, error) {
	reg := rb.mod.Registry()
	op, ok := reg.ByName(r.Opcode)
	if !ok {
		return nil, irerr.Errorf(irerr.UnknownOpcode, "opcode %q not registered", r.Opcode).WithOpcode(r.Opcode)
	}
	node, err := reg.MakeOpNode(op, r.Attrs)
	if err != nil {
		return nil, err
	}
	return rb.mod.Call(node, ops...)
}

func (rb *rebuilder) build(r Record) (ir.Expr, error) {
	ops, err := rb.operands(r)
	if err != nil {
		return nil, err
	}
	switch r.Kind {
	case ir.CallExpr:
		return rb.call(r, ops)
	case ir.PlaceholderExpr:
		return rb.mod.Placeholder(r.Name, r.Type), nil
	case ir.ConstantExpr:
		tensor, ok := r.Type.(*ir.TensorType)
		if !ok {
			return nil, irerr.Errorf(irerr.TypeMismatch, "constant %s has type %s", r.ID, ir.TypeString(r.Type))
		}
		return rb.mod.Constant(tensor, r.Value)
	case ir.TupleExpr:
		return rb.mod.Tuple(ops...)
	case ir.GetItemExpr:
		if len(ops) != 1 {
			return nil, errors.Errorf("record %s extracts a field from %d operands", r.ID, len(ops))
		}
		return rb.mod.GetItem(ops[0], r.Index)
	}
	return nil, errors.Errorf("record %s has an unknown kind %s", r.ID, r.Kind)
}

// Rebuild builds a new graph in a new module from an exported program.
// Types are recomputed and checked against the types of the records.
// Returns the new graph and the expressions of the new module keyed by
// the identities of the records.
func Rebuild(reg *ir.Registry, prog *Program) (*ir.Graph, map[ir.ID]ir.Expr, error) {
	if err := CheckVersion(prog.Version); err != nil {
		return nil, nil, err
	}
	rb := &rebuilder{
		mod:   ir.NewModule(reg),
		exprs: make(map[ir.ID]ir.Expr, len(prog.Records)),
	}
	for _, r := range prog.Records {
		if _, dup := rb.exprs[r.ID]; dup {
			return nil, nil, errors.Errorf("record %s defined twice", r.ID)
		}
		e, err := rb.build(r)
		if err != nil {
			return nil, nil, err
		}
		if r.Type != nil && !ir.TypesEqual(e.Type(), r.Type) {
			return nil, nil, irerr.Errorf(irerr.TypeMismatch, "rebuilt expression of record %s", r.ID).
				WithTypes(r.Type.String(), ir.TypeString(e.Type()))
		}
		rb.exprs[r.ID] = e
	}
	outs := make([]ir.Expr, len(prog.Outputs))
	for i, id := range prog.Outputs {
		e, ok := rb.exprs[id]
		if !ok {
			return nil, nil, errors.Errorf("output %d references %s which is not defined", i, id)
		}
		outs[i] = e
	}
	g, err := rb.mod.NewGraph(outs...)
	if err != nil {
		return nil, nil, err
	}
	return g, rb.exprs, nil
}
