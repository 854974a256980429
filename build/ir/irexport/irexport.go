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

// Package irexport walks a graph to export it to code generators
// and serializers.
//
// The export only uses the read-only API of the IR. A graph can be rebuilt
// from its export with the construction API only.
package irexport

import (
	"github.com/gx-org/nnir/build/ir"
	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// Version of the export format.
// Consumers accept programs with the same major version.
const Version = "v1.0.0"

type (
	// Record is the export of one expression.
	Record struct {
		ID   ir.ID
		Kind ir.ExprKind
		// Opcode is the name of the opcode of a call.
		Opcode string
		// Attrs are the attributes of the operator of a call.
		Attrs ir.Attrs
		// Operands are the identities of the operands, in order.
		Operands []ir.ID
		// Type is the committed type of the expression or nil if unknown.
		Type ir.Type
		// Name of a placeholder.
		Name string
		// Index of a field extracted from a tuple.
		Index int
		// Value of a constant.
		Value any
	}

	// Program is the export of a graph.
	Program struct {
		Version string
		// Records in topological order.
		Records []Record
		Outputs []ir.ID
	}
)

// CheckVersion returns an error if programs of a given version cannot be read.
func CheckVersion(v string) error {
	if !semver.IsValid(v) {
		return errors.Errorf("invalid export version %q", v)
	}
	if semver.Major(v) != semver.Major(Version) {
		return errors.Errorf("export version %s not supported: want %s.x", v, semver.Major(Version))
	}
	return nil
}

func record(e ir.Expr) (Record, error) {
	r := Record{
		ID:       e.ID(),
		Kind:     e.Kind(),
		Operands: e.OperandIDs(),
		Type:     e.Type(),
	}
	switch eT := e.(type) {
	case *ir.Call:
		r.Opcode = eT.Op().Name()
		r.Attrs = make(ir.Attrs)
		for name, attr := range eT.Op().Attrs() {
			r.Attrs[name] = attr
		}
	case *ir.Placeholder:
		r.Name = eT.Name()
	case *ir.Constant:
		r.Value = eT.Value()
	case *ir.GetItem:
		r.Index = eT.Index()
	case *ir.Tuple:
	default:
		return Record{}, errors.Errorf("expression %s of type %T not supported", e.ID(), e)
	}
	return r, nil
}

// Walk calls a function for each expression of a graph in topological order.
// The walk stops at the first error returned by the function.
func Walk(g *ir.Graph, f func(Record) error) error {
	order, err := g.TopoOrder()
	if err != nil {
		return err
	}
	for _, e := range order {
		r, err := record(e)
		if err != nil {
			return err
		}
		if err := f(r); err != nil {
			return err
		}
	}
	return nil
}

// Export a graph.
func Export(g *ir.Graph) (*Program, error) {
	prog := &Program{
		Version: Version,
		Outputs: g.OutputIDs(),
	}
	if err := Walk(g, func(r Record) error {
		prog.Records = append(prog.Records, r)
		return nil
	}); err != nil {
		return nil, err
	}
	return prog, nil
}
