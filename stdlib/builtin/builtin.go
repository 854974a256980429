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

// Package builtin defines how a standard library package declares its opcodes.
package builtin

import (
	"github.com/gx-org/nnir/base/ordered"
	"github.com/gx-org/nnir/build/ir"
	"go.uber.org/multierr"
)

type (
	// Package declares a set of opcodes registered together.
	Package struct {
		// FullPath is the path of the package in the standard library.
		FullPath string
		// Defs are the definitions of the opcodes of the package.
		Defs []ir.OpDef
	}

	// Opcodes maps the names of the opcodes of a package to the opcodes
	// issued by a registry, in the order of the definitions.
	Opcodes struct {
		byName *ordered.Map[string, ir.Opcode]
	}
)

// Build registers all the opcodes of a package in a registry.
// All definitions are registered even if some fail. The errors are
// returned combined.
func Build(reg *ir.Registry, pkg Package) (Opcodes, error) {
	ops := Opcodes{byName: ordered.NewMap[string, ir.Opcode]()}
	var errs error
	for _, def := range pkg.Defs {
		op, err := reg.Register(def)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		ops.byName.Store(def.Name, op)
	}
	if errs != nil {
		return Opcodes{}, errs
	}
	return ops, nil
}

// Get returns the opcode given its name or ir.InvalidOpcode.
func (ops Opcodes) Get(name string) ir.Opcode {
	if ops.byName == nil {
		return ir.InvalidOpcode
	}
	op, _ := ops.byName.Load(name)
	return op
}

// All iterates over the names and opcodes in the order of the definitions.
func (ops Opcodes) All() func(func(string, ir.Opcode) bool) {
	if ops.byName == nil {
		return func(func(string, ir.Opcode) bool) {}
	}
	return ops.byName.Iter()
}

// Len returns the number of opcodes.
func (ops Opcodes) Len() int {
	if ops.byName == nil {
		return 0
	}
	return ops.byName.Size()
}

// Names returns the names of the opcodes declared by the package.
func (pkg Package) Names() []string {
	names := make([]string, len(pkg.Defs))
	for i, def := range pkg.Defs {
		names[i] = def.Name
	}
	return names
}
