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

// Package stdlib provides the standard set of opcodes.
package stdlib

import (
	"maps"
	"slices"
	"sync"

	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/stdlib/builtin"
	"github.com/gx-org/nnir/stdlib/math"
	"github.com/gx-org/nnir/stdlib/nn"
	"github.com/gx-org/nnir/stdlib/num"
	"github.com/gx-org/nnir/stdlib/shapes"
	"github.com/pkg/errors"
)

var packages = []builtin.Package{
	math.Package,
	nn.Package,
	num.Package,
	shapes.Package,
}

// Opcodes of the standard library issued by a registry.
type Opcodes struct {
	Math   *math.Opcodes
	NN     *nn.Opcodes
	Num    *num.Opcodes
	Shapes *shapes.Opcodes
}

// Register all the opcodes of the standard library in a registry.
// Registering the standard library twice in the same registry returns
// the same opcodes.
func Register(reg *ir.Registry) (*Opcodes, error) {
	var ops Opcodes
	var err error
	if ops.Math, err = math.Register(reg); err != nil {
		return nil, err
	}
	if ops.NN, err = nn.Register(reg); err != nil {
		return nil, err
	}
	if ops.Num, err = num.Register(reg); err != nil {
		return nil, err
	}
	if ops.Shapes, err = shapes.Register(reg); err != nil {
		return nil, err
	}
	return &ops, nil
}

var defaultOpcodes = sync.OnceValues(func() (*Opcodes, error) {
	return Register(ir.DefaultRegistry())
})

// Default returns the opcodes of the standard library registered in the
// default registry. The standard library is registered on the first call.
func Default() *Opcodes {
	ops, err := defaultOpcodes()
	if err != nil {
		panic(errors.Wrap(err, "cannot register the standard library"))
	}
	return ops
}

// Paths returns the paths of the packages of the standard library,
// alphabetically ordered.
func Paths() []string {
	libs := make(map[string]bool)
	for _, pkg := range packages {
		libs[pkg.FullPath] = true
	}
	return slices.Sorted(maps.Keys(libs))
}

// Package returns the description of a package given its path.
func Package(path string) (builtin.Package, error) {
	for _, pkg := range packages {
		if pkg.FullPath == path {
			return pkg, nil
		}
	}
	return builtin.Package{}, errors.Errorf("package %s is not in the standard library", path)
}
