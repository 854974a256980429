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

// Package shapes declares operators changing the shape of tensors
// without changing their elements.
package shapes

import (
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/stdlib/builtin"
)

// Package description of the shapes package.
var Package = builtin.Package{
	FullPath: "shapes",
	Defs: []ir.OpDef{
		concatDef,
		unsqueezeDef,
		reshapeDef,
		transposeDef,
		broadcastDef,
	},
}

// Opcodes of the shapes package.
type Opcodes struct {
	Concat, Unsqueeze, Reshape ir.Opcode
	Transpose, Broadcast       ir.Opcode
}

// Register the opcodes of the package in a registry.
func Register(reg *ir.Registry) (*Opcodes, error) {
	ops, err := builtin.Build(reg, Package)
	if err != nil {
		return nil, err
	}
	return &Opcodes{
		Concat:    ops.Get("concat"),
		Unsqueeze: ops.Get("unsqueeze"),
		Reshape:   ops.Get("reshape"),
		Transpose: ops.Get("transpose"),
		Broadcast: ops.Get("broadcast"),
	}, nil
}
