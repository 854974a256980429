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

// Package num declares numerical operators changing the shape of tensors:
// matrix products, reductions and quantization.
package num

import (
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/stdlib/builtin"
)

// Package description of the num package.
var Package = builtin.Package{
	FullPath: "num",
	Defs: []ir.OpDef{
		{Name: "matmul", Arity: ir.Exactly(2), Infer: matmulType},
		reduction("reduce_sum", numericReduce),
		reduction("reduce_mean", floatReduce),
		reduction("reduce_max", numericReduce),
		quantizeDef,
		dequantizeDef,
	},
}

// Opcodes of the num package.
type Opcodes struct {
	MatMul                          ir.Opcode
	ReduceSum, ReduceMean, ReduceMax ir.Opcode
	Quantize, Dequantize            ir.Opcode
}

// Register the opcodes of the package in a registry.
func Register(reg *ir.Registry) (*Opcodes, error) {
	ops, err := builtin.Build(reg, Package)
	if err != nil {
		return nil, err
	}
	return &Opcodes{
		MatMul:     ops.Get("matmul"),
		ReduceSum:  ops.Get("reduce_sum"),
		ReduceMean: ops.Get("reduce_mean"),
		ReduceMax:  ops.Get("reduce_max"),
		Quantize:   ops.Get("quantize"),
		Dequantize: ops.Get("dequantize"),
	}, nil
}
