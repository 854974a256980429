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

// Package stdtest runs type rules of standard library opcodes in tests.
package stdtest

import (
	"errors"
	"testing"

	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/irerr"
)

// Case is a call of an opcode and its expected type or error.
type Case struct {
	Op       ir.Opcode
	Attrs    ir.Attrs
	Operands []string
	// Want is the expected type of the call.
	Want string
	// Err is the expected kind of error if not Unspecified.
	Err irerr.Kind
}

// Run builds a call for each test case and checks its type.
func Run(t *testing.T, reg *ir.Registry, tests []Case) {
	t.Helper()
	for i, test := range tests {
		m := ir.NewModule(reg)
		operands := make([]ir.Expr, len(test.Operands))
		for j, s := range test.Operands {
			typ, err := ir.ParseType(s)
			if err != nil {
				t.Fatalf("test %d: cannot parse type %q: %+v", i, s, err)
			}
			operands[j] = m.Placeholder("x", typ)
		}
		c, err := call(m, test.Op, test.Attrs, operands)
		if test.Err != irerr.Unspecified {
			if !errors.Is(err, test.Err) {
				t.Errorf("test %d: %s: got error %v but want %v", i, reg.Name(test.Op), err, test.Err)
			}
			continue
		}
		if err != nil {
			t.Errorf("test %d: %s: unexpected error: %+v", i, reg.Name(test.Op), err)
			continue
		}
		if got := ir.TypeString(c.Type()); got != test.Want {
			t.Errorf("test %d: %s: got type %s but want %s", i, reg.Name(test.Op), got, test.Want)
		}
	}
}

func call(m *ir.Module, op ir.Opcode, attrs ir.Attrs, operands []ir.Expr) (*ir.Call, error) {
	node, err := m.Registry().MakeOpNode(op, attrs)
	if err != nil {
		return nil, err
	}
	return m.Call(node, operands...)
}
