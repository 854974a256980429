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

package ir_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/irerr"
)

func TestRegister(t *testing.T) {
	ops := newTestOps(t)
	again, err := ops.reg.Register(ir.OpDef{Name: "add", Arity: ir.Exactly(2), Infer: sameType})
	if err != nil {
		t.Fatalf("registering the same definition twice: %+v", err)
	}
	if again != ops.add {
		t.Errorf("registering add again returned %v but want %v", again, ops.add)
	}
	conflicts := []ir.OpDef{
		{Name: "add", Arity: ir.Exactly(3), Infer: sameType},
		{Name: "add", Arity: ir.Exactly(2), Infer: floatUnary},
		{Name: "add", Arity: ir.Exactly(2), Infer: sameType, Attrs: []ir.AttrSpec{{Name: "axis", Kind: ir.IntAttr}}},
	}
	for i, def := range conflicts {
		_, err := ops.reg.Register(def)
		if !errors.Is(err, irerr.DuplicateOpcode) {
			t.Errorf("test %d: got error %v but want %v", i, err, irerr.DuplicateOpcode)
		}
	}
	invalids := []ir.OpDef{
		{Arity: ir.Exactly(1), Infer: sameType},
		{Name: "noinfer", Arity: ir.Exactly(1)},
		{Name: "badarity", Arity: ir.Between(3, 1), Infer: sameType},
		{Name: "twice", Arity: ir.Exactly(1), Infer: sameType, Attrs: []ir.AttrSpec{
			{Name: "a", Kind: ir.IntAttr},
			{Name: "a", Kind: ir.IntAttr},
		}},
		{Name: "baddefault", Arity: ir.Exactly(1), Infer: sameType, Attrs: []ir.AttrSpec{
			{Name: "a", Kind: ir.IntAttr, Default: ir.Float(1)},
		}},
	}
	for i, def := range invalids {
		if _, err := ops.reg.Register(def); !irerr.IsInternal(err) {
			t.Errorf("test %d: got error %v but want an internal error", i, err)
		}
	}
}

func TestOpcodesAreUnique(t *testing.T) {
	a := newTestOps(t)
	b := newTestOps(t)
	if a.add == b.add {
		t.Errorf("two registries issued the same opcode %v", a.add)
	}
	if _, err := a.reg.Lookup(b.add); !errors.Is(err, irerr.UnknownOpcode) {
		t.Errorf("lookup of a foreign opcode: got error %v but want %v", err, irerr.UnknownOpcode)
	}
	if _, err := a.reg.Lookup(ir.InvalidOpcode); !errors.Is(err, irerr.UnknownOpcode) {
		t.Errorf("lookup of the invalid opcode: got error %v but want %v", err, irerr.UnknownOpcode)
	}
	got := a.reg.Opcodes()
	want := []ir.Opcode{a.add, a.mul, a.sigmoid, a.sum, a.pair}
	if !cmp.Equal(got, want) {
		t.Errorf("incorrect opcodes: got %v but want %v", got, want)
	}
	if op, ok := a.reg.ByName("sigmoid"); !ok || op != a.sigmoid {
		t.Errorf("ByName(sigmoid) = %v, %v but want %v, true", op, ok, a.sigmoid)
	}
	if name := a.reg.Name(b.mul); name != b.mul.String() {
		t.Errorf("name of a foreign opcode: got %q but want %q", name, b.mul.String())
	}
}

func TestMakeOpNode(t *testing.T) {
	ops := newTestOps(t)
	tests := []struct {
		attrs ir.Attrs
		key   string
		err   error
	}{
		{
			attrs: ir.Attrs{"axis": ir.Int(1)},
			key:   "sum{axis=int:1,keepdims=bool:false}",
		},
		{
			attrs: ir.Attrs{"axis": ir.Int(0), "keepdims": ir.Bool(true)},
			key:   "sum{axis=int:0,keepdims=bool:true}",
		},
		{
			attrs: ir.Attrs{},
			err:   irerr.InvalidAttribute,
		},
		{
			attrs: ir.Attrs{"axis": ir.Float(1)},
			err:   irerr.InvalidAttribute,
		},
		{
			attrs: ir.Attrs{"axis": ir.Int(1), "bias": ir.Bool(true)},
			err:   irerr.InvalidAttribute,
		},
	}
	for i, test := range tests {
		node, err := ops.reg.MakeOpNode(ops.sum, test.attrs)
		if test.err != nil {
			if !errors.Is(err, test.err) {
				t.Errorf("test %d: got error %v but want %v", i, err, test.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("test %d: unexpected error: %+v", i, err)
			continue
		}
		if got := node.Key(); got != test.key {
			t.Errorf("test %d: incorrect key: got %q but want %q", i, got, test.key)
		}
	}
	if _, err := ops.reg.MakeOpNode(newTestOps(t).sum, nil); !errors.Is(err, irerr.UnknownOpcode) {
		t.Errorf("node of a foreign opcode: got error %v but want %v", err, irerr.UnknownOpcode)
	}
}

func TestOpNodeEqual(t *testing.T) {
	ops := newTestOps(t)
	a := ops.reg.MustOpNode(ops.sum, ir.Attrs{"axis": ir.Int(1)})
	b := ops.reg.MustOpNode(ops.sum, ir.Attrs{"axis": ir.Int(1), "keepdims": ir.Bool(false)})
	c := ops.reg.MustOpNode(ops.sum, ir.Attrs{"axis": ir.Int(2)})
	if a == b || !a.Equal(b) {
		t.Errorf("%v and %v should be distinct but equal", a, b)
	}
	if a.Equal(c) || a.Key() == c.Key() {
		t.Errorf("%v and %v should not be equal", a, c)
	}
	if got := a.Int("axis"); got != 1 {
		t.Errorf("axis: got %d but want 1", got)
	}
	if got := a.AttrNames(); !cmp.Equal(got, []string{"axis", "keepdims"}) {
		t.Errorf("attribute names: got %v", got)
	}
	if got := a.DType("axis"); got != dtype.Invalid {
		t.Errorf("dtype of an int attribute: got %v but want invalid", got)
	}
}

func TestOpNodeListAttrsAreCopied(t *testing.T) {
	reg := ir.NewRegistry()
	op := reg.MustRegister(ir.OpDef{
		Name:  "scale",
		Arity: ir.Exactly(1),
		Infer: sameType,
		Attrs: []ir.AttrSpec{
			{Name: "perm", Kind: ir.IntsAttr, Required: true},
			{Name: "factors", Kind: ir.FloatsAttr, Required: true},
		},
	})
	perm := []int64{1, 0}
	node := reg.MustOpNode(op, ir.Attrs{"perm": ir.Ints(perm...), "factors": ir.Floats(0.5, 2)})
	want := node.Key()
	perm[0] = 5
	attr, _ := node.Attr("perm")
	ints, ok := attr.AsInts()
	if !ok {
		t.Fatalf("perm is not a list of integers: %v", attr)
	}
	ints[0] = 7
	node.Ints("perm")[1] = 7
	attr, _ = node.Attr("factors")
	floats, ok := attr.AsFloats()
	if !ok {
		t.Fatalf("factors is not a list of floats: %v", attr)
	}
	floats[0] = 7
	for _, attr := range node.Attrs() {
		if vals, ok := attr.AsInts(); ok {
			vals[0] = 9
		}
	}
	if got := node.Key(); got != want {
		t.Errorf("key changed after modifying attribute values: got %q but want %q", got, want)
	}
	if got := node.Ints("perm"); !cmp.Equal(got, []int64{1, 0}) {
		t.Errorf("perm: got %v but want [1 0]", got)
	}
}
