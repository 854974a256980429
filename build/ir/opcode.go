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
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	nnfmt "github.com/gx-org/nnir/base/fmt"
	nnsync "github.com/gx-org/nnir/base/sync"
	"github.com/gx-org/nnir/build/irerr"
)

type (
	// Opcode is a tag identifying an operator kind.
	// Tags are unique for the whole process: a tag is never issued twice,
	// even by different registries.
	Opcode uint32

	// Arity is the number of operands accepted by an opcode.
	Arity struct {
		Min int
		// Max is the maximum number of operands or Variadic.
		Max int
	}

	// TypeRule computes the type of a call given the types of its operands.
	// It is only called when the types of all operands are known.
	// Errors are reported with OperandMismatch or Mismatchf.
	TypeRule func(op *OpNode, operands []Type) (Type, error)

	// OpDef defines an operator kind.
	OpDef struct {
		Name  string
		Arity Arity
		Infer TypeRule
		Attrs []AttrSpec
	}

	// Registry maps opcodes to their definitions.
	// Registration is append-only: opcodes are never removed.
	// A registry is safe for concurrent use.
	Registry struct {
		mu     sync.Mutex
		defs   nnsync.Map[Opcode, *OpDef]
		byName nnsync.Map[string, Opcode]
	}
)

// InvalidOpcode is never issued by a registry.
const InvalidOpcode Opcode = 0

// Variadic is the maximum arity of an opcode accepting any number of operands.
const Variadic = -1

var lastOpcode atomic.Uint32

// Exactly returns an arity accepting n operands.
func Exactly(n int) Arity { return Arity{Min: n, Max: n} }

// AtLeast returns an arity accepting n operands or more.
func AtLeast(n int) Arity { return Arity{Min: n, Max: Variadic} }

// Between returns an arity accepting between min and max operands (inclusive).
func Between(min, max int) Arity { return Arity{Min: min, Max: max} }

// Accepts returns true if n operands satisfy the arity.
func (a Arity) Accepts(n int) bool {
	if n < a.Min {
		return false
	}
	return a.Max == Variadic || n <= a.Max
}

func (a Arity) valid() bool {
	if a.Min < 0 {
		return false
	}
	return a.Max == Variadic || a.Max >= a.Min
}

// String representation of the arity.
func (a Arity) String() string {
	switch {
	case a.Max == Variadic:
		return "at least " + strconv.Itoa(a.Min)
	case a.Min == a.Max:
		return strconv.Itoa(a.Min)
	default:
		return fmt.Sprintf("between %d and %d", a.Min, a.Max)
	}
}

// String returns a representation of an opcode when no registry is at hand.
func (op Opcode) String() string {
	return "opcode(" + strconv.FormatUint(uint64(op), 10) + ")"
}

func (def *OpDef) sameRules(other *OpDef) bool {
	return def.Arity == other.Arity &&
		nnfmt.FuncPC(def.Infer) == nnfmt.FuncPC(other.Infer) &&
		slices.EqualFunc(def.Attrs, other.Attrs, AttrSpec.equal)
}

// Attr returns the specification of an attribute given its name.
func (def *OpDef) Attr(name string) (AttrSpec, bool) {
	for _, spec := range def.Attrs {
		if spec.Name == name {
			return spec, true
		}
	}
	return AttrSpec{}, false
}

func (def *OpDef) check() error {
	if def.Name == "" {
		return irerr.Internalf("opcode definition has no name")
	}
	if def.Infer == nil {
		return irerr.Internalf("opcode %s has no type rule", def.Name)
	}
	if !def.Arity.valid() {
		return irerr.Internalf("opcode %s has an invalid arity %v", def.Name, def.Arity)
	}
	seen := make(map[string]bool)
	for _, spec := range def.Attrs {
		if spec.Name == "" || spec.Kind == InvalidAttr {
			return irerr.Internalf("opcode %s declares an invalid attribute %#v", def.Name, spec)
		}
		if seen[spec.Name] {
			return irerr.Internalf("opcode %s declares attribute %s twice", def.Name, spec.Name)
		}
		seen[spec.Name] = true
		if len(spec.OneOf) > 0 && spec.Kind != StringAttr {
			return irerr.Internalf("opcode %s: attribute %s of kind %s cannot list accepted values", def.Name, spec.Name, spec.Kind)
		}
		if spec.Default.Valid() && (spec.Required || spec.Default.Kind() != spec.Kind || !spec.accepts(spec.Default)) {
			return irerr.Internalf("opcode %s: invalid default %s for attribute %s of kind %s", def.Name, spec.Default, spec.Name, spec.Kind)
		}
	}
	return nil
}

// NewRegistry returns a new empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry shared by the whole process.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register an opcode given its definition.
// Registering the same name twice with the same rules returns the opcode
// issued the first time. Registering a name with different rules fails.
func (r *Registry) Register(def OpDef) (Opcode, error) {
	if err := def.check(); err != nil {
		return InvalidOpcode, err
	}
	def.Attrs = slices.Clone(def.Attrs)
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byName.Load(def.Name); ok {
		prevDef, _ := r.defs.Load(prev)
		if !prevDef.sameRules(&def) {
			return InvalidOpcode, irerr.Errorf(irerr.DuplicateOpcode, "opcode already registered with different rules").
				WithOpcode(def.Name)
		}
		return prev, nil
	}
	op := Opcode(lastOpcode.Add(1))
	r.defs.Store(op, &def)
	r.byName.Store(def.Name, op)
	return op, nil
}

// MustRegister registers an opcode and panics if an error occurs.
// It is meant to be used when initializing packages.
func (r *Registry) MustRegister(def OpDef) Opcode {
	op, err := r.Register(def)
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
	return op
}

// Lookup returns the definition of an opcode.
// The returned definition must not be modified.
func (r *Registry) Lookup(op Opcode) (*OpDef, error) {
	def, ok := r.defs.Load(op)
	if !ok {
		return nil, irerr.Errorf(irerr.UnknownOpcode, "%s not issued by this registry", op)
	}
	return def, nil
}

// ByName returns the opcode registered under a name.
func (r *Registry) ByName(name string) (Opcode, bool) {
	return r.byName.Load(name)
}

// Name returns the name of an opcode.
func (r *Registry) Name(op Opcode) string {
	def, ok := r.defs.Load(op)
	if !ok {
		return op.String()
	}
	return def.Name
}

// Opcodes returns all the opcodes issued by the registry in registration order.
func (r *Registry) Opcodes() []Opcode {
	var ops []Opcode
	for op := range r.defs.Iter() {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	return ops
}
