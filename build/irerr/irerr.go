// Copyright 2024 Google LLC
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

// Package irerr defines the errors reported while building, checking and
// rewriting an operator graph.
//
// Every error carries a Kind. Kinds implement the error interface so that
// callers can test for them with errors.Is:
//
//	if errors.Is(err, irerr.ArityMismatch) {
//		...
//	}
package irerr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind of error.
type Kind int

// Kinds of errors reported by the IR.
const (
	Unspecified Kind = iota
	DuplicateOpcode
	UnknownOpcode
	InvalidAttribute
	ArityMismatch
	TypeMismatch
	CycleDetected
	WouldCreateCycle
)

// String returns a string representation of a kind.
func (k Kind) String() string {
	switch k {
	case DuplicateOpcode:
		return "duplicate opcode"
	case UnknownOpcode:
		return "unknown opcode"
	case InvalidAttribute:
		return "invalid attribute"
	case ArityMismatch:
		return "arity mismatch"
	case TypeMismatch:
		return "type mismatch"
	case CycleDetected:
		return "cycle detected"
	case WouldCreateCycle:
		return "would create cycle"
	}
	return "error"
}

// Error returns the kind as an error message.
func (k Kind) Error() string {
	return k.String()
}

// NoOperand is the operand index of an error not attached to an operand.
const NoOperand = -1

// Error is an error attached to an opcode and, optionally, to an expression
// and one of its operands.
type Error struct {
	Kind    Kind
	Opcode  string
	Expr    uint64
	Operand int
	Want    string
	Got     string

	err error
}

// Errorf returns a new error of a given kind.
// The error records the stack trace at the point of the call.
func Errorf(kind Kind, format string, a ...any) *Error {
	return &Error{
		Kind:    kind,
		Operand: NoOperand,
		err:     errors.Errorf(format, a...),
	}
}

// Wrap returns a new error of a given kind wrapping an existing error.
// The error records the stack trace at the point of the call.
func Wrap(kind Kind, err error) *Error {
	return &Error{
		Kind:    kind,
		Operand: NoOperand,
		err:     errors.WithStack(err),
	}
}

// WithOpcode attaches the name of an opcode to the error.
func (e *Error) WithOpcode(name string) *Error {
	e.Opcode = name
	return e
}

// WithExpr attaches the identity of an expression to the error.
func (e *Error) WithExpr(id uint64) *Error {
	e.Expr = id
	return e
}

// WithOperand attaches an operand index to the error.
func (e *Error) WithOperand(i int) *Error {
	e.Operand = i
	return e
}

// WithTypes attaches the expected and actual values to the error.
func (e *Error) WithTypes(want, got string) *Error {
	e.Want = want
	e.Got = got
	return e
}

// Error returns a string description of the error.
func (e *Error) Error() string {
	var s strings.Builder
	s.WriteString(e.Kind.String())
	if e.Opcode != "" {
		fmt.Fprintf(&s, " in %s", e.Opcode)
	}
	if e.Expr != 0 {
		fmt.Fprintf(&s, " at %%%d", e.Expr)
	}
	if e.Operand != NoOperand {
		fmt.Fprintf(&s, " operand %d", e.Operand)
	}
	if msg := e.err.Error(); msg != "" {
		s.WriteString(": ")
		s.WriteString(msg)
	}
	if e.Want != "" || e.Got != "" {
		fmt.Fprintf(&s, ": want %s but got %s", e.Want, e.Got)
	}
	return s.String()
}

// Is returns true if the target is the kind of the error.
func (e *Error) Is(target error) bool {
	kind, ok := target.(Kind)
	return ok && kind == e.Kind
}

// Unwrap the error.
func (e *Error) Unwrap() error {
	return e.err
}

// Format writes the error into the state of the formatter.
func (e *Error) Format(s fmt.State, verb rune) {
	format(e, s, verb)
}

// KindOf returns the kind of the first Error found in the chain of err.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return Unspecified
	}
	return e.Kind
}
