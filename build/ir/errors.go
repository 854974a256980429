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

	"github.com/gx-org/nnir/build/irerr"
	"github.com/pkg/errors"
)

// OperandMismatch returns the error reported by a type rule when an operand
// does not have the expected type.
func OperandMismatch(index int, want string, got Type) error {
	return irerr.Errorf(irerr.TypeMismatch, "").
		WithOperand(index).
		WithTypes(want, TypeString(got))
}

// Mismatchf returns a type mismatch error for an operand with a formatted message.
// A negative index reports an error not attached to a specific operand.
func Mismatchf(index int, format string, a ...any) error {
	if index < 0 {
		index = irerr.NoOperand
	}
	return irerr.Errorf(irerr.TypeMismatch, format, a...).WithOperand(index)
}

// typeError attaches the opcode and the expression to an error returned by a type rule.
func typeError(err error, opcode string, id ID) error {
	var irErr *irerr.Error
	if !errors.As(err, &irErr) {
		irErr = irerr.Wrap(irerr.TypeMismatch, err)
	}
	if irErr.Kind != irerr.TypeMismatch {
		return irerr.Internal(fmt.Errorf("type rule of %s returned a non type mismatch error: %w", opcode, err))
	}
	withPos := *irErr
	withPos.Opcode = opcode
	withPos.Expr = uint64(id)
	return &withPos
}
