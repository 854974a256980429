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

package irerr

import (
	"fmt"

	"github.com/pkg/errors"
)

type internalError struct {
	err error
}

// Internal marks an error as internal, that is a broken invariant of the IR
// that no input from a user should trigger.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	return internalError{err: err}
}

// Internalf returns a formatted internal error.
func Internalf(format string, a ...any) error {
	return Internal(errors.Errorf(format, a...))
}

// IsInternal returns true if an error in the chain has been marked as internal.
func IsInternal(err error) bool {
	var ie internalError
	return errors.As(err, &ie)
}

func (err internalError) Error() string {
	return "nnir internal error. This is a bug in nnir or in a pass. Please report it. Error:\n" + err.err.Error()
}

func (err internalError) Unwrap() error {
	return err.err
}

func (err internalError) Format(s fmt.State, verb rune) {
	format(err, s, verb)
}
