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
	"go.uber.org/multierr"
)

type contextError struct {
	f    func(error) error
	errs error
}

// Appender accumulates errors.
// Contexts can be pushed on a stack: errors appended while a context is
// active are grouped and transformed by the context function when popped.
type Appender struct {
	stack []contextError
	errs  error
}

// Push a new context in the error stack.
func (app *Appender) Push(f func(error) error) {
	app.stack = append(app.stack, contextError{f: f})
}

// Pop removes the last error context in the stack.
func (app *Appender) Pop() {
	last := app.stack[len(app.stack)-1]
	app.stack = app.stack[:len(app.stack)-1]
	if last.errs == nil {
		return
	}
	app.Append(last.f(last.errs))
}

// Append an error to the list of errors.
// Always returns false so that callers can write:
//
//	return app.Append(err)
func (app *Appender) Append(err error) bool {
	if len(app.stack) == 0 {
		app.errs = multierr.Append(app.errs, err)
	} else {
		top := &app.stack[len(app.stack)-1]
		top.errs = multierr.Append(top.errs, err)
	}
	return false
}

// Appendf appends a new error of a given kind.
func (app *Appender) Appendf(kind Kind, format string, a ...any) bool {
	return app.Append(Errorf(kind, format, a...))
}

// AppendInternalf appends an internal error.
func (app *Appender) AppendInternalf(format string, a ...any) bool {
	return app.Append(Internalf(format, a...))
}

// Empty returns true if no error has been appended.
func (app *Appender) Empty() bool {
	if app.errs != nil {
		return false
	}
	for _, ctx := range app.stack {
		if ctx.errs != nil {
			return false
		}
	}
	return true
}

// Errors returns the list of all collected errors.
func (app *Appender) Errors() []error {
	all := multierr.Errors(app.errs)
	for _, ctx := range app.stack {
		if ctx.errs == nil {
			continue
		}
		all = append(all, ctx.f(ctx.errs))
	}
	return all
}

// ToError returns all the errors combined as a single error
// or nil if no error has been appended.
func (app *Appender) ToError() error {
	if app == nil {
		return nil
	}
	return multierr.Combine(app.Errors()...)
}
