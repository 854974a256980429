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

// Package fmt provides utility methods for building string representations of IR objects.
package fmt

import (
	"fmt"
	"math"
	"reflect"
	"runtime"
	"slices"
	"strings"
)

// Number adds a number prefix to all lines in a string.
func Number(x string) string {
	lines := slices.Collect(strings.Lines(x))
	numDigits := int(math.Log10(float64(len(lines)))) + 1
	fmtString := fmt.Sprintf("%%0%dd %%s", numDigits)
	var s strings.Builder
	for i, line := range lines {
		s.WriteString(fmt.Sprintf(fmtString, i+1, line))
	}
	return s.String()
}

// Indent the given string by a tabulation.
func Indent(x string) string {
	var y strings.Builder
	for line := range strings.Lines(x) {
		y.WriteString("\t")
		y.WriteString(line)
	}
	return y.String()
}

// FuncPC returns the entry point of a function value, or 0 if f is nil.
// Two function values with the same entry point run the same code, although
// closures may capture different variables.
func FuncPC(f any) uintptr {
	if f == nil {
		return 0
	}
	val := reflect.ValueOf(f)
	if val.Kind() != reflect.Func || val.IsNil() {
		return 0
	}
	return val.Pointer()
}

// Func returns the name of a function.
func Func(f any) string {
	pc := FuncPC(f)
	if pc == 0 {
		return "<nil>"
	}
	return runtime.FuncForPC(pc).Name()
}
