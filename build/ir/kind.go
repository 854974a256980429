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

package ir

import "github.com/gx-org/backend/dtype"

// DTypeName returns the name of an element type as written in the IR.
func DTypeName(dt dtype.DataType) string {
	switch dt {
	case dtype.Bool:
		return "bool"
	case dtype.Int32:
		return "int32"
	case dtype.Int64:
		return "int64"
	case dtype.Uint32:
		return "uint32"
	case dtype.Uint64:
		return "uint64"
	case dtype.Bfloat16:
		return "bfloat16"
	case dtype.Float32:
		return "float32"
	case dtype.Float64:
		return "float64"
	}
	return "invalid"
}

var dataTypes = []dtype.DataType{
	dtype.Bool,
	dtype.Int32,
	dtype.Int64,
	dtype.Uint32,
	dtype.Uint64,
	dtype.Bfloat16,
	dtype.Float32,
	dtype.Float64,
}

// DTypeFromName returns an element type given its name.
// Returns dtype.Invalid and false if the name is unknown.
func DTypeFromName(name string) (dtype.DataType, bool) {
	for _, dt := range dataTypes {
		if DTypeName(dt) == name {
			return dt, true
		}
	}
	return dtype.Invalid, false
}

// IsFloat returns true if the element type is a floating point type.
func IsFloat(dt dtype.DataType) bool {
	switch dt {
	case dtype.Bfloat16, dtype.Float32, dtype.Float64:
		return true
	}
	return false
}

// IsInteger returns true if the element type is an integer type.
func IsInteger(dt dtype.DataType) bool {
	switch dt {
	case dtype.Int32, dtype.Int64, dtype.Uint32, dtype.Uint64:
		return true
	}
	return false
}

// IsSigned returns true if the element type can represent negative values.
func IsSigned(dt dtype.DataType) bool {
	switch dt {
	case dtype.Int32, dtype.Int64:
		return true
	}
	return IsFloat(dt)
}

// IsNumeric returns true if arithmetic is defined on the element type.
func IsNumeric(dt dtype.DataType) bool {
	return IsValidDType(dt) && dt != dtype.Bool && dtype.IsAlgebra(dt)
}

// IsValidDType returns true if the element type can be stored in a tensor.
func IsValidDType(dt dtype.DataType) bool {
	return DTypeName(dt) != "invalid"
}
