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

package ordered

import "slices"

// Set is a set of elements iterated in insertion order.
// The zero value is an empty set ready to use.
type Set[T comparable] struct {
	elts []T
	in   map[T]bool
}

// Add an element to the set.
// Returns false if the element was already present.
func (s *Set[T]) Add(x T) bool {
	if s.in == nil {
		s.in = make(map[T]bool)
	}
	if s.in[x] {
		return false
	}
	s.in[x] = true
	s.elts = append(s.elts, x)
	return true
}

// Remove an element from the set.
// Returns false if the element was not present.
func (s *Set[T]) Remove(x T) bool {
	if !s.in[x] {
		return false
	}
	delete(s.in, x)
	s.elts = slices.DeleteFunc(s.elts, func(y T) bool { return y == x })
	return true
}

// Has returns true if the element is in the set.
func (s *Set[T]) Has(x T) bool {
	return s.in[x]
}

// Len returns the number of elements in the set.
func (s *Set[T]) Len() int {
	return len(s.elts)
}

// Clear removes all the elements from the set.
func (s *Set[T]) Clear() {
	s.elts = nil
	s.in = nil
}

// All returns an iterator over the elements of the set.
func (s *Set[T]) All() func(func(T) bool) {
	return func(yield func(T) bool) {
		for _, x := range s.elts {
			if !yield(x) {
				return
			}
		}
	}
}

// Slice returns a copy of the elements of the set or nil if the set is empty.
func (s *Set[T]) Slice() []T {
	if len(s.elts) == 0 {
		return nil
	}
	return slices.Clone(s.elts)
}
