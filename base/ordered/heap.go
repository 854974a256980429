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

import "golang.org/x/exp/constraints"

// Heap is a min-heap: Pop always returns the smallest element.
// The zero value is an empty heap ready to use.
type Heap[T constraints.Ordered] struct {
	elts []T
}

// Push an element on the heap.
func (h *Heap[T]) Push(x T) {
	h.elts = append(h.elts, x)
	i := len(h.elts) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h.elts[parent] <= h.elts[i] {
			break
		}
		h.elts[parent], h.elts[i] = h.elts[i], h.elts[parent]
		i = parent
	}
}

// Pop removes and returns the smallest element.
// Pop panics if the heap is empty.
func (h *Heap[T]) Pop() T {
	top := h.elts[0]
	last := len(h.elts) - 1
	h.elts[0] = h.elts[last]
	h.elts = h.elts[:last]
	i := 0
	for {
		smallest := i
		left, right := 2*i+1, 2*i+2
		if left < len(h.elts) && h.elts[left] < h.elts[smallest] {
			smallest = left
		}
		if right < len(h.elts) && h.elts[right] < h.elts[smallest] {
			smallest = right
		}
		if smallest == i {
			return top
		}
		h.elts[i], h.elts[smallest] = h.elts[smallest], h.elts[i]
		i = smallest
	}
}

// Len returns the number of elements in the heap.
func (h *Heap[T]) Len() int {
	return len(h.elts)
}
