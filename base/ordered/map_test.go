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

package ordered_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/nnir/base/ordered"
)

type entry struct {
	Name string
	Op   uint32
}

func entries(m *ordered.Map[string, uint32]) []entry {
	var r []entry
	for name, op := range m.Iter() {
		r = append(r, entry{Name: name, Op: op})
	}
	return r
}

func TestMap(t *testing.T) {
	tests := []struct {
		stores []entry
		want   []entry
	}{
		{},
		{
			stores: []entry{{"relu", 3}, {"add", 1}, {"mul", 2}},
			want:   []entry{{"relu", 3}, {"add", 1}, {"mul", 2}},
		},
		{
			stores: []entry{{"relu", 3}, {"add", 1}, {"relu", 7}},
			want:   []entry{{"relu", 7}, {"add", 1}},
		},
		{
			stores: []entry{{"exp", 1}, {"exp", 2}, {"exp", 3}},
			want:   []entry{{"exp", 3}},
		},
	}
	for i, test := range tests {
		m := ordered.NewMap[string, uint32]()
		for _, e := range test.stores {
			m.Store(e.Name, e.Op)
		}
		if diff := cmp.Diff(test.want, entries(m)); diff != "" {
			t.Errorf("test %d: incorrect entries:\n%s", i, diff)
		}
		if m.Size() != len(test.want) {
			t.Errorf("test %d: got size %d but want %d", i, m.Size(), len(test.want))
		}
		for _, e := range test.want {
			if got, ok := m.Load(e.Name); !ok || got != e.Op {
				t.Errorf("test %d: Load(%q) = %d, %v but want %d, true", i, e.Name, got, ok, e.Op)
			}
		}
	}
}

func TestMapIterStops(t *testing.T) {
	m := ordered.NewMap[string, uint32]()
	for i, name := range []string{"a", "b", "c"} {
		m.Store(name, uint32(i))
	}
	var got []string
	for name := range m.Iter() {
		got = append(got, name)
		if name == "b" {
			break
		}
	}
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("incorrect keys:\n%s", diff)
	}
}
