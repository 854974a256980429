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

package passes_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/passes"
	"github.com/pkg/errors"
)

func newGraph(t *testing.T) *ir.Graph {
	t.Helper()
	m := ir.NewModule(ir.NewRegistry())
	g, err := m.NewGraph(m.Placeholder("x", ir.Tensor(dtype.Float32, 2)))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return g
}

type recorder struct {
	names []string
}

func (r *recorder) pass(name string, changed bool, err error) passes.Pass {
	return passes.Func{
		PassName: name,
		F: func(context.Context, *ir.Graph) (bool, error) {
			r.names = append(r.names, name)
			return changed, err
		},
	}
}

func statsOf(stats []passes.Stat) []passes.Stat {
	for i := range stats {
		stats[i].Duration = 0
	}
	return stats
}

func TestManagerRun(t *testing.T) {
	rec := &recorder{}
	mgr := passes.NewManager([]passes.Pass{
		rec.pass("first", false, nil),
		rec.pass("second", true, nil),
		rec.pass("third", false, nil),
	}, passes.WithVerify(true))
	stats, err := mgr.Run(context.Background(), newGraph(t))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if diff := cmp.Diff([]string{"first", "second", "third"}, rec.names); diff != "" {
		t.Errorf("incorrect order of passes:\n%s", diff)
	}
	want := []passes.Stat{
		{Pass: "first"},
		{Pass: "second", Changed: true},
		{Pass: "third"},
	}
	if diff := cmp.Diff(want, statsOf(stats)); diff != "" {
		t.Errorf("incorrect stats:\n%s", diff)
	}
}

func TestManagerError(t *testing.T) {
	errBroken := errors.New("broken")
	rec := &recorder{}
	mgr := passes.NewManager([]passes.Pass{
		rec.pass("first", true, nil),
		rec.pass("second", false, errBroken),
		rec.pass("third", false, nil),
	})
	stats, err := mgr.Run(context.Background(), newGraph(t))
	if !errors.Is(err, errBroken) {
		t.Fatalf("got error %v but want %v", err, errBroken)
	}
	if got, want := err.Error(), "pass second: broken"; got != want {
		t.Errorf("incorrect error message: got %q but want %q", got, want)
	}
	if diff := cmp.Diff([]passes.Stat{{Pass: "first", Changed: true}}, statsOf(stats)); diff != "" {
		t.Errorf("incorrect stats:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"first", "second"}, rec.names); diff != "" {
		t.Errorf("incorrect passes run:\n%s", diff)
	}
}

func TestManagerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &recorder{}
	stop := passes.Func{
		PassName: "stop",
		F: func(context.Context, *ir.Graph) (bool, error) {
			cancel()
			return false, nil
		},
	}
	mgr := passes.NewManager([]passes.Pass{stop, rec.pass("after", false, nil)})
	stats, err := mgr.Run(ctx, newGraph(t))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got error %v but want %v", err, context.Canceled)
	}
	if len(stats) != 1 || len(rec.names) != 0 {
		t.Errorf("passes run after the cancellation: stats=%v run=%v", stats, rec.names)
	}
}

func TestManagerLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rec := &recorder{}
	mgr := passes.NewManager([]passes.Pass{rec.pass("fold", true, nil)}, passes.WithLogger(logger))
	if _, err := mgr.Run(context.Background(), newGraph(t)); err != nil {
		t.Fatalf("%+v", err)
	}
	for _, want := range []string{"running pass", "pass=fold", "changed=true"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log %q does not contain %q", buf.String(), want)
		}
	}
}
