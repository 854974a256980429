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

// Package passes runs passes over a graph.
//
// A pass owns the graph for the duration of its run: passes are run one at
// a time and must not be run concurrently on the same graph.
package passes

import (
	"context"
	"log/slog"
	"time"

	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/internal/ctxlog"
	"github.com/pkg/errors"
)

type (
	// Pass checks or transforms a graph.
	Pass interface {
		// Name of the pass, used in logs and errors.
		Name() string
		// Run the pass on a graph. Returns true if the graph has been modified.
		Run(ctx context.Context, g *ir.Graph) (bool, error)
	}

	// Func is a pass implemented by a function.
	Func struct {
		PassName string
		F        func(ctx context.Context, g *ir.Graph) (bool, error)
	}

	// Option configures a manager.
	Option func(*Manager)

	// Manager runs a sequence of passes.
	Manager struct {
		passes []Pass
		verify bool
		logger *slog.Logger
	}

	// Stat reports the run of one pass.
	Stat struct {
		Pass     string
		Changed  bool
		Duration time.Duration
	}
)

var _ Pass = Func{}

// Name of the pass.
func (f Func) Name() string { return f.PassName }

// Run the function.
func (f Func) Run(ctx context.Context, g *ir.Graph) (bool, error) {
	return f.F(ctx, g)
}

// WithVerify validates the graph after every pass.
func WithVerify(verify bool) Option {
	return func(m *Manager) {
		m.verify = verify
	}
}

// WithLogger sets the logger given to the passes.
// By default, passes use the logger of the context.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager returns a manager running passes in order.
func NewManager(passes []Pass, opts ...Option) *Manager {
	m := &Manager{passes: passes}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run all the passes on a graph. Stops at the first error.
// Stats are returned for the passes that have completed.
func (m *Manager) Run(ctx context.Context, g *ir.Graph) ([]Stat, error) {
	if m.logger != nil {
		ctx = ctxlog.WithLogger(ctx, m.logger)
	}
	logger := ctxlog.FromContext(ctx)
	var stats []Stat
	for _, pass := range m.passes {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		start := time.Now()
		logger.DebugContext(ctx, "running pass", "pass", pass.Name())
		changed, err := pass.Run(ctx, g)
		if err != nil {
			return stats, errors.WithMessagef(err, "pass %s", pass.Name())
		}
		stat := Stat{Pass: pass.Name(), Changed: changed, Duration: time.Since(start)}
		stats = append(stats, stat)
		logger.DebugContext(ctx, "pass done", "pass", stat.Pass, "changed", stat.Changed, "duration", stat.Duration)
		if !m.verify {
			continue
		}
		if err := g.Validate(); err != nil {
			return stats, errors.WithMessagef(err, "graph invalid after pass %s", pass.Name())
		}
	}
	return stats, nil
}
