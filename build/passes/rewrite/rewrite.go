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

// Package rewrite replaces subgraphs matching patterns.
//
// A pass collects the matches of the rules on the graph, then applies the
// replacements in topological order within a single transaction: either all
// the replacements of an iteration are applied or none. Iterations repeat
// until no rule matches or the maximum number of iterations is reached.
package rewrite

import (
	"context"

	"github.com/gx-org/nnir/build/ir"
	"github.com/gx-org/nnir/build/passes"
	"github.com/gx-org/nnir/build/pattern"
	"github.com/gx-org/nnir/internal/ctxlog"
	"github.com/pkg/errors"
)

type (
	// Rule replaces the expressions matching a pattern.
	Rule struct {
		Name    string
		Pattern pattern.Pattern
		// Build returns the expression replacing root.
		// Returning nil or root leaves the graph unchanged.
		Build func(m *ir.Module, b pattern.Bindings, root ir.Expr) (ir.Expr, error)
	}

	// Option configures a rewrite.
	Option func(*config)

	// Result of a rewrite.
	Result struct {
		// Iterations is the number of iterations run.
		Iterations int
		// Rewrites is the number of expressions replaced.
		Rewrites int
		// Pruned lists the expressions removed from the module.
		Pruned []ir.ID
		// Converged is true if the last iteration did not replace any expression.
		Converged bool
	}

	config struct {
		maxIterations int
	}

	match struct {
		rule *Rule
		root ir.Expr
	}
)

// DefaultMaxIterations is the maximum number of iterations if none is specified.
const DefaultMaxIterations = 16

// WithMaxIterations sets the maximum number of iterations.
func WithMaxIterations(n int) Option {
	return func(c *config) {
		c.maxIterations = max(n, 1)
	}
}

func collect(ctx context.Context, g *ir.Graph, rules []Rule) ([]match, error) {
	order, err := g.TopoOrder()
	if err != nil {
		return nil, err
	}
	var matches []match
	for _, e := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range rules {
			if _, ok := pattern.Match(rules[i].Pattern, e); ok {
				matches = append(matches, match{rule: &rules[i], root: e})
				break
			}
		}
	}
	return matches, nil
}

// apply the matches and returns the number of expressions replaced.
func apply(g *ir.Graph, matches []match) (int, error) {
	tx := g.Begin()
	for _, mt := range matches {
		// Earlier replacements may have changed the operands of the root.
		b, ok := pattern.Match(mt.rule.Pattern, mt.root)
		if !ok || len(mt.root.Uses()) == 0 && !isOutput(g, mt.root) {
			continue
		}
		repl, err := mt.rule.Build(g.Module(), b, mt.root)
		if err != nil {
			tx.Rollback()
			return 0, errors.WithMessagef(err, "rule %s", mt.rule.Name)
		}
		if repl == nil || repl.ID() == mt.root.ID() {
			continue
		}
		if err := tx.ReplaceAllUses(mt.root, repl); err != nil {
			tx.Rollback()
			return 0, errors.WithMessagef(err, "rule %s", mt.rule.Name)
		}
	}
	n := tx.Len()
	tx.Commit()
	return n, nil
}

func isOutput(g *ir.Graph, e ir.Expr) bool {
	for _, m := range g.Module().Graphs() {
		for _, id := range m.OutputIDs() {
			if id == e.ID() {
				return true
			}
		}
	}
	return false
}

// Run the rules on a graph until no rule matches.
// Rules are tried in order: only the first matching rule is applied to an expression.
func Run(ctx context.Context, g *ir.Graph, rules []Rule, opts ...Option) (*Result, error) {
	cfg := config{maxIterations: DefaultMaxIterations}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := ctxlog.FromContext(ctx)
	res := &Result{}
	for res.Iterations < cfg.maxIterations {
		matches, err := collect(ctx, g, rules)
		if err != nil {
			return nil, err
		}
		res.Iterations++
		n, err := apply(g, matches)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			res.Converged = true
			break
		}
		res.Rewrites += n
		pruned, err := g.PruneDead()
		if err != nil {
			return nil, err
		}
		res.Pruned = append(res.Pruned, pruned...)
		logger.DebugContext(ctx, "rewrite iteration", "iteration", res.Iterations, "matches", len(matches), "rewrites", n, "pruned", len(pruned))
	}
	if !res.Converged {
		logger.WarnContext(ctx, "rewrite stopped before reaching a fixpoint", "iterations", res.Iterations, "rewrites", res.Rewrites)
	}
	return res, nil
}

// Pass returns a pass running a set of rules.
func Pass(name string, rules []Rule, opts ...Option) passes.Pass {
	return passes.Func{
		PassName: name,
		F: func(ctx context.Context, g *ir.Graph) (bool, error) {
			res, err := Run(ctx, g, rules, opts...)
			if err != nil {
				return false, err
			}
			return res.Rewrites > 0, nil
		},
	}
}
