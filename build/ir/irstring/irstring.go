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

// Package irstring builds a string representation of a graph.
package irstring

import (
	"fmt"
	"strings"

	nnfmt "github.com/gx-org/nnir/base/fmt"
	"github.com/gx-org/nnir/build/ir"
)

// Mode selects what is written for each expression.
type Mode int

const (
	// Compact writes one line per expression with its type.
	Compact Mode = iota
	// Verbose also writes the uses of every expression.
	// It helps to find inconsistencies when debugging a pass.
	Verbose
)

func exprString(e ir.Expr, mode Mode) string {
	s := fmt.Sprintf("%s : %s", e, ir.TypeString(e.Type()))
	if mode != Verbose {
		return s
	}
	uses := e.Uses()
	if len(uses) == 0 {
		return s
	}
	ss := make([]string, len(uses))
	for i, use := range uses {
		ss[i] = fmt.Sprintf("%s#%d", use.User, use.Index)
	}
	return s + " // uses: " + strings.Join(ss, ", ")
}

// Graph returns a representation of a graph: one line per expression
// in topological order followed by the outputs of the graph.
func Graph(g *ir.Graph, mode Mode) (string, error) {
	order, err := g.TopoOrder()
	if err != nil {
		return "", err
	}
	var body strings.Builder
	for _, e := range order {
		body.WriteString(exprString(e, mode))
		body.WriteString("\n")
	}
	outs := make([]string, len(g.OutputIDs()))
	for i, id := range g.OutputIDs() {
		outs[i] = id.String()
	}
	body.WriteString("return " + strings.Join(outs, ", ") + "\n")
	return "graph {\n" + nnfmt.Indent(body.String()) + "}", nil
}

// Numbered returns the representation of a graph with line numbers.
func Numbered(g *ir.Graph, mode Mode) (string, error) {
	s, err := Graph(g, mode)
	if err != nil {
		return "", err
	}
	return nnfmt.Number(s), nil
}
