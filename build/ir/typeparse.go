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

package ir

import (
	"strconv"

	"github.com/pkg/errors"
)

type typeParser struct {
	s   string
	pos int
}

func (p *typeParser) errorf(format string, a ...any) error {
	return errors.Errorf("cannot parse type %q at %d: %s", p.s, p.pos, errors.Errorf(format, a...))
}

func (p *typeParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *typeParser) consume(c byte) bool {
	if p.peek() != c {
		return false
	}
	p.pos++
	return true
}

func (p *typeParser) ident() string {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			break
		}
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *typeParser) parse() (Type, error) {
	if p.consume('(') {
		return p.parseTuple()
	}
	name := p.ident()
	if name == "unknown" {
		return nil, nil
	}
	dt, ok := DTypeFromName(name)
	if !ok {
		return nil, p.errorf("unknown element type %q", name)
	}
	if !p.consume('[') {
		return Scalar(dt), nil
	}
	if p.consume('*') {
		if !p.consume(']') {
			return nil, p.errorf("missing ]")
		}
		return UnrankedTensor(dt), nil
	}
	var dims []Dim
	for {
		dim, err := p.parseDim()
		if err != nil {
			return nil, err
		}
		dims = append(dims, dim)
		if p.consume(']') {
			return TensorDims(dt, dims...), nil
		}
		if !p.consume(',') {
			return nil, p.errorf("expected , or ]")
		}
	}
}

func (p *typeParser) parseDim() (Dim, error) {
	if p.consume('?') {
		return UnknownDim, nil
	}
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	val, err := strconv.ParseInt(p.s[start:p.pos], 10, 64)
	if err != nil {
		return 0, p.errorf("invalid axis length: %v", err)
	}
	return Dim(val), nil
}

func (p *typeParser) parseTuple() (Type, error) {
	tpl := &TupleType{}
	if p.consume(')') {
		return tpl, nil
	}
	for {
		field, err := p.parse()
		if err != nil {
			return nil, err
		}
		tpl.Fields = append(tpl.Fields, field)
		if p.consume(')') {
			return tpl, nil
		}
		if !p.consume(',') || !p.consume(' ') {
			return nil, p.errorf("expected , or )")
		}
	}
}
