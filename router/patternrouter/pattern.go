// Copyright 2025 The Rivaas Authors
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

package patternrouter

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/grafana/regexp"
)

var (
	// ErrInvalidPattern indicates a pattern that cannot be parsed.
	ErrInvalidPattern = errors.New("invalid pattern")
)

type segmentKind int

const (
	unset segmentKind = iota
	literal
	param
	wildcard
)

type repeat int

const (
	once repeat = iota
	optional
	oneOrMore
	zeroOrMore
)

type segment struct {
	kind   segmentKind
	repeat repeat
	name   string
	expr   string
}

// Pattern is a compiled path pattern.
//
// Syntax, one element per path segment:
//
//	/users          literal segment
//	/:id            named parameter
//	/:id(\d+)       parameter with an inline expression
//	/:id?           optional parameter
//	/:path+ /:path* one-or-more and zero-or-more segments
//	/* /**          one segment, any number of segments
//
// A trailing slash on the request path is ignored.
type Pattern struct {
	raw      string
	segments []segment
	re       *regexp.Regexp
}

var groupName = regexp.MustCompile(`\(\?P<\w+>`)

// shape is the compiled expression with group names removed. Patterns of
// equal shape match exactly the same paths.
func (p *Pattern) shape() string {
	return groupName.ReplaceAllString(p.re.String(), "(")
}

// Compile parses pattern. tokens supplies expressions for parameters that do
// not declare one inline.
func Compile(pattern string, tokens map[string]string) (*Pattern, error) {
	segments, err := parseSegments(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}
	for i := range segments {
		s := &segments[i]
		if s.kind == param && s.expr == "" {
			s.expr = tokens[s.name]
		}
	}

	re, err := regexp.Compile(buildExpr(segments))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}

	return &Pattern{raw: pattern, segments: segments, re: re}, nil
}

func (p *Pattern) String() string {
	return p.raw
}

// Match reports whether path matches and returns the named parameters.
// Optional parameters that did not match are absent from the map.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	idx := p.re.FindStringSubmatchIndex(path)
	if idx == nil {
		return nil, false
	}

	names := p.re.SubexpNames()
	params := make(map[string]string, len(names))
	for i := 1; i < len(names); i++ {
		if names[i] == "" || idx[2*i] < 0 {
			continue
		}
		params[names[i]] = path[idx[2*i]:idx[2*i+1]]
	}
	return params, true
}

// Expand builds a path from the pattern. Wildcards take their value from the
// "*" parameter. Optional and zero-or-more elements are dropped when absent.
func (p *Pattern) Expand(params map[string]string) (string, error) {
	var b strings.Builder
	for _, s := range p.segments {
		switch s.kind {
		case literal:
			b.WriteString("/" + s.expr)
		case param, wildcard:
			key := s.name
			if s.kind == wildcard {
				key = "*"
			}
			v, ok := params[key]
			if !ok || (v == "" && s.repeat != once) {
				if s.repeat == optional || s.repeat == zeroOrMore {
					continue
				}
				return "", fmt.Errorf("missing parameter %q", key)
			}
			b.WriteString("/" + escapeSegments(strings.TrimPrefix(v, "/"), s.repeat == oneOrMore || s.repeat == zeroOrMore || s.kind == wildcard))
		}
	}

	if b.Len() == 0 {
		return "/", nil
	}
	return b.String(), nil
}

func escapeSegments(v string, multi bool) string {
	if !multi {
		return url.PathEscape(v)
	}
	parts := strings.Split(v, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func parseSegments(pattern string) ([]segment, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, errors.New("pattern must start with a slash")
	}

	runes := []rune(pattern)
	var segments []segment
	var cur *segment

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '/' {
			if cur != nil {
				segments = append(segments, *cur)
			}
			cur = &segment{}
			continue
		}

		if cur.kind == unset {
			switch r {
			case ':':
				cur.kind = param
				continue
			case '*':
				cur.kind = wildcard
				continue
			case '(':
				cur.kind = wildcard
			default:
				cur.kind = literal
			}
		}

		if r == '(' {
			if cur.kind == param && cur.name == "" {
				return nil, errors.New("parameter needs a name")
			}
			if cur.kind == literal || cur.expr != "" {
				return nil, errors.New("a segment holds at most one expression")
			}
			end := indexRune(runes, i+1, ')')
			if end < 0 {
				return nil, errors.New("unclosed expression")
			}
			cur.expr = string(runes[i+1 : end])
			i = end
			continue
		}

		lastInSegment := i+1 == len(runes) || runes[i+1] == '/'
		if lastInSegment && cur.kind != literal {
			switch r {
			case '?':
				cur.repeat = optional
				continue
			case '+':
				cur.repeat = oneOrMore
				continue
			case '*':
				cur.repeat = zeroOrMore
				continue
			}
		}

		switch cur.kind {
		case param:
			cur.name += string(r)
		case literal:
			cur.expr += string(r)
		case wildcard:
			return nil, errors.New("wildcards take no name")
		}
	}
	if cur != nil {
		segments = append(segments, *cur)
	}

	for _, s := range segments {
		if s.kind == param && s.name == "" {
			return nil, errors.New("parameter needs a name")
		}
	}
	return segments, nil
}

func indexRune(runes []rune, from int, target rune) int {
	for j := from; j < len(runes); j++ {
		if runes[j] == target {
			return j
		}
	}
	return -1
}

func buildExpr(segments []segment) string {
	var b strings.Builder
	b.WriteString("^")
	for _, s := range segments {
		expr := s.expr
		switch s.kind {
		case literal:
			expr = regexp.QuoteMeta(expr)
		case unset:
			continue
		}
		if expr == "" {
			expr = `[^/]+`
		}

		body := expr
		if s.kind == param {
			body = "(?P<" + s.name + ">" + expr + ")"
		}
		switch s.repeat {
		case once:
			b.WriteString(`/` + body)
		case optional:
			b.WriteString(`(?:/` + body + `)?`)
		case oneOrMore:
			if s.kind == param {
				body = "(?P<" + s.name + ">(?:" + expr + ")(?:/(?:" + expr + "))*)"
				b.WriteString(`/` + body)
			} else {
				b.WriteString(`/` + expr + `(?:/` + expr + `)*`)
			}
		case zeroOrMore:
			if s.kind == param {
				body = "(?P<" + s.name + ">(?:" + expr + ")(?:/(?:" + expr + "))*)"
				b.WriteString(`(?:/` + body + `)?`)
			} else {
				b.WriteString(`(?:/` + expr + `(?:/` + expr + `)*)?`)
			}
		}
	}
	b.WriteString(`/?$`)
	return b.String()
}
