// Package jpath implements a minimal JSONPath expression parser, and the
// matching of parsed expressions against the location of a value in a
// document.
package jpath

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

/*
Grammar:

  expr = root steps
  root = "$"
 steps = step [steps]
  step = "." name
  step = ".." name
  step = ".." "[" value "]"
  step = "[" value "]"
  name = WORD
  name = "'" QTEXT "'"
  name = "*"
 value = name
 value = INDEX ["," INDEX]*
 value = [INDEX] ":" [INDEX]
 value = "(" TEXT ")"
 value = "?(" TEXT ")"

  WORD = RE `\w+`
 QTEXT = RE `[^']*`
 INDEX = RE `-?\d+`
  TEXT = { all text with nested parentheses }

Source:
  https://www.ietf.org/archive/id/draft-goessner-dispatch-jsonpath-00.html
*/

// An Expr is a parsed JSONPath expression. An empty Expr denotes the root.
type Expr []Step

// Parse parses s as a JSONPath expression.
func Parse(s string) (Expr, error) {
	t, ok := strings.CutPrefix(s, "$")
	if !ok {
		return nil, errors.New("missing root marker")
	}
	var e Expr
	for t != "" {
		step, rest, err := parseStep(t)
		if err != nil {
			return nil, fmt.Errorf("at offset %d: %w", len(s)-len(t), err)
		}
		e = append(e, step)
		t = rest
	}
	return e, nil
}

// MustParse is as Parse, but panics if s is not a valid expression.
func MustParse(s string) Expr {
	e, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("jpath: %v", err))
	}
	return e
}

func (e Expr) String() string {
	var buf strings.Builder
	buf.WriteString("$")
	for _, s := range e {
		buf.WriteString(s.String())
	}
	return buf.String()
}

// Scripted reports whether e contains a script or filter step. Those steps
// select by the content of a value, so they never match a bare path.
func (e Expr) Scripted() bool {
	for _, s := range e {
		if s.Op == Filter || s.Op == Script {
			return true
		}
	}
	return false
}

// Match reports whether path is the location of a value selected by e.
// Each element of path is a string object key or an int array index,
// outermost first; the empty path is the root.
func (e Expr) Match(path []any) bool {
	if len(e) == 0 {
		return len(path) == 0
	}
	s := e[0]
	if !s.Recur {
		return len(path) > 0 && s.Match(path[0]) && e[1:].Match(path[1:])
	}
	for i, elt := range path {
		if s.Match(elt) && e[1:].Match(path[i+1:]) {
			return true
		}
	}
	return false
}

// Prefix reports whether some extension of path could be matched by e.
// A caller walking a document can skip the contents of a container whose
// path is not a prefix.
func (e Expr) Prefix(path []any) bool {
	if len(path) == 0 || len(e) == 0 {
		return len(path) == 0
	}
	s := e[0]
	if s.Recur {
		return true
	}
	return s.Match(path[0]) && e[1:].Prefix(path[1:])
}

// An Op is a path operator.
type Op byte

const (
	Invalid  Op = iota // invalid operator
	Name               // unquoted member name
	QName              // quoted member name
	Wildcard           // any member or element (*)
	Index              // one or more array indices
	Slice              // a range of array indices
	Filter             // filter expression ?(...)
	Script             // script expression (...)
)

var opText = [...]string{
	Invalid:  "invalid",
	Name:     "name",
	QName:    "qname",
	Wildcard: "*",
	Index:    "index",
	Slice:    "slice",
	Filter:   "?(...)",
	Script:   "(...)",
}

func (o Op) String() string {
	if int(o) < len(opText) {
		return opText[o]
	}
	return opText[Invalid]
}

// A Step is a single step of a JSONPath expression.
type Step struct {
	Op    Op
	Recur bool   // the step was introduced by ".."
	Dot   bool   // the step used dot notation rather than brackets
	Name  string // for Name and QName; the text for Filter and Script
	Index []int  // for Index

	// For Slice. An absent bound is nil.
	Lo, Hi *int
}

// Match reports whether s selects elt, a string key or an int index.
// Filter and script steps do not match anything.
func (s Step) Match(elt any) bool {
	switch s.Op {
	case Wildcard:
		return true
	case Name, QName:
		key, ok := elt.(string)
		return ok && key == s.Name
	case Index:
		i, ok := elt.(int)
		if !ok {
			return false
		}
		for _, want := range s.Index {
			if i == want {
				return true
			}
		}
	case Slice:
		i, ok := elt.(int)
		return ok && (s.Lo == nil || i >= *s.Lo) && (s.Hi == nil || i < *s.Hi)
	}
	return false
}

// Negative reports whether s uses a negative array index, which is relative
// to the end of an array.
func (s Step) Negative() bool {
	for _, i := range s.Index {
		if i < 0 {
			return true
		}
	}
	return (s.Lo != nil && *s.Lo < 0) || (s.Hi != nil && *s.Hi < 0)
}

func (s Step) String() string {
	var buf strings.Builder
	if s.Recur {
		buf.WriteString("..")
	}
	if s.Dot {
		if !s.Recur {
			buf.WriteString(".")
		}
		if s.Op == QName {
			fmt.Fprintf(&buf, "'%s'", s.Name)
		} else {
			buf.WriteString(s.Name)
		}
		return buf.String()
	}
	switch s.Op {
	case Wildcard:
		buf.WriteString("[*]")
	case Name:
		fmt.Fprintf(&buf, "[%s]", s.Name)
	case QName:
		fmt.Fprintf(&buf, "['%s']", s.Name)
	case Index:
		idx := make([]string, len(s.Index))
		for i, v := range s.Index {
			idx[i] = strconv.Itoa(v)
		}
		fmt.Fprintf(&buf, "[%s]", strings.Join(idx, ","))
	case Slice:
		fmt.Fprintf(&buf, "[%s:%s]", bound(s.Lo), bound(s.Hi))
	case Filter:
		fmt.Fprintf(&buf, "[?(%s)]", s.Name)
	case Script:
		fmt.Fprintf(&buf, "[(%s)]", s.Name)
	}
	return buf.String()
}

func bound(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func parseStep(s string) (Step, string, error) {
	var recur bool
	t, ok := strings.CutPrefix(s, "..")
	if ok {
		recur = true
		if u, ok := strings.CutPrefix(t, "["); ok {
			step, rest, err := parseBracket(u)
			step.Recur = true
			return step, rest, err
		}
	} else if t, ok = strings.CutPrefix(s, "."); !ok {
		if u, ok := strings.CutPrefix(s, "["); ok {
			return parseBracket(u)
		}
		return Step{}, s, errors.New("invalid path step")
	}

	op, name, rest, err := parseName(t)
	if err != nil {
		return Step{}, s, err
	}
	return Step{Op: op, Recur: recur, Dot: true, Name: name}, rest, nil
}

// parseBracket parses the contents of a bracketed step, following "[".
func parseBracket(s string) (Step, string, error) {
	var out Step
	var rest string
	var err error
	if t, ok := strings.CutPrefix(s, "?("); ok {
		out.Op = Filter
		out.Name, rest, err = parseScript(t)
	} else if t, ok := strings.CutPrefix(s, "("); ok {
		out.Op = Script
		out.Name, rest, err = parseScript(t)
	} else if lo, t, ok, ierr := parseIndex(s); ok || strings.HasPrefix(s, ":") {
		if ierr != nil {
			return Step{}, s, ierr
		}
		if u, ok := strings.CutPrefix(t, ":"); ok {
			out.Op = Slice
			if len(lo) != 0 {
				if len(lo) > 1 {
					return Step{}, s, errors.New("invalid slice")
				}
				out.Lo = &lo[0]
			}
			hi, v, ok, herr := parseIndex(u)
			switch {
			case herr != nil:
				return Step{}, s, herr
			case ok && len(hi) > 1:
				return Step{}, s, errors.New("invalid slice")
			case ok:
				out.Hi = &hi[0]
			}
			rest = v
		} else {
			out.Op = Index
			out.Index = lo
			rest = t
		}
	} else {
		out.Op, out.Name, rest, err = parseName(s)
	}
	if err != nil {
		return Step{}, s, err
	}
	rest, ok := strings.CutPrefix(rest, "]")
	if !ok {
		return Step{}, s, errors.New("missing close bracket")
	}
	return out, rest, nil
}

func parseName(s string) (Op, string, string, error) {
	if t, ok := strings.CutPrefix(s, "*"); ok {
		return Wildcard, "*", t, nil
	}
	if m := wordRE.FindStringSubmatch(s); m != nil {
		return Name, m[1], s[len(m[0]):], nil
	}
	if m := quoteRE.FindStringSubmatch(s); m != nil {
		return QName, m[1], s[len(m[0]):], nil
	}
	return Invalid, "", s, errors.New("invalid name")
}

// parseIndex parses a comma-separated list of indices at the front of s.
// It reports ok == false if s does not begin with an index.
func parseIndex(s string) (_ []int, rest string, ok bool, _ error) {
	m := indexRE.FindStringSubmatch(s)
	if m == nil {
		return nil, s, false, nil
	}
	var out []int
	for _, text := range strings.Split(m[1], ",") {
		v, err := strconv.Atoi(text)
		if err != nil {
			return nil, s, true, fmt.Errorf("invalid index %q: %w", text, err)
		}
		out = append(out, v)
	}
	return out, s[len(m[0]):], true, nil
}

func parseScript(s string) (text, rest string, _ error) {
	i, np := 0, 1
	for i < len(s) {
		if s[i] == ')' {
			np--
			if np == 0 {
				break
			}
		} else if s[i] == '(' {
			np++
		}
		i++
	}
	if np > 0 {
		return "", s, errors.New("unbalanced parentheses")
	}
	return s[:i], s[i+1:], nil
}

var (
	wordRE  = regexp.MustCompile(`^(\w+)`)
	indexRE = regexp.MustCompile(`^(-?\d+(?:,-?\d+)*)`)
	quoteRE = regexp.MustCompile(`^'([^']*)'`)
)
