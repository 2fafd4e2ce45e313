// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package filter implements token stream filters that select or discard the
// subtrees of a JSON document by their location, without assembling the
// rest of the document.
//
// A filter is a jstream.TokenSource that wraps another source. Pick forwards
// only the tokens of the subtrees that match a Filter and Ignore forwards
// everything except those subtrees:
//
//	dec := jstream.NewDecoder(input)
//	data := filter.Pick(dec, filter.Key("data"), nil)
//	v, err := assemble.NewDecoder(data, nil).Next()
package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/creachadair/jstream"
	"github.com/creachadair/jstream/jpath"
)

// A Path is the location of a value relative to the root of a document.
// Each element is a string object key or an int array index, outermost
// first. The path of the root value is empty. Within an object, before its
// first key has been read, the last element is nil.
type Path []any

// String renders p as its elements joined by ".". For example, the path of
// the "x" in {"a": [{"x": 1}]} is "a.0.x".
func (p Path) String() string {
	var buf strings.Builder
	for i, elt := range p {
		if i > 0 {
			buf.WriteByte('.')
		}
		switch v := elt.(type) {
		case string:
			buf.WriteString(v)
		case int:
			buf.WriteString(strconv.Itoa(v))
		}
	}
	return buf.String()
}

// A Filter decides whether the value starting with tok at path is selected.
// Match is called only for tokens that begin a value. The filter must not
// retain path, which is modified as the stream advances.
type Filter interface {
	Match(path Path, tok jstream.Token) bool
}

// Key returns a Filter that matches a value whose path renders as key.
// For example, Key("data.items") matches {"data": {"items": ...}}.
func Key(key string) Filter { return keyFilter(key) }

type keyFilter string

func (k keyFilter) Match(path Path, _ jstream.Token) bool { return path.String() == string(k) }

// Index returns a Filter that matches the element at offset i of a
// top-level array.
func Index(i int) Filter { return indexFilter(i) }

type indexFilter int

func (x indexFilter) Match(path Path, _ jstream.Token) bool {
	if len(path) != 1 {
		return false
	}
	i, ok := path[0].(int)
	return ok && i == int(x)
}

// Regexp returns a Filter that matches a value whose rendered path matches
// re.
func Regexp(re *regexp.Regexp) Filter { return regexpFilter{re} }

type regexpFilter struct{ re *regexp.Regexp }

func (r regexpFilter) Match(path Path, _ jstream.Token) bool { return r.re.MatchString(path.String()) }

// Func is a Filter implemented by a function.
type Func func(Path, jstream.Token) bool

// Match implements the Filter interface.
func (f Func) Match(path Path, tok jstream.Token) bool { return f(path, tok) }

// Expr returns a Filter that matches the values selected by the JSONPath
// expression s. Expressions are matched against paths alone, so script and
// filter steps, and negative array indices, are not supported.
func Expr(s string) (Filter, error) {
	e, err := jpath.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}
	return compile(e)
}

func compile(e jpath.Expr) (Filter, error) {
	if e.Scripted() {
		return nil, fmt.Errorf("path %q: script and filter steps are not supported", e)
	}
	for _, s := range e {
		if s.Negative() {
			return nil, fmt.Errorf("path %q: negative index %s is not supported", e, s)
		}
	}
	return exprFilter{e}, nil
}

type exprFilter struct{ e jpath.Expr }

func (x exprFilter) Match(path Path, _ jstream.Token) bool { return x.e.Match(path) }

// New constructs a Filter from v. The concrete type of v must be one of:
//
//	Filter                           : returned as-is
//	string                           : as Key
//	int                              : as Index
//	*regexp.Regexp                   : as Regexp
//	func(Path, jstream.Token) bool   : as Func
//	jpath.Expr                       : as Expr
//
// New will panic for any other type, or for an expression that Expr does
// not support.
func New(v any) Filter {
	switch t := v.(type) {
	case Filter:
		return t
	case string:
		return Key(t)
	case int:
		return Index(t)
	case *regexp.Regexp:
		return Regexp(t)
	case func(Path, jstream.Token) bool:
		return Func(t)
	case jpath.Expr:
		f, err := compile(t)
		if err != nil {
			panic(err)
		}
		return f
	default:
		panic(fmt.Sprintf("filter: unsupported type %T", v))
	}
}
