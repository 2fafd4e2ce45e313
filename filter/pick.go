// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package filter

import (
	"io"
	"slices"

	"github.com/creachadair/jstream"
	"github.com/creachadair/mds/queue"
)

// Options control the behaviour of Pick and Ignore. A nil *Options provides
// default values.
type Options struct {
	// If true, select every matching subtree. Otherwise only the first match
	// is selected.
	Multiple bool
}

func (o *Options) multiple() bool { return o != nil && o.Multiple }

// A Picker is a jstream.TokenSource that forwards only the tokens of the
// subtrees whose starting token matches a filter.
type Picker struct {
	src      jstream.TokenSource
	f        Filter
	multiple bool

	tr     tracker
	sp     span
	active bool              // inside a matched subtree
	tail   jstream.TokenName // packed token that may complete the match
	done   bool
}

// Pick returns a Picker that reads tokens from src and forwards the tokens
// of each subtree matched by f. The tokens of one subtree are delivered
// without interruption; if opts.Multiple is true, the subtrees of later
// matches follow in document order. Matches nested inside a selected subtree
// are forwarded as part of it, and are not reported separately.
//
// Without Multiple, the Picker reports io.EOF after the first subtree, and
// does not read src beyond the end of the match.
func Pick(src jstream.TokenSource, f Filter, opts *Options) *Picker {
	return &Picker{src: src, f: f, multiple: opts.multiple()}
}

// Path returns a copy of the path of the most recent token read from the
// underlying source.
func (p *Picker) Path() Path { return slices.Clone(p.tr.path) }

// Next implements the jstream.TokenSource interface.
func (p *Picker) Next() (jstream.Token, error) {
	for !p.done {
		tok, err := p.src.Next()
		if err != nil {
			return tok, err
		}
		start := p.tr.enter(tok)
		fwd := p.step(tok, start)
		p.tr.leave(tok)
		if fwd {
			return tok, nil
		}
	}
	return jstream.Token{}, io.EOF
}

// step reports whether tok should be forwarded.
func (p *Picker) step(tok jstream.Token, start bool) bool {
	if p.tail != jstream.Invalid {
		want := p.tail
		p.tail = jstream.Invalid
		p.finish()
		if tok.Name == want {
			return true
		} else if p.done {
			return false
		}
	}
	if p.active {
		if p.sp.next(tok) {
			p.active = false
			p.endMatch(tok)
		}
		return true
	}
	if start && p.f.Match(p.tr.path, tok) {
		if p.sp.open(tok) {
			p.endMatch(tok)
		} else {
			p.active = true
		}
		return true
	}
	return false
}

// endMatch is called after the last token of a match.
func (p *Picker) endMatch(last jstream.Token) {
	if t := tailOf(last.Name); t != jstream.Invalid {
		p.tail = t
		return
	}
	p.finish()
}

func (p *Picker) finish() {
	if !p.multiple {
		p.done = true
	}
}

// An Ignorer is a jstream.TokenSource that forwards all the tokens of its
// source except those of subtrees that match a filter.
type Ignorer struct {
	src      jstream.TokenSource
	f        Filter
	multiple bool

	tr       tracker
	sp       span
	held     []jstream.Token // the key of an object member not yet decided
	out      *queue.Queue[jstream.Token]
	skipping bool
	tail     jstream.TokenName // packed token to discard after a skipped scalar
	matched  bool
}

// Ignore returns an Ignorer that reads tokens from src and discards each
// subtree matched by f, together with its key if it is an object member.
// Without opts.Multiple, only the first match is discarded.
func Ignore(src jstream.TokenSource, f Filter, opts *Options) *Ignorer {
	return &Ignorer{src: src, f: f, multiple: opts.multiple(), out: queue.New[jstream.Token]()}
}

// Path returns a copy of the path of the most recent token read from the
// underlying source.
func (g *Ignorer) Path() Path { return slices.Clone(g.tr.path) }

// Next implements the jstream.TokenSource interface.
func (g *Ignorer) Next() (jstream.Token, error) {
	for g.out.Len() == 0 {
		tok, err := g.src.Next()
		if err != nil {
			return tok, err
		}
		isKey := g.tr.isKey(tok)
		start := g.tr.enter(tok)
		g.step(tok, start, isKey)
		g.tr.leave(tok)
	}
	tok, _ := g.out.Pop()
	return tok, nil
}

func (g *Ignorer) step(tok jstream.Token, start, isKey bool) {
	if g.tail != jstream.Invalid {
		want := g.tail
		g.tail = jstream.Invalid
		if tok.Name == want {
			return
		}
	}
	if g.skipping {
		if g.sp.next(tok) {
			g.skipping = false
			g.tail = tailOf(tok.Name)
		}
		return
	}
	if isKey {
		g.held = append(g.held, tok)
		return
	}
	if start && (g.multiple || !g.matched) && g.f.Match(g.tr.path, tok) {
		g.matched = true
		g.held = g.held[:0]
		if !g.sp.open(tok) {
			g.skipping = true
		}
		return
	}
	for _, h := range g.held {
		g.out.Add(h)
	}
	g.held = g.held[:0]
	g.out.Add(tok)
}

// A tracker maintains the path of the current token.
type tracker struct {
	path  Path
	prev  jstream.TokenName
	inKey bool
	key   []byte
}

// isKey reports whether tok is part of an object key.
func (t *tracker) isKey(tok jstream.Token) bool {
	switch tok.Name {
	case jstream.StartKey, jstream.EndKey, jstream.KeyValue:
		return true
	case jstream.StringChunk:
		return t.inKey
	}
	return false
}

// enter updates the path for tok, and reports whether tok begins a value.
// When it does, the path is the location of that value.
func (t *tracker) enter(tok jstream.Token) bool {
	switch tok.Name {
	case jstream.StartKey:
		t.inKey = true
		t.key = t.key[:0]
		return false
	case jstream.StringChunk:
		if t.inKey {
			t.key = append(t.key, tok.Value...)
		}
		return false
	case jstream.EndKey:
		t.inKey = false
		t.setKey(string(t.key))
		return false
	case jstream.KeyValue:
		t.setKey(tok.Value)
		return false
	case jstream.StringValue:
		if t.prev == jstream.EndString {
			return false
		}
	case jstream.NumberValue:
		if t.prev == jstream.EndNumber {
			return false
		}
	case jstream.StartObject, jstream.StartArray, jstream.StartString, jstream.StartNumber,
		jstream.NullValue, jstream.TrueValue, jstream.FalseValue:
		// OK, starts a value
	default:
		return false
	}
	if n := len(t.path); n > 0 {
		if i, ok := t.path[n-1].(int); ok {
			t.path[n-1] = i + 1
		}
	}
	return true
}

// leave completes the processing of tok, opening or closing its container.
func (t *tracker) leave(tok jstream.Token) {
	switch tok.Name {
	case jstream.StartObject:
		t.path = append(t.path, nil)
	case jstream.StartArray:
		t.path = append(t.path, -1) // incremented by the first element
	case jstream.EndObject, jstream.EndArray:
		if n := len(t.path); n > 0 {
			t.path = t.path[:n-1]
		}
	}
	t.prev = tok.Name
}

func (t *tracker) setKey(key string) {
	if n := len(t.path); n > 0 {
		t.path[n-1] = key
	}
}

// A span tracks the extent of a single value in the token stream.
type span struct {
	depth int               // open containers
	end   jstream.TokenName // the end of a streamed scalar, or Invalid
}

// open starts a span with tok, which begins a value, and reports whether the
// value is already complete.
func (s *span) open(tok jstream.Token) bool {
	switch tok.Name {
	case jstream.StartObject, jstream.StartArray:
		s.depth = 1
	case jstream.StartString:
		s.end = jstream.EndString
	case jstream.StartNumber:
		s.end = jstream.EndNumber
	default:
		return true
	}
	return false
}

// next adds tok to an open span and reports whether tok completes it.
func (s *span) next(tok jstream.Token) bool {
	if s.end != jstream.Invalid {
		if tok.Name == s.end {
			s.end = jstream.Invalid
			return true
		}
		return false
	}
	switch tok.Name {
	case jstream.StartObject, jstream.StartArray:
		s.depth++
	case jstream.EndObject, jstream.EndArray:
		s.depth--
		return s.depth == 0
	}
	return false
}

// tailOf returns the packed token that may follow a value ending with a
// token of the given name, or Invalid.
func tailOf(name jstream.TokenName) jstream.TokenName {
	switch name {
	case jstream.EndString:
		return jstream.StringValue
	case jstream.EndNumber:
		return jstream.NumberValue
	}
	return jstream.Invalid
}
