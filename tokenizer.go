// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"unicode/utf8"
)

// maxRun bounds the number of input bytes examined by a single step of the
// tokenizer, so that the work done per step does not depend on the size of
// the scalar being scanned.
const maxRun = 256

// A Tokenizer is an incremental JSON tokenizer. Input is supplied in chunks
// of arbitrary size with Write, and tokens are retrieved with Next:
//
//	t := jstream.NewTokenizer()
//	t.WriteString(`{"a": [1, `)
//	for {
//	   tok, err := t.Next()
//	   if err == jstream.ErrNeedInput {
//	      break // write another chunk
//	   }
//	   ...
//	}
//
// Chunk boundaries may fall anywhere, including inside strings, escapes,
// numbers, and literals. All progress is recorded in the tokenizer itself,
// so no input is lost between chunks.
//
// After the last chunk, call Close. Next then reports io.EOF once the input
// is complete, or a *SyntaxError wrapping ErrIncomplete if it ends inside a
// value. Any syntax error is fatal: the tokenizer reports the same error for
// all subsequent calls.
type Tokenizer struct {
	buf        []byte      // unconsumed input is buf[index:]
	index      int         // offset of the next unconsumed byte
	state      stateID     // what the tokenizer expects next
	stack      []container // open containers, innermost last
	acc        []byte      // pieces of the current key, string, or number
	openNumber bool        // a number is started but not ended

	pos   position // location of buf[index]
	queue []Token  // tokens ready to be delivered
	qpos  int      // next undelivered token in queue

	multiple bool // allow concatenated top-level values
	stream   bool // emit start/chunk/end tokens
	pack     bool // emit complete value tokens
	closed   bool
	err      error
}

// NewTokenizer constructs a new Tokenizer with default settings: a single
// top-level value, with both streamed and packed tokens enabled.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{state: stValue, stream: true, pack: true}
}

// AllowMultiple configures the tokenizer to accept (true) or reject (false)
// a sequence of top-level values. By default, any non-whitespace input after
// the first complete value is an error.
func (t *Tokenizer) AllowMultiple(ok bool) { t.multiple = ok }

// StreamValues configures whether keys, strings, and numbers are reported as
// start, chunk, and end tokens (default true).
// It panics if both StreamValues and PackValues are disabled.
func (t *Tokenizer) StreamValues(ok bool) {
	if !ok && !t.pack {
		panic("jstream: tokenizer must stream or pack values")
	}
	t.stream = ok
}

// PackValues configures whether keys, strings, and numbers are reported as
// complete KeyValue, StringValue, and NumberValue tokens (default true).
// It panics if both StreamValues and PackValues are disabled.
func (t *Tokenizer) PackValues(ok bool) {
	if !ok && !t.stream {
		panic("jstream: tokenizer must stream or pack values")
	}
	t.pack = ok
}

// Write appends p to the input of t. It reports an error if t is closed or
// has already failed. Write never retains p.
func (t *Tokenizer) Write(p []byte) (int, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	t.compact()
	t.buf = append(t.buf, p...)
	return len(p), nil
}

// WriteString appends s to the input of t, as Write.
func (t *Tokenizer) WriteString(s string) (int, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	t.compact()
	t.buf = append(t.buf, s...)
	return len(s), nil
}

func (t *Tokenizer) writable() error {
	if t.closed {
		return ErrClosed
	} else if t.err != nil {
		return t.err
	}
	return nil
}

// compact discards the consumed prefix of the buffer.
func (t *Tokenizer) compact() {
	if t.index == 0 {
		return
	}
	n := copy(t.buf, t.buf[t.index:])
	t.buf = t.buf[:n]
	t.index = 0
	if n == 0 && cap(t.buf) > 64*maxRun {
		t.buf = nil // release a buffer grown by one large chunk
	}
}

// Close marks the end of the input. It does not report an error; the
// outcome of the input is reported by Next.
func (t *Tokenizer) Close() error { t.closed = true; return nil }

// Depth reports the number of containers currently open.
func (t *Tokenizer) Depth() int { return len(t.stack) }

// Location reports the location of the next unconsumed input byte.
func (t *Tokenizer) Location() LineCol { return t.pos.lineCol() }

// Next reports the next available token. If the buffered input is exhausted
// before a token is complete, Next returns ErrNeedInput. After Close, Next
// returns io.EOF at the end of a complete input.
func (t *Tokenizer) Next() (Token, error) {
	for t.qpos == len(t.queue) {
		t.queue, t.qpos = t.queue[:0], 0
		if t.err != nil {
			return Token{}, t.err
		}
		switch err := steps[t.state](t); err {
		case nil, errAgain:
			// progress; run the next step
		case errMore:
			if !t.closed {
				return Token{}, ErrNeedInput
			}
			t.err = t.finish()
		default:
			t.err = err
		}
	}
	tok := t.queue[t.qpos]
	t.qpos++
	return tok, nil
}

// Feed writes chunk to t and returns a sequence of the tokens that are then
// available. The sequence ends when t needs more input or reaches the end of
// its input. The chunk is written when the sequence is first iterated.
func (t *Tokenizer) Feed(chunk string) iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		if _, err := t.WriteString(chunk); err != nil {
			yield(Token{}, err)
			return
		}
		for {
			tok, err := t.Next()
			if err == ErrNeedInput || err == io.EOF {
				return
			} else if !yield(tok, err) || err != nil {
				return
			}
		}
	}
}

// finish is called when a step needs more input after Close. It flushes a
// number still open at the end of the input, and otherwise reports whether
// the input ended cleanly.
func (t *Tokenizer) finish() error {
	exhausted := t.index == len(t.buf)
	if t.openNumber && exhausted && numberCanEnd(t.state) {
		t.endNumber()
		return nil
	}
	if exhausted {
		if t.state == stDone {
			return io.EOF
		} else if t.state == stValue && len(t.stack) == 0 && t.multiple {
			return io.EOF
		}
	}
	return t.syntaxError(ErrIncomplete, "unexpected end of input, expected %s", t.expected())
}

var (
	errMore  = errors.New("need more input")  // the step cannot proceed without input
	errAgain = errors.New("step limit reached") // the step made progress and should be repeated
)

type container byte

const (
	inObject container = iota + 1
	inArray
)

// Emitters. Structural tokens are always reported; streamed tokens only if
// stream is enabled, and packed tokens only if pack is enabled.

func (t *Tokenizer) emit(name TokenName) { t.queue = append(t.queue, Token{Name: name}) }

func (t *Tokenizer) streamed(name TokenName, value string) {
	if t.stream {
		t.queue = append(t.queue, Token{Name: name, Value: value})
	}
}

func (t *Tokenizer) packed(name TokenName) {
	if t.pack {
		t.queue = append(t.queue, Token{Name: name, Value: string(t.acc)})
	}
	t.acc = t.acc[:0]
}

// piece reports a chunk of the current scalar and adds it to the
// accumulator.
func (t *Tokenizer) piece(name TokenName, text []byte) {
	t.streamed(name, string(text))
	if t.pack {
		t.acc = append(t.acc, text...)
	}
}

// Input helpers.

func (t *Tokenizer) rest() []byte { return t.buf[t.index:] }

func (t *Tokenizer) skip(n int) {
	t.pos.advance(t.buf[t.index : t.index+n])
	t.index += n
}

// space discards leading whitespace and returns the next input byte without
// consuming it. At most maxRun bytes are discarded per call.
func (t *Tokenizer) space() (byte, error) {
	rest := t.rest()
	n := 0
	for n < len(rest) && isSpace(rest[n]) {
		if n == maxRun {
			t.skip(n)
			return 0, errAgain
		}
		n++
	}
	t.skip(n)
	if n == len(rest) {
		return 0, errMore
	}
	return rest[n], nil
}

// digits reports the length of the run of decimal digits at the front of the
// input, up to maxRun.
func (t *Tokenizer) digits() int {
	rest := t.rest()
	n := 0
	for n < len(rest) && n < maxRun && isDigit(rest[n]) {
		n++
	}
	return n
}

// Errors.

func (t *Tokenizer) syntaxError(err error, msg string, args ...any) error {
	return &SyntaxError{
		Location: t.pos.lineCol(),
		Offset:   t.pos.offset,
		Message:  fmt.Sprintf(msg, args...),
		err:      err,
	}
}

// fail reports a syntax error at the next input byte, which did not satisfy
// the expectation described by want.
func (t *Tokenizer) fail(want string) error {
	r, _ := utf8.DecodeRune(t.rest())
	return t.syntaxError(nil, "expected %s, found %q", want, r)
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool { return '0' <= c && c <= '9' }
