// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package stream reports the elements of a large JSON container one at a
// time, without retaining the whole container in memory.
//
// A Streamer assembles each child of the container at the chosen level and
// reports it as an Item. After an item is reported, the streamer removes it
// from the partially-assembled container, so that memory use is bounded by
// the size of one element rather than the whole collection:
//
//	s := stream.Array(jstream.NewDecoder(input), nil)
//	for item, err := range s.All() {
//	   if err != nil {
//	      log.Fatalf("Stream: %v", err)
//	   }
//	   process(item.Index, item.Value)
//	}
package stream

import (
	"errors"
	"io"
	"iter"

	"github.com/creachadair/jstream"
	"github.com/creachadair/jstream/assemble"
)

var (
	// ErrNotArray is reported by an array streamer whose input is not an array.
	ErrNotArray = errors.New("top-level object should be an array")

	// ErrNotObject is reported by an object streamer whose input is not an
	// object.
	ErrNotObject = errors.New("top-level object should be an object")
)

// A Verdict is the decision of an Accept function about an element.
type Verdict int

const (
	Undecided Verdict = iota // not yet decided; ask again
	Keep                     // assemble and report the element
	Reject                   // skip the element
)

// Options control the behaviour of a Streamer. A nil *Options provides
// default values.
type Options struct {
	// The nesting depth of the containers whose children are reported.
	// Level 1, the default, reports the children of the top-level container.
	// Values streamers ignore this field.
	Level int

	// Options for the assembly of element values.
	Assemble assemble.Options

	// If not nil, Accept is called while each element is assembled, with the
	// key of the element (a string for an object member, an int index for an
	// array element or top-level value) and its partial value. Once Accept
	// returns Keep, it is not called again for that element. If Accept
	// returns Reject, the rest of the element is skipped without assembling
	// it. Accept is called a final time with the complete value of an
	// element that is still Undecided; an element never decided is kept.
	Accept func(key any, partial any) Verdict
}

func (o *Options) level() int {
	if o == nil || o.Level <= 0 {
		return 1
	}
	return o.Level
}

func (o *Options) assemble() *assemble.Options {
	if o == nil {
		return nil
	}
	return &o.Assemble
}

func (o *Options) accept() func(any, any) Verdict {
	if o == nil {
		return nil
	}
	return o.Accept
}

// An Item is a single element reported by a Streamer.
type Item struct {
	Index int    // offset of the element in its container, or in the stream
	Key   string // the member name, for an element of an object
	Value any    // the assembled value of the element
}

// A Streamer reports the elements of a container from a token source.
type Streamer struct {
	src     jstream.TokenSource
	asm     *assemble.Assembler
	level   int
	shape   jstream.TokenName // required top-level start token, or Invalid
	errType error             // reported if shape is not satisfied
	accept  func(any, any) Verdict

	index   int    // index of the next element
	key     string // the key of the current element, in an object
	decided bool   // Accept returned Keep for the current element
	skip    int    // containers left open by a rejected element
	err     error
}

// Array returns a Streamer that reports the elements of the top-level array
// of src, or of the containers at opts.Level. If the input is not an array,
// the streamer reports ErrNotArray.
func Array(src jstream.TokenSource, opts *Options) *Streamer {
	return newStreamer(src, opts, opts.level(), jstream.StartArray, ErrNotArray)
}

// Object returns a Streamer that reports the members of the top-level
// object of src, or of the containers at opts.Level. If the input is not an
// object, the streamer reports ErrNotObject.
func Object(src jstream.TokenSource, opts *Options) *Streamer {
	return newStreamer(src, opts, opts.level(), jstream.StartObject, ErrNotObject)
}

// Values returns a Streamer that reports each top-level value of src, which
// may contain a sequence of values if its tokenizer allows multiple values.
func Values(src jstream.TokenSource, opts *Options) *Streamer {
	return newStreamer(src, opts, 0, jstream.Invalid, nil)
}

func newStreamer(src jstream.TokenSource, opts *Options, level int, shape jstream.TokenName, errType error) *Streamer {
	return &Streamer{
		src:     src,
		asm:     assemble.New(opts.assemble()),
		level:   level,
		shape:   shape,
		errType: errType,
		accept:  opts.accept(),
	}
}

// Assembler returns the assembler used by s. The caller may inspect its
// state between calls to Next, but must not modify it.
func (s *Streamer) Assembler() *assemble.Assembler { return s.asm }

// Next reports the next element. It returns io.EOF once the input is
// exhausted, and io.ErrUnexpectedEOF if the input ends inside an element.
// Any error is fatal to the streamer.
func (s *Streamer) Next() (Item, error) {
	for s.err == nil {
		tok, err := s.src.Next()
		if err == io.EOF && (s.asm.Depth() != 0 || s.skip > 0) {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			s.err = err
			break
		}
		if item, ok := s.push(tok); ok {
			return item, nil
		}
	}
	return Item{}, s.err
}

// All returns a sequence of the elements of s. The sequence ends after the
// last element, or after yielding the first error other than io.EOF.
func (s *Streamer) All() iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		for {
			item, err := s.Next()
			if err == io.EOF {
				return
			} else if !yield(item, err) || err != nil {
				return
			}
		}
	}
}

// push processes tok, and reports an element if tok completes one.
func (s *Streamer) push(tok jstream.Token) (Item, bool) {
	if s.skip > 0 {
		switch tok.Name {
		case jstream.StartObject, jstream.StartArray:
			s.skip++
		case jstream.EndObject, jstream.EndArray:
			s.skip--
			if s.skip == 0 {
				s.next()
			}
		}
		return Item{}, false
	}

	depth := s.asm.Depth()
	if depth == 0 && s.shape != jstream.Invalid && startsValue(tok.Name) && tok.Name != s.shape {
		s.err = s.errType
		return Item{}, false
	}
	if depth == s.level && tok.Name == jstream.KeyValue {
		s.key = tok.Value
	}

	v, done, err := s.asm.Push(tok)
	if err != nil {
		s.err = err
		return Item{}, false
	}
	nd := s.asm.Depth()
	if s.level == 0 {
		if done {
			return s.complete(v, true)
		}
	} else if nd == s.level && (depth == s.level+1 || (depth == s.level && isScalar(tok.Name))) {
		v, ok := s.asm.Last()
		s.asm.Drop()
		return s.complete(v, ok)
	} else if nd == s.level && depth == s.level-1 {
		s.index = 0 // a new container at the target level
	} else if nd > 0 && nd < s.level && (depth == nd+1 || (depth == nd && isScalar(tok.Name))) {
		s.asm.Drop() // a value completed outside the target level
	}

	if nd > s.level && s.accept != nil && !s.decided {
		switch s.accept(s.keyArg(), s.asm.Frame(s.level+1)) {
		case Keep:
			s.decided = true
		case Reject:
			s.skip = nd - s.level
			s.asm.Truncate(s.level)
		}
	}
	return Item{}, false
}

// complete reports a completed element v, if ok.
func (s *Streamer) complete(v any, ok bool) (Item, bool) {
	item := Item{Index: s.index, Value: v}
	if s.inObject() {
		item.Key = s.key
	}
	if ok && s.accept != nil && !s.decided {
		ok = s.accept(s.keyArg(), v) != Reject
	}
	s.next()
	return item, ok
}

// next advances to the next element.
func (s *Streamer) next() {
	s.index++
	s.decided = false
}

func (s *Streamer) inObject() bool {
	_, ok := s.asm.Frame(s.level).(map[string]any)
	return s.level > 0 && ok
}

func (s *Streamer) keyArg() any {
	if s.inObject() {
		return s.key
	}
	return s.index
}

func startsValue(name jstream.TokenName) bool {
	switch name {
	case jstream.StartObject, jstream.StartArray, jstream.StartString, jstream.StartNumber:
		return true
	}
	return isScalar(name)
}

func isScalar(name jstream.TokenName) bool {
	switch name {
	case jstream.StringValue, jstream.NumberValue, jstream.NullValue, jstream.TrueValue, jstream.FalseValue:
		return true
	}
	return false
}
