// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package assemble constructs in-memory values from a stream of JSON tokens.
//
// Values are represented as for the encoding/json package:
//
//	JSON type | Go type
//	--------- | ---------------------------------------------------
//	object    | map[string]any
//	array     | []any
//	string    | string
//	number    | float64, or json.Number if Options.NumberAsString
//	true      | bool
//	null      | nil
//
// The Assembler consumes the packed value tokens (KeyValue, StringValue,
// NumberValue) and ignores the streamed chunk tokens, so its input must be
// produced with PackValues enabled (the default).
package assemble

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"

	"github.com/creachadair/jstream"
)

// ErrUnexpectedToken is reported when a token cannot occur at the current
// position of the assembler.
var ErrUnexpectedToken = errors.New("unexpected token")

// A Reviver transforms each completed value before it is stored in its
// parent. The key is the member name for object members, the decimal index
// for array elements, and "" for a top-level value. If the reviver returns
// false, an object member is omitted, an array element is set to nil so that
// later elements keep their positions, and a top-level value becomes nil.
//
// Revivers are called bottom-up: all the members or elements of a container
// are revived before the container itself.
type Reviver func(key string, value any) (any, bool)

// Options control the behaviour of an Assembler. A nil *Options provides
// default values.
type Options struct {
	// If not nil, call Reviver on each completed value.
	Reviver Reviver

	// If true, report numbers as json.Number with the literal text of the
	// number, rather than as float64.
	NumberAsString bool
}

func (o *Options) reviver() Reviver {
	if o == nil {
		return nil
	}
	return o.Reviver
}

func (o *Options) numberAsString() bool { return o != nil && o.NumberAsString }

// An Assembler constructs values from tokens. Call Push with each token in
// turn; when a token completes a top-level value, Push returns it.
type Assembler struct {
	reviver Reviver
	numStr  bool
	stk     []frame
}

// A frame is a container under construction.
type frame struct {
	obj  map[string]any // if an object
	arr  []any          // if an array
	key  string         // the pending key, for an object
	last string         // the most recently stored key, for an object
	n    int            // number of elements seen, for an array

	stored bool // the most recent child was stored, not omitted
	slot   bool // the most recent child occupies the last array slot
}

func (f frame) isObject() bool { return f.obj != nil }

func (f frame) value() any {
	if f.isObject() {
		return f.obj
	}
	return f.arr
}

// New constructs a new Assembler with the given options.
func New(opts *Options) *Assembler {
	return &Assembler{reviver: opts.reviver(), numStr: opts.numberAsString()}
}

// Depth reports the number of containers under construction.
func (a *Assembler) Depth() int { return len(a.stk) }

// Current returns the innermost container under construction, either a
// map[string]any or a []any, or nil if no container is open.
func (a *Assembler) Current() any {
	if len(a.stk) == 0 {
		return nil
	}
	return a.top().value()
}

// Key returns the pending key of the innermost container, if it is an
// object, or "".
func (a *Assembler) Key() string {
	if len(a.stk) == 0 {
		return ""
	}
	return a.top().key
}

// Frame returns the container under construction at nesting depth i, where
// the outermost container has depth 1, or nil if there is none.
func (a *Assembler) Frame(i int) any {
	if i < 1 || i > len(a.stk) {
		return nil
	}
	return a.stk[i-1].value()
}

// Last returns the most recently stored member or element of the innermost
// container. It reports false if no container is open, or if the most
// recent child was omitted by the reviver or removed by Drop.
func (a *Assembler) Last() (any, bool) {
	if len(a.stk) == 0 || !a.top().stored {
		return nil, false
	}
	f := a.top()
	if f.isObject() {
		return f.obj[f.last], true
	}
	return f.arr[len(f.arr)-1], true
}

// Drop removes the most recent member or element of the innermost container,
// including the nil slot of an omitted array element, releasing it to the
// garbage collector. The index of subsequent
// array elements is not affected. Drop is used by streamers to bound the
// memory retained for a large container.
func (a *Assembler) Drop() {
	if len(a.stk) == 0 {
		return
	}
	f := a.top()
	if f.isObject() && f.stored {
		delete(f.obj, f.last)
	} else if f.slot {
		n := len(f.arr)
		f.arr[n-1] = nil
		f.arr = f.arr[:n-1]
	}
	f.stored, f.slot = false, false
}

// Truncate discards the innermost containers under construction, without
// storing them, until at most depth remain open.
func (a *Assembler) Truncate(depth int) {
	if depth < 0 {
		depth = 0
	}
	for len(a.stk) > depth {
		a.stk[len(a.stk)-1] = frame{}
		a.stk = a.stk[:len(a.stk)-1]
	}
}

// Reset discards any partially-assembled value.
func (a *Assembler) Reset() { a.Truncate(0) }

// Push processes tok. If tok completes a top-level value, Push returns that
// value and true. Tokens that do not affect assembly, such as string chunks,
// are ignored.
func (a *Assembler) Push(tok jstream.Token) (any, bool, error) {
	switch tok.Name {
	case jstream.StartObject:
		a.push(frame{obj: make(map[string]any)})
	case jstream.StartArray:
		a.push(frame{arr: []any{}})
	case jstream.EndObject, jstream.EndArray:
		if len(a.stk) == 0 || a.top().isObject() != (tok.Name == jstream.EndObject) {
			return nil, false, fmt.Errorf("%w %v", ErrUnexpectedToken, tok.Name)
		}
		f := a.pop()
		return a.reduce(f.value())
	case jstream.KeyValue:
		if len(a.stk) == 0 || !a.top().isObject() {
			return nil, false, fmt.Errorf("%w %v outside an object", ErrUnexpectedToken, tok.Name)
		}
		a.top().key = tok.Value
	case jstream.StringValue:
		return a.reduce(tok.Value)
	case jstream.NumberValue:
		if a.numStr {
			return a.reduce(json.Number(tok.Value))
		}
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, false, fmt.Errorf("invalid number %q: %w", tok.Value, err)
		}
		return a.reduce(v)
	case jstream.NullValue:
		return a.reduce(nil)
	case jstream.TrueValue:
		return a.reduce(true)
	case jstream.FalseValue:
		return a.reduce(false)
	case jstream.Invalid:
		return nil, false, fmt.Errorf("%w %v", ErrUnexpectedToken, tok.Name)
	}
	return nil, false, nil
}

// reduce stores a completed value v in the innermost container, or reports
// it as a complete top-level value if no container is open.
func (a *Assembler) reduce(v any) (any, bool, error) {
	if len(a.stk) == 0 {
		if a.reviver != nil {
			if w, ok := a.reviver("", v); ok {
				v = w
			} else {
				v = nil
			}
		}
		return v, true, nil
	}

	f := a.top()
	if f.isObject() {
		if a.reviver != nil {
			w, ok := a.reviver(f.key, v)
			if !ok {
				f.stored = false
				return nil, false, nil
			}
			v = w
		}
		f.obj[f.key] = v
		f.last = f.key
		f.stored = true
	} else {
		idx := f.n
		f.n++
		if a.reviver != nil {
			w, ok := a.reviver(strconv.Itoa(idx), v)
			if !ok {
				f.arr = append(f.arr, nil)
				f.stored, f.slot = false, true
				return nil, false, nil
			}
			v = w
		}
		f.arr = append(f.arr, v)
		f.stored, f.slot = true, true
	}
	return nil, false, nil
}

func (a *Assembler) top() *frame { return &a.stk[len(a.stk)-1] }

func (a *Assembler) pop() frame {
	last := a.stk[len(a.stk)-1]
	a.stk = a.stk[:len(a.stk)-1]
	return last
}

func (a *Assembler) push(f frame) { a.stk = append(a.stk, f) }

// A Decoder reports complete values assembled from a TokenSource.
type Decoder struct {
	src jstream.TokenSource
	asm *Assembler
}

// NewDecoder constructs a Decoder that assembles values from the tokens of
// src using the given options.
func NewDecoder(src jstream.TokenSource, opts *Options) *Decoder {
	return &Decoder{src: src, asm: New(opts)}
}

// Assembler returns the assembler used by d.
func (d *Decoder) Assembler() *Assembler { return d.asm }

// Next returns the next complete value from the source. It returns io.EOF if
// the source is exhausted between values, and io.ErrUnexpectedEOF if the
// source ends in the middle of a value.
func (d *Decoder) Next() (any, error) {
	for {
		tok, err := d.src.Next()
		if err == io.EOF {
			if d.asm.Depth() != 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, io.EOF
		} else if err != nil {
			return nil, err
		}
		v, ok, err := d.asm.Push(tok)
		if err != nil {
			return nil, err
		} else if ok {
			return v, nil
		}
	}
}

// Values returns a sequence of the values from d. The sequence ends after
// the last value, or after yielding the first error other than io.EOF.
func (d *Decoder) Values() iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for {
			v, err := d.Next()
			if err == io.EOF {
				return
			} else if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Decode reads a single JSON value from r and returns it. It is an error if
// the input contains anything other than whitespace after the value.
func Decode(r io.Reader, opts *Options) (any, error) {
	d := NewDecoder(jstream.NewDecoder(r), opts)
	v, err := d.Next()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	} else if err != nil {
		return nil, err
	}
	if _, err := d.Next(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected extra value")
		}
		return nil, err
	}
	return v, nil
}
