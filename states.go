// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"unicode/utf8"

	"github.com/creachadair/jstream/internal/escape"

	"go4.org/mem"
)

// stateID identifies what the tokenizer expects next in its input.
type stateID byte

const (
	stValue           stateID = iota // any value
	stValue1                         // a value or "]", after "["
	stString                         // the contents of a string value
	stKey1                           // an object key or "}", after "{"
	stKey                            // an object key, after ","
	stKeyString                      // the contents of an object key
	stColon                          // ":" after a key
	stStop                           // "," or a closing bracket after a value
	stDone                           // whitespace after a top-level value
	stNumberStart                    // first digit after "-"
	stNumberDigit                    // remaining integer digits
	stNumberFraction                 // optional "." or exponent
	stNumberFracStart                // first digit after "."
	stNumberFracDigit                // remaining fraction digits
	stNumberExponent                 // optional exponent after the fraction
	stNumberExpSign                  // optional sign after "e"
	stNumberExpStart                 // first exponent digit
	stNumberExpDigit                 // remaining exponent digits
)

// steps maps each state to the function that advances the tokenizer from
// that state. A step returns nil or errAgain if it made progress, errMore if
// it cannot proceed without more input, or a syntax error.
var steps = [...]func(*Tokenizer) error{
	stValue:           (*Tokenizer).value,
	stValue1:          (*Tokenizer).value1,
	stString:          (*Tokenizer).str,
	stKey1:            (*Tokenizer).key1,
	stKey:             (*Tokenizer).key,
	stKeyString:       (*Tokenizer).str,
	stColon:           (*Tokenizer).colon,
	stStop:            (*Tokenizer).stop,
	stDone:            (*Tokenizer).done,
	stNumberStart:     (*Tokenizer).numberStart,
	stNumberDigit:     (*Tokenizer).numberDigit,
	stNumberFraction:  (*Tokenizer).numberFraction,
	stNumberFracStart: (*Tokenizer).numberFracStart,
	stNumberFracDigit: (*Tokenizer).numberFracDigit,
	stNumberExponent:  (*Tokenizer).numberExponent,
	stNumberExpSign:   (*Tokenizer).numberExpSign,
	stNumberExpStart:  (*Tokenizer).numberExpStart,
	stNumberExpDigit:  (*Tokenizer).numberExpDigit,
}

// expected describes what the tokenizer wants in its current state.
func (t *Tokenizer) expected() string {
	switch t.state {
	case stValue:
		return "a value"
	case stValue1:
		return "a value or ']'"
	case stString, stKeyString:
		return "a closing quote"
	case stKey1:
		return "an object key or '}'"
	case stKey:
		return "an object key"
	case stColon:
		return "':'"
	case stStop:
		if t.stack[len(t.stack)-1] == inObject {
			return "',' or '}'"
		}
		return "',' or ']'"
	case stNumberStart:
		return "a digit"
	case stNumberFracStart:
		return "a fractional digit"
	case stNumberExpSign:
		return "an exponent sign or digit"
	case stNumberExpStart:
		return "an exponent digit"
	}
	return "the end of input"
}

func (t *Tokenizer) value() error {
	c, err := t.space()
	if err != nil {
		return err
	}
	return t.startValue(c)
}

func (t *Tokenizer) value1() error {
	c, err := t.space()
	if err != nil {
		return err
	} else if c == ']' {
		t.skip(1)
		t.closeContainer(EndArray)
		return nil
	}
	return t.startValue(c)
}

// startValue dispatches on the first byte c of a value.
func (t *Tokenizer) startValue(c byte) error {
	switch {
	case c == '"':
		t.skip(1)
		t.acc = t.acc[:0]
		t.streamed(StartString, "")
		t.state = stString
	case c == '{':
		t.skip(1)
		t.emit(StartObject)
		t.stack = append(t.stack, inObject)
		t.state = stKey1
	case c == '[':
		t.skip(1)
		t.emit(StartArray)
		t.stack = append(t.stack, inArray)
		t.state = stValue1
	case c == 't':
		return t.literal("true", TrueValue)
	case c == 'f':
		return t.literal("false", FalseValue)
	case c == 'n':
		return t.literal("null", NullValue)
	case c == '-':
		t.beginNumber(stNumberStart)
	case c == '0':
		// A leading zero cannot be followed by further integer digits.
		t.beginNumber(stNumberFraction)
	case isDigit(c):
		t.beginNumber(stNumberDigit)
	default:
		return t.fail(t.expected())
	}
	return nil
}

// literal consumes one of the constants true, false, null. The constant is
// consumed whole, so a constant split between chunks waits for more input.
func (t *Tokenizer) literal(lit string, name TokenName) error {
	rest := mem.B(t.rest())
	if rest.Len() < len(lit) {
		if mem.HasPrefix(mem.S(lit), rest) {
			return errMore
		}
		return t.fail(lit)
	} else if !mem.HasPrefix(rest, mem.S(lit)) {
		return t.fail(lit)
	}
	t.skip(len(lit))
	t.emit(name)
	t.afterValue()
	return nil
}

// afterValue sets the state following a complete value.
func (t *Tokenizer) afterValue() {
	if len(t.stack) == 0 {
		t.state = stDone
	} else {
		t.state = stStop
	}
}

func (t *Tokenizer) closeContainer(name TokenName) {
	t.emit(name)
	t.stack = t.stack[:len(t.stack)-1]
	t.afterValue()
}

// str consumes part of a string or key body, in state stString or
// stKeyString.
func (t *Tokenizer) str() error {
	rest := t.rest()
	if len(rest) == 0 {
		return errMore
	}
	switch c := rest[0]; {
	case c == '"':
		t.skip(1)
		if t.state == stKeyString {
			t.streamed(EndKey, "")
			t.packed(KeyValue)
			t.state = stColon
		} else {
			t.streamed(EndString, "")
			t.packed(StringValue)
			t.afterValue()
		}
		return nil
	case c == '\\':
		return t.escape()
	case c < ' ':
		return t.syntaxError(nil, "unescaped control character %q in string", c)
	}

	n := 0
	for n < len(rest) && n < maxRun {
		if c := rest[n]; c == '"' || c == '\\' || c < ' ' {
			break
		}
		n++
	}
	if n == len(rest) || n == maxRun {
		// Do not split a UTF-8 sequence at the end of a run. If the run is only
		// a partial sequence, wait for the rest of it.
		n = fullRunes(rest[:n])
		if n == 0 {
			return errMore
		}
	}
	t.piece(StringChunk, rest[:n])
	t.skip(n)
	return nil
}

// escape consumes a backslash escape at the front of the input.
func (t *Tokenizer) escape() error {
	rest := t.rest()
	if len(rest) < 2 {
		return errMore
	}
	if b, ok := escape.Short(rest[1]); ok {
		t.piece(StringChunk, []byte{b})
		t.skip(2)
		return nil
	} else if rest[1] != 'u' {
		t.skip(1)
		return t.fail("a valid escape")
	}

	if len(rest) < 6 {
		if isHexPrefix(rest[2:]) {
			return errMore
		}
		return t.syntaxError(nil, "expected four hex digits after \\u")
	}
	r, ok := escape.Hex4(mem.B(rest[2:6]))
	if !ok {
		return t.syntaxError(nil, "expected four hex digits after \\u")
	}
	n := 6
	if escape.IsHighSurrogate(r) {
		// The low half of a surrogate pair may be in the next chunk.
		next := rest[6:]
		if len(next) < 6 && !t.closed && isEscapePrefix(next) {
			return errMore
		}
		if len(next) >= 6 && next[0] == '\\' && next[1] == 'u' {
			if lo, ok := escape.Hex4(mem.B(next[2:6])); ok && lo >= 0xdc00 && lo < 0xe000 {
				n = 12
			}
		}
	}
	dec, err := escape.Unquote(mem.B(rest[:n]))
	if err != nil {
		return t.syntaxError(err, "invalid escape: %v", err)
	}
	t.piece(StringChunk, dec)
	t.skip(n)
	return nil
}

func (t *Tokenizer) key1() error {
	c, err := t.space()
	if err != nil {
		return err
	} else if c == '}' {
		t.skip(1)
		t.closeContainer(EndObject)
		return nil
	} else if c != '"' {
		return t.fail(t.expected())
	}
	t.startKey()
	return nil
}

func (t *Tokenizer) key() error {
	c, err := t.space()
	if err != nil {
		return err
	} else if c != '"' {
		return t.fail(t.expected())
	}
	t.startKey()
	return nil
}

func (t *Tokenizer) startKey() {
	t.skip(1)
	t.acc = t.acc[:0]
	t.streamed(StartKey, "")
	t.state = stKeyString
}

func (t *Tokenizer) colon() error {
	c, err := t.space()
	if err != nil {
		return err
	} else if c != ':' {
		return t.fail(t.expected())
	}
	t.skip(1)
	t.state = stValue
	return nil
}

func (t *Tokenizer) stop() error {
	c, err := t.space()
	if err != nil {
		return err
	}
	top := t.stack[len(t.stack)-1]
	switch {
	case c == ',':
		t.skip(1)
		if top == inObject {
			t.state = stKey
		} else {
			t.state = stValue
		}
	case c == '}' && top == inObject:
		t.skip(1)
		t.closeContainer(EndObject)
	case c == ']' && top == inArray:
		t.skip(1)
		t.closeContainer(EndArray)
	default:
		return t.fail(t.expected())
	}
	return nil
}

func (t *Tokenizer) done() error {
	if _, err := t.space(); err != nil {
		return err
	} else if t.multiple {
		t.state = stValue
		return nil
	}
	return t.syntaxError(ErrTrailingData, "unexpected characters after the top-level value")
}

// Numbers. Each consumed sign, digit run, point, or exponent marker is
// reported as a NumberChunk. A number ends at the first byte that cannot
// continue it; that byte is left for the state following the value.

// beginNumber consumes the first byte of a number and enters state next.
func (t *Tokenizer) beginNumber(next stateID) {
	t.openNumber = true
	t.acc = t.acc[:0]
	t.streamed(StartNumber, "")
	t.piece(NumberChunk, t.rest()[:1])
	t.skip(1)
	t.state = next
}

func (t *Tokenizer) endNumber() {
	t.streamed(EndNumber, "")
	t.packed(NumberValue)
	t.openNumber = false
	t.afterValue()
}

// numberCanEnd reports whether a number may end in state s.
func numberCanEnd(s stateID) bool {
	switch s {
	case stNumberDigit, stNumberFraction, stNumberFracDigit, stNumberExponent, stNumberExpDigit:
		return true
	}
	return false
}

// numberRun consumes a run of digits, if any, and reports its length.
func (t *Tokenizer) numberRun() int {
	n := t.digits()
	if n > 0 {
		t.piece(NumberChunk, t.rest()[:n])
		t.skip(n)
	}
	return n
}

// numberMark consumes a single byte of a number and enters state next.
func (t *Tokenizer) numberMark(next stateID) {
	t.piece(NumberChunk, t.rest()[:1])
	t.skip(1)
	t.state = next
}

func (t *Tokenizer) numberStart() error {
	rest := t.rest()
	switch {
	case len(rest) == 0:
		return errMore
	case rest[0] == '0':
		t.numberMark(stNumberFraction)
	case isDigit(rest[0]):
		t.numberMark(stNumberDigit)
	default:
		return t.fail(t.expected())
	}
	return nil
}

func (t *Tokenizer) numberDigit() error {
	if t.numberRun() > 0 {
		return nil
	} else if len(t.rest()) == 0 {
		return errMore
	}
	t.state = stNumberFraction
	return nil
}

func (t *Tokenizer) numberFraction() error {
	rest := t.rest()
	switch {
	case len(rest) == 0:
		return errMore
	case rest[0] == '.':
		t.numberMark(stNumberFracStart)
	case rest[0] == 'e' || rest[0] == 'E':
		t.numberMark(stNumberExpSign)
	default:
		t.endNumber()
	}
	return nil
}

func (t *Tokenizer) numberFracStart() error {
	if len(t.rest()) == 0 {
		return errMore
	} else if t.numberRun() == 0 {
		return t.fail(t.expected())
	}
	t.state = stNumberFracDigit
	return nil
}

func (t *Tokenizer) numberFracDigit() error {
	if t.numberRun() > 0 {
		return nil
	} else if len(t.rest()) == 0 {
		return errMore
	}
	t.state = stNumberExponent
	return nil
}

func (t *Tokenizer) numberExponent() error {
	rest := t.rest()
	switch {
	case len(rest) == 0:
		return errMore
	case rest[0] == 'e' || rest[0] == 'E':
		t.numberMark(stNumberExpSign)
	default:
		t.endNumber()
	}
	return nil
}

func (t *Tokenizer) numberExpSign() error {
	rest := t.rest()
	switch {
	case len(rest) == 0:
		return errMore
	case rest[0] == '+' || rest[0] == '-':
		t.numberMark(stNumberExpStart)
	case isDigit(rest[0]):
		t.state = stNumberExpStart
	default:
		return t.fail(t.expected())
	}
	return nil
}

func (t *Tokenizer) numberExpStart() error {
	if len(t.rest()) == 0 {
		return errMore
	} else if t.numberRun() == 0 {
		return t.fail(t.expected())
	}
	t.state = stNumberExpDigit
	return nil
}

func (t *Tokenizer) numberExpDigit() error {
	if t.numberRun() > 0 {
		return nil
	} else if len(t.rest()) == 0 {
		return errMore
	}
	t.endNumber()
	return nil
}

// fullRunes reports the length of the longest prefix of p that does not end
// with an incomplete UTF-8 sequence.
func fullRunes(p []byte) int {
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if utf8.RuneStart(p[i]) {
			if utf8.FullRune(p[i:]) {
				return len(p)
			}
			return i
		}
	}
	return len(p)
}

// isHexPrefix reports whether p could be the start of four hex digits.
func isHexPrefix(p []byte) bool {
	for _, b := range p {
		if !escape.IsHex(b) {
			return false
		}
	}
	return true
}

// isEscapePrefix reports whether p could be the start of a \u escape.
func isEscapePrefix(p []byte) bool {
	switch {
	case len(p) == 0:
		return true
	case p[0] != '\\':
		return false
	case len(p) == 1:
		return true
	case p[1] != 'u':
		return false
	}
	return isHexPrefix(p[2:])
}
