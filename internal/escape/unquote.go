// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package escape handles quoting and unquoting of JSON strings.
package escape

import (
	"errors"
	"unicode/utf16"
	"unicode/utf8"

	"go4.org/mem"
)

// shortEsc maps the byte following a backslash to its decoded value, for the
// two-byte escapes permitted by JSON. Other bytes map to zero.
var shortEsc = [256]byte{
	'"':  '"',
	'\\': '\\',
	'/':  '/',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
}

// Short reports the decoded byte for the two-byte escape "\c", and whether c
// is a valid short escape.
func Short(c byte) (byte, bool) {
	b := shortEsc[c]
	return b, b != 0
}

// Hex4 decodes exactly four hexadecimal digits from the front of src.
// It reports false if src is too short or contains a non-hex digit.
func Hex4(src mem.RO) (rune, bool) {
	if src.Len() < 4 {
		return 0, false
	}
	var v rune
	for i := 0; i < 4; i++ {
		d, ok := hexVal(src.At(i))
		if !ok {
			return 0, false
		}
		v = v<<4 | d
	}
	return v, true
}

// IsHighSurrogate reports whether r is the first half of a UTF-16 surrogate
// pair.
func IsHighSurrogate(r rune) bool { return r >= 0xd800 && r < 0xdc00 }

// Unquote decodes a byte slice containing the JSON encoding of a string. The
// input must have the enclosing double quotation marks already removed.
//
// Escape sequences are replaced with their unescaped equivalents, and UTF-16
// surrogate pairs written as consecutive \u escapes are combined. Invalid
// escapes and unpaired surrogates are replaced by the Unicode replacement
// rune. Unquote reports an error for an incomplete escape sequence.
func Unquote(src mem.RO) ([]byte, error) {
	dec := make([]byte, 0, src.Len())
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		return mem.Append(dec, src), nil
	}

	for {
		dec = mem.Append(dec, src.SliceTo(i))
		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return nil, errors.New("incomplete escape sequence")
		}

		c := src.At(0)
		src = src.SliceFrom(1)
		if b, ok := Short(c); ok {
			dec = append(dec, b)
		} else if c == 'u' {
			if src.Len() < 4 {
				return nil, errors.New("incomplete Unicode escape")
			}
			r, ok := Hex4(src)
			src = src.SliceFrom(4)
			if !ok {
				r = utf8.RuneError
			} else if IsHighSurrogate(r) {
				// Look for the low half of the pair.
				if src.Len() >= 6 && src.At(0) == '\\' && src.At(1) == 'u' {
					if lo, ok := Hex4(src.SliceFrom(2)); ok {
						if p := utf16.DecodeRune(r, lo); p != utf8.RuneError {
							r = p
							src = src.SliceFrom(6)
						}
					}
				}
			}
			dec = utf8.AppendRune(dec, r)
		} else {
			dec = utf8.AppendRune(dec, utf8.RuneError)
		}

		i = mem.IndexByte(src, '\\')
		if i < 0 {
			return mem.Append(dec, src), nil
		}
	}
}

// IsHex reports whether b is a hexadecimal digit.
func IsHex(b byte) bool { _, ok := hexVal(b); return ok }

func hexVal(b byte) (rune, bool) {
	switch {
	case '0' <= b && b <= '9':
		return rune(b - '0'), true
	case 'a' <= b && b <= 'f':
		return rune(b - 'a' + 10), true
	case 'A' <= b && b <= 'F':
		return rune(b - 'A' + 10), true
	}
	return 0, false
}
