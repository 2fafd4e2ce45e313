// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"errors"
	"fmt"
)

var (
	// ErrNeedInput is reported by Tokenizer.Next when the buffered input has
	// been consumed and the tokenizer is waiting for another chunk. It is not
	// fatal: Write more input and call Next again.
	ErrNeedInput = errors.New("more input needed")

	// ErrIncomplete is wrapped by the SyntaxError reported when the input
	// ends in the middle of a value.
	ErrIncomplete = errors.New("incomplete input")

	// ErrTrailingData is wrapped by the SyntaxError reported when
	// non-whitespace input follows a complete top-level value and multiple
	// values are not allowed.
	ErrTrailingData = errors.New("unexpected data after top-level value")

	// ErrClosed is reported by Write after the tokenizer has been closed.
	ErrClosed = errors.New("tokenizer is closed")
)

// SyntaxError is the concrete type of errors reported by the tokenizer for
// malformed or incomplete input.
type SyntaxError struct {
	Location LineCol // where the problem was detected
	Offset   int     // byte offset of Location, 0-based
	Message  string  // what the tokenizer expected

	err error
}

// Error satisfies the error interface.
func (s *SyntaxError) Error() string {
	return fmt.Sprintf("at %s: cannot parse input: %s", s.Location, s.Message)
}

// Unwrap supports error wrapping.
func (s *SyntaxError) Unwrap() error { return s.err }
