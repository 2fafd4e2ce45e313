// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"fmt"
	"io"
	"iter"
)

// A TokenSource is a pull-based sequence of tokens. Next returns io.EOF when
// no further tokens are available; any other error is fatal to the source.
//
// The pipeline stages in this module (filters, assemblers, and streamers)
// consume a TokenSource, and the filters are themselves TokenSources, so
// stages compose by wrapping.
type TokenSource interface {
	Next() (Token, error)
}

// A Decoder is a TokenSource that drives a Tokenizer from a sequence of input
// chunks, supplying the next chunk whenever the tokenizer needs more input.
type Decoder struct {
	tz *Tokenizer

	// Exactly one of these is set.
	r    io.Reader
	pull func() (string, bool)

	stop func() // release the chunk iterator, or nil
	buf  []byte // read buffer for r
	err  error  // sticky read error
}

// DefaultChunkSize is the default size of reads performed by a Decoder
// constructed with NewDecoder.
const DefaultChunkSize = 4096

// NewDecoder constructs a Decoder that reads chunks from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{tz: NewTokenizer(), r: r, buf: make([]byte, DefaultChunkSize)}
}

// FromChunks constructs a Decoder that consumes chunks from seq.
// The chunks need not be aligned with token boundaries.
func FromChunks(seq iter.Seq[string]) *Decoder {
	pull, stop := iter.Pull(seq)
	return &Decoder{tz: NewTokenizer(), pull: pull, stop: stop}
}

// ChunkSize sets the size of reads from the underlying reader, if n > 0.
// It has no effect on a Decoder constructed by FromChunks.
func (d *Decoder) ChunkSize(n int) {
	if n > 0 && d.r != nil {
		d.buf = make([]byte, n)
	}
}

// Tokenizer returns the tokenizer used by d, for configuration. The caller
// must not write to it directly.
func (d *Decoder) Tokenizer() *Tokenizer { return d.tz }

// Next implements the TokenSource interface. Errors reading the input are
// reported as-is; errors in the input are reported as *SyntaxError.
func (d *Decoder) Next() (Token, error) {
	for {
		tok, err := d.tz.Next()
		if err != ErrNeedInput {
			if err != nil {
				d.release()
			}
			return tok, err
		}
		if err := d.fill(); err != nil {
			return Token{}, err
		}
	}
}

// fill supplies the next chunk of input to the tokenizer, closing it at the
// end of the input.
func (d *Decoder) fill() error {
	if d.err != nil {
		return d.err
	}
	if d.pull != nil {
		chunk, ok := d.pull()
		if !ok {
			d.tz.Close()
			return nil
		}
		_, err := d.tz.WriteString(chunk)
		return err
	}

	n, err := d.r.Read(d.buf)
	if n > 0 {
		d.tz.Write(d.buf[:n])
	}
	if err == io.EOF {
		d.tz.Close()
	} else if err != nil {
		d.err = fmt.Errorf("read input: %w", err)
		d.release()
		return d.err
	}
	return nil
}

func (d *Decoder) release() {
	if d.stop != nil {
		d.stop()
		d.stop = nil
	}
}

// All returns a sequence of the tokens from src. The sequence ends at the
// end of src, or after yielding the first error other than io.EOF.
func All(src TokenSource) iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			tok, err := src.Next()
			if err == io.EOF {
				return
			} else if !yield(tok, err) || err != nil {
				return
			}
		}
	}
}

// Collect returns all the tokens from src. In case of error, it returns the
// tokens read before the error, along with the error.
func Collect(src TokenSource) ([]Token, error) {
	var out []Token
	for tok, err := range All(src) {
		if err != nil {
			return out, err
		}
		out = append(out, tok)
	}
	return out, nil
}

// SliceSource returns a TokenSource that delivers the given tokens in order.
func SliceSource(toks []Token) TokenSource { return &sliceSource{toks: toks} }

type sliceSource struct{ toks []Token }

func (s *sliceSource) Next() (Token, error) {
	if len(s.toks) == 0 {
		return Token{}, io.EOF
	}
	tok := s.toks[0]
	s.toks = s.toks[1:]
	return tok, nil
}

// Pack returns a copy of toks in which each run of adjacent StringChunk or
// NumberChunk tokens is merged into a single chunk. The packed form of a
// token sequence does not depend on how the input was divided into chunks.
func Pack(toks []Token) []Token {
	var out []Token
	for _, tok := range toks {
		if n := len(out); n > 0 && (tok.Name == StringChunk || tok.Name == NumberChunk) && out[n-1].Name == tok.Name {
			out[n-1].Value += tok.Value
			continue
		}
		out = append(out, tok)
	}
	return out
}
