// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream_test

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/creachadair/jstream"
	"github.com/creachadair/jstream/internal/testutil"
	"github.com/google/go-cmp/cmp"
)

// sizeReader records the largest read requested from it.
type sizeReader struct {
	r   io.Reader
	max int
}

func (s *sizeReader) Read(p []byte) (int, error) {
	s.max = max(s.max, len(p))
	return s.r.Read(p)
}

func TestDecoder(t *testing.T) {
	const doc = `{"list": [1, "two", {"three": 3.0}], "ok": false}`
	want := jstream.Pack(testutil.Tokens(t, doc, 0))

	for _, n := range []int{1, 2, 5, 64} {
		r := &sizeReader{r: strings.NewReader(doc)}
		dec := jstream.NewDecoder(r)
		dec.ChunkSize(n)
		got, err := jstream.Collect(dec)
		if err != nil {
			t.Fatalf("Collect (chunk %d): unexpected error: %v", n, err)
		}
		if diff := cmp.Diff(want, jstream.Pack(got)); diff != "" {
			t.Errorf("Tokens (chunk %d) (-want, +got):\n%s", n, diff)
		}
		if r.max != n {
			t.Errorf("Read size: got %d, want %d", r.max, n)
		}
		if _, err := dec.Next(); err != io.EOF {
			t.Errorf("Next after end: got %v, want EOF", err)
		}
	}
}

func TestDecoderOneByte(t *testing.T) {
	dec := jstream.NewDecoder(iotest.OneByteReader(strings.NewReader(`["a", 1]`)))
	dec.Tokenizer().StreamValues(false)
	got, err := jstream.Collect(dec)
	if err != nil {
		t.Fatalf("Collect: unexpected error: %v", err)
	}
	want := []jstream.Token{
		tok(jstream.StartArray),
		tok(jstream.StringValue, "a"),
		tok(jstream.NumberValue, "1"),
		tok(jstream.EndArray),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokens (-want, +got):\n%s", diff)
	}
}

func TestDecoderReadError(t *testing.T) {
	boom := errors.New("boom")
	r := io.MultiReader(strings.NewReader(`[1, `), iotest.ErrReader(boom))
	dec := jstream.NewDecoder(r)
	dec.Tokenizer().StreamValues(false)

	got, err := jstream.Collect(dec)
	if !errors.Is(err, boom) {
		t.Fatalf("Collect: got %v, want %v", err, boom)
	} else if !strings.HasPrefix(err.Error(), "read input: ") {
		t.Errorf("Collect: got %q, want a read input error", err)
	}
	want := []jstream.Token{tok(jstream.StartArray), tok(jstream.NumberValue, "1")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokens (-want, +got):\n%s", diff)
	}
	if _, err2 := dec.Next(); err2 != err {
		t.Errorf("Next after error: got %v, want %v", err2, err)
	}
}

func TestFromChunksRelease(t *testing.T) {
	var pulled int
	var stopped bool
	seq := func(yield func(string) bool) {
		for _, chunk := range []string{`[1, `, `x`, `]`} {
			pulled++
			if !yield(chunk) {
				stopped = true
				return
			}
		}
	}
	dec := jstream.FromChunks(seq)
	_, err := jstream.Collect(dec)
	var serr *jstream.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("Collect: got %v, want *SyntaxError", err)
	}
	if !stopped {
		t.Error("Chunk sequence was not stopped after the error")
	}
	if pulled != 2 {
		t.Errorf("Chunks pulled: got %d, want 2", pulled)
	}
}

func TestDecoderTokenizer(t *testing.T) {
	dec := jstream.FromChunks(testutil.Chunks(`true false`, 3))
	dec.Tokenizer().AllowMultiple(true)
	got, err := jstream.Collect(dec)
	if err != nil {
		t.Fatalf("Collect: unexpected error: %v", err)
	}
	if diff := cmp.Diff([]jstream.Token{tok(jstream.TrueValue), tok(jstream.FalseValue)}, got); diff != "" {
		t.Errorf("Tokens (-want, +got):\n%s", diff)
	}
}

func TestSliceSource(t *testing.T) {
	toks := []jstream.Token{tok(jstream.StartArray), tok(jstream.NullValue), tok(jstream.EndArray)}
	src := jstream.SliceSource(toks)
	got, err := jstream.Collect(src)
	if err != nil {
		t.Fatalf("Collect: unexpected error: %v", err)
	}
	if diff := cmp.Diff(toks, got); diff != "" {
		t.Errorf("Tokens (-want, +got):\n%s", diff)
	}
	if _, err := src.Next(); err != io.EOF {
		t.Errorf("Next after end: got %v, want EOF", err)
	}
}

func TestAllStopsAtError(t *testing.T) {
	var toks []jstream.Token
	var errs int
	for tok, err := range jstream.All(testutil.Source(`[true, ?]`, 2)) {
		if err != nil {
			errs++
			continue
		}
		toks = append(toks, tok)
	}
	if errs != 1 {
		t.Errorf("All: got %d errors, want 1", errs)
	}
	if diff := cmp.Diff([]jstream.Token{tok(jstream.StartArray), tok(jstream.TrueValue)}, toks); diff != "" {
		t.Errorf("Tokens (-want, +got):\n%s", diff)
	}
}

func TestPack(t *testing.T) {
	input := []jstream.Token{
		tok(jstream.StartString),
		tok(jstream.StringChunk, "ab"),
		tok(jstream.StringChunk, "c"),
		tok(jstream.EndString),
		tok(jstream.StringValue, "abc"),
		tok(jstream.StartNumber),
		tok(jstream.NumberChunk, "1"),
		tok(jstream.NumberChunk, "."),
		tok(jstream.NumberChunk, "5"),
		tok(jstream.EndNumber),
		tok(jstream.StartKey),
		tok(jstream.StringChunk, "k"),
		tok(jstream.EndKey),
		tok(jstream.StringChunk, "x"),
	}
	want := []jstream.Token{
		tok(jstream.StartString),
		tok(jstream.StringChunk, "abc"),
		tok(jstream.EndString),
		tok(jstream.StringValue, "abc"),
		tok(jstream.StartNumber),
		tok(jstream.NumberChunk, "1.5"),
		tok(jstream.EndNumber),
		tok(jstream.StartKey),
		tok(jstream.StringChunk, "k"),
		tok(jstream.EndKey),
		tok(jstream.StringChunk, "x"),
	}
	got := jstream.Pack(input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Pack (-want, +got):\n%s", diff)
	}
	if input[1].Value != "ab" {
		t.Errorf("Pack modified its input: %v", input[1])
	}
}
