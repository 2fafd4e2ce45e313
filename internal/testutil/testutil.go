// Package testutil defines support code for unit tests.
package testutil

import (
	"iter"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/creachadair/jstream"
)

// Split divides s into consecutive chunks of n bytes, the last of which may
// be shorter. Chunks may split multi-byte UTF-8 sequences. If n <= 0, Split
// returns s as a single chunk.
func Split(s string, n int) []string {
	if n <= 0 || len(s) <= n {
		return []string{s}
	}
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	return append(out, s)
}

// RandomSplit divides s into consecutive chunks of random length between 1
// and max bytes, using a generator seeded with seed.
func RandomSplit(s string, max int, seed uint64) []string {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	var out []string
	for len(s) > 0 {
		n := min(1+rng.IntN(max), len(s))
		out = append(out, s[:n])
		s = s[n:]
	}
	return out
}

// Chunks returns a sequence of the chunks of s, as Split.
func Chunks(s string, n int) iter.Seq[string] { return slices.Values(Split(s, n)) }

// Source returns a token source for s delivered in chunks of n bytes.
func Source(s string, n int) *jstream.Decoder { return jstream.FromChunks(Chunks(s, n)) }

// Tokens returns all the tokens of s delivered in chunks of n bytes, or
// fails t if the input does not tokenize.
func Tokens(t testing.TB, s string, n int) []jstream.Token {
	t.Helper()
	toks, err := jstream.Collect(Source(s, n))
	if err != nil {
		t.Fatalf("Tokenize %q (chunk %d): unexpected error: %v", s, n, err)
	}
	return toks
}
