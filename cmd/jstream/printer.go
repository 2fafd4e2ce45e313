// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"bufio"
	"io"
	"strings"

	"github.com/creachadair/jstream"
)

// ANSI terminal escapes.
const (
	reset      = "\033[0m"
	dimWhite   = "\033[2;37m"
	yellow     = "\033[33m"
	green      = "\033[32m"
	white      = "\033[37m"
	brightBlue = "\033[94m"
)

// colors assigns a terminal color to each kind of token.
type colors struct {
	structure, key, str, num, literal string
}

var defaultColors = colors{
	structure: dimWhite,
	key:       brightBlue,
	str:       green,
	num:       yellow,
	literal:   white,
}

func (c *colors) of(name jstream.TokenName) string {
	switch name {
	case jstream.StartKey, jstream.EndKey, jstream.KeyValue:
		return c.key
	case jstream.StartString, jstream.StringChunk, jstream.EndString, jstream.StringValue:
		return c.str
	case jstream.StartNumber, jstream.NumberChunk, jstream.EndNumber, jstream.NumberValue:
		return c.num
	case jstream.NullValue, jstream.TrueValue, jstream.FalseValue:
		return c.literal
	}
	return c.structure
}

// A tokenPrinter writes tokens one per line, indented by nesting depth.
type tokenPrinter struct {
	w      io.Writer
	colors *colors // nil for no color
}

func printTokens(src jstream.TokenSource, p *tokenPrinter) error {
	bw := bufio.NewWriter(p.w)
	var depth int
	for tok, err := range jstream.All(src) {
		if err != nil {
			bw.Flush()
			return err
		}
		if tok.Name == jstream.EndObject || tok.Name == jstream.EndArray {
			depth = max(0, depth-1)
		}
		bw.WriteString(strings.Repeat("  ", depth))
		if p.colors != nil {
			bw.WriteString(p.colors.of(tok.Name))
		}
		bw.WriteString(tok.String())
		if p.colors != nil {
			bw.WriteString(reset)
		}
		bw.WriteByte('\n')
		if tok.Name == jstream.StartObject || tok.Name == jstream.StartArray {
			depth++
		}
	}
	return bw.Flush()
}
