package jstream

import "fmt"

// A LineCol describes the line number and column offset of a location in
// source text.
type LineCol struct {
	Line   int // line number, 1-based
	Column int // byte offset of column in line, 0-based
}

func (lc LineCol) String() string { return fmt.Sprintf("%d:%d", lc.Line, lc.Column) }

// position tracks the absolute location of the tokenizer in its input.
// Bytes dropped from the front of the buffer are accounted in offset.
type position struct {
	offset int // bytes consumed, 0-based
	line   int // 0-based
	col    int // 0-based
}

// advance updates p to account for the consumed bytes in text.
func (p *position) advance(text []byte) {
	p.offset += len(text)
	for _, b := range text {
		if b == '\n' {
			p.line++
			p.col = 0
		} else {
			p.col++
		}
	}
}

func (p position) lineCol() LineCol { return LineCol{Line: p.line + 1, Column: p.col} }
