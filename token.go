// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import "fmt"

// TokenName is the type of a token reported by a Tokenizer.
type TokenName byte

// Constants defining the valid TokenName values.
const (
	Invalid TokenName = iota // invalid token

	StartObject // left brace "{"
	EndObject   // right brace "}"
	StartArray  // left square bracket "["
	EndArray    // right square bracket "]"

	StartKey // opening quote of an object key
	EndKey   // closing quote of an object key
	KeyValue // the complete decoded key

	StartString // opening quote of a string value
	StringChunk // a decoded piece of a string or key
	EndString   // closing quote of a string value
	StringValue // the complete decoded string

	StartNumber // first character of a number
	NumberChunk // a piece of the text of a number
	EndNumber   // end of a number
	NumberValue // the complete text of a number

	NullValue  // constant: null
	TrueValue  // constant: true
	FalseValue // constant: false
)

var tokenStr = [...]string{
	Invalid:     "invalid",
	StartObject: "startObject",
	EndObject:   "endObject",
	StartArray:  "startArray",
	EndArray:    "endArray",
	StartKey:    "startKey",
	EndKey:      "endKey",
	KeyValue:    "keyValue",
	StartString: "startString",
	StringChunk: "stringChunk",
	EndString:   "endString",
	StringValue: "stringValue",
	StartNumber: "startNumber",
	NumberChunk: "numberChunk",
	EndNumber:   "endNumber",
	NumberValue: "numberValue",
	NullValue:   "nullValue",
	TrueValue:   "trueValue",
	FalseValue:  "falseValue",
}

func (n TokenName) String() string {
	v := int(n)
	if v >= len(tokenStr) {
		return tokenStr[Invalid]
	}
	return tokenStr[v]
}

// IsStart reports whether n opens a nested run of tokens that is closed by
// a matching end token.
func (n TokenName) IsStart() bool {
	switch n {
	case StartObject, StartArray, StartKey, StartString, StartNumber:
		return true
	}
	return false
}

// IsEnd reports whether n closes a run of tokens opened by IsStart.
func (n TokenName) IsEnd() bool {
	switch n {
	case EndObject, EndArray, EndKey, EndString, EndNumber:
		return true
	}
	return false
}

// HasValue reports whether tokens named n carry a Value.
func (n TokenName) HasValue() bool {
	switch n {
	case KeyValue, StringChunk, StringValue, NumberChunk, NumberValue:
		return true
	}
	return false
}

// A Token is a single grammar event reported by a Tokenizer. Tokens with
// chunk or value names carry decoded text in Value; string chunks and values
// have their escapes undone, number chunks and values hold the literal text
// of the number.
type Token struct {
	Name  TokenName
	Value string
}

// Tok is a convenience constructor for a Token.
func Tok(name TokenName, value ...string) Token {
	switch len(value) {
	case 0:
		return Token{Name: name}
	case 1:
		return Token{Name: name, Value: value[0]}
	default:
		panic("too many values")
	}
}

func (t Token) String() string {
	if t.Name.HasValue() {
		return fmt.Sprintf("%s %s", t.Name, Quote(t.Value))
	}
	return t.Name.String()
}
