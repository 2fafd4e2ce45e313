// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jstream implements an incremental JSON tokenizer, and the token
// vocabulary shared by the streaming pipeline built on it.
//
// # Tokenizing
//
// The Tokenizer type accepts input in chunks of any size, and reports a
// sequence of tokens describing the structure of the input. Chunk boundaries
// may fall anywhere in the input, including the middle of a string, an
// escape sequence, or a number:
//
//	t := jstream.NewTokenizer()
//	for tok, err := range t.Feed(`{"name": "Ala`) {
//	   ...
//	}
//	for tok, err := range t.Feed(`n", "age": 37}`) {
//	   ...
//	}
//	t.Close()
//
// Tokens name grammar events. Strings, keys, and numbers are reported both
// as a run of start, chunk, and end tokens, so that long scalars can be
// processed without buffering, and as a single value token carrying the
// complete text:
//
//	Input   | Tokens
//	------- | ----------------------------------------------------------
//	{ }     | StartObject, EndObject
//	[ ]     | StartArray, EndArray
//	"k":    | StartKey, StringChunk*, EndKey, KeyValue
//	"s"     | StartString, StringChunk*, EndString, StringValue
//	-1.5    | StartNumber, NumberChunk*, EndNumber, NumberValue
//	null    | NullValue
//	true    | TrueValue
//	false   | FalseValue
//
// Either form may be disabled with StreamValues and PackValues.
//
// # Sources
//
// Stages of the pipeline pull tokens from a TokenSource. A Decoder is a
// TokenSource that drives a Tokenizer from an io.Reader (NewDecoder) or from
// a sequence of string chunks (FromChunks):
//
//	dec := jstream.NewDecoder(resp.Body)
//	for tok, err := range jstream.All(dec) {
//	   if err != nil {
//	      log.Fatalf("Decode: %v", err)
//	   }
//	   log.Printf("Next token: %v", tok)
//	}
//
// Errors in the input are reported as values of concrete type
// *jstream.SyntaxError. The subpackages filter, assemble, and stream
// provide the other stages of the pipeline:
//
//	chunks -> Tokenizer -> [filter]* -> assemble | stream -> values
package jstream
