// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream_test

import (
	"testing"

	"github.com/creachadair/jstream"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", `""`},
		{" ", `" "`},
		{"a\t\nb", `"a\t\nb"`},
		{"\x00\x01\x02", `"\u0000\u0001\u0002"`},
		{`a "b c\" d"`, `"a \"b c\\\" d\""`},
		{`\ufffd`, `"\\ufffd"`},
		{"\u2028 \u2029 \ufffd", `"\u2028 \u2029 \ufffd"`},
		{"This is the end\v", `"This is the end\u000b"`},
		{"<\x1e>", `"<\u001e>"`},
		{"caf\u00e9 \U0001f600", "\"caf\u00e9 \U0001f600\""},
	}
	for _, test := range tests {
		got := jstream.Quote(test.input)
		if got != test.want {
			t.Errorf("Input: %#q\nGot:  %#q\nWant: %#q", test.input, got, test.want)
		}
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		input string
		want  string
		fail  bool
	}{
		{``, ``, true},                                  // missing quotes
		{`"missing quote`, ``, true},                    // missing quotes
		{`missing quote"`, ``, true},                    // missing quotes
		{`""`, ``, false},                               // ok
		{`"ok go"`, "ok go", false},                     // ok
		{`"abc\ndef"`, "abc\ndef", false},               // C escapes
		{`"\tabc\n"`, "\tabc\n", false},                 // C escapes
		{`"\b\f\n\r\t"`, "\b\f\n\r\t", false},           // C escapes
		{`"a \u0026 b"`, "a & b", false},                // short Unicode escape
		{`"\ud83d\ude00!"`, "\U0001f600!", false},       // surrogate pair
		{`"\ud83d"`, "\ufffd", false},                   // unpaired surrogate
		{`"\u"`, ``, true},                              // incomplete Unicode escape
		{`"\u00"`, ``, true},                            // incomplete Unicode escape
		{`"abc\"`, ``, true},                            // incomplete escape
		{`"\u00x9"`, "\ufffd", false},                   // invalid Unicode escape
		{`"\u019 "`, "\ufffd", false},                   // invalid Unicode escape
		{`"\q"`, "\ufffd", false},                       // invalid short escape
		{`"a\"b"`, `a"b`, false},                        // ok
		{`"a\\b\\cd"`, `a\b\cd`, false},                 // ok
		{`"\/path\/to"`, `/path/to`, false},             // escaped solidus
		{`"tab\there, then \u00e9"`, "tab\there, then \u00e9", false},
	}

	for _, test := range tests {
		got, err := jstream.Unquote(test.input)
		if err != nil {
			if !test.fail {
				t.Errorf("Unquote(%#q): got %v, want no error", test.input, err)
			} else {
				t.Logf("Unquote(%#q): got expected error: %v", test.input, err)
			}
		} else if err == nil && test.fail {
			t.Errorf("Unquote(%#q): got nil, want error", test.input)
		}
		if got != test.want {
			t.Errorf("Unquote(%#q): got %#q, want %#q", test.input, got, test.want)
		}
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	for _, s := range []string{"", "plain", "\x00\x7f\u0080", "line\nbreak", "\"quoted\"", "\u2028\U0001f600"} {
		got, err := jstream.Unquote(jstream.Quote(s))
		if err != nil {
			t.Errorf("Unquote(Quote(%q)): unexpected error: %v", s, err)
		} else if got != s {
			t.Errorf("Unquote(Quote(%q)): got %q", s, got)
		}
	}
}
