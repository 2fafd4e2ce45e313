// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package filter_test

import (
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/creachadair/jstream"
	"github.com/creachadair/jstream/assemble"
	"github.com/creachadair/jstream/filter"
	"github.com/creachadair/jstream/internal/testutil"
	"github.com/creachadair/jstream/jpath"
	"github.com/creachadair/mds/mtest"
	"github.com/google/go-cmp/cmp"
)

// values assembles all the values produced by src.
func values(t *testing.T, src jstream.TokenSource) []any {
	t.Helper()
	var out []any
	for v, err := range assemble.NewDecoder(src, nil).Values() {
		if err != nil {
			t.Fatalf("Values: unexpected error: %v", err)
		}
		out = append(out, v)
	}
	return out
}

func TestPath(t *testing.T) {
	tests := []struct {
		path filter.Path
		want string
	}{
		{nil, ""},
		{filter.Path{"a"}, "a"},
		{filter.Path{"a", 0, "x"}, "a.0.x"},
		{filter.Path{3, nil}, "3."},
	}
	for _, test := range tests {
		if got := test.path.String(); got != test.want {
			t.Errorf("String %v: got %q, want %q", test.path, got, test.want)
		}
	}
}

func TestPick(t *testing.T) {
	const doc = `{"total": 3, "data": [{"id": 1, "tags": ["x"]}, {"id": 2}, {"id": "three"}],
"meta": {"data": "not this", "id": null}}`

	tests := []struct {
		name     string
		filter   filter.Filter
		multiple bool
		want     []any
	}{
		{"Key", filter.Key("data"), false, []any{
			[]any{
				map[string]any{"id": 1.0, "tags": []any{"x"}},
				map[string]any{"id": 2.0},
				map[string]any{"id": "three"},
			},
		}},
		{"Scalar", filter.Key("total"), false, []any{3.0}},
		{"NestedKey", filter.Key("meta.data"), true, []any{"not this"}},
		{"FirstOnly", filter.Regexp(regexp.MustCompile(`\.id$`)), false, []any{1.0}},
		{"Multiple", filter.Regexp(regexp.MustCompile(`\.id$`)), true, []any{1.0, 2.0, "three", nil}},
		{"Index", mustExpr(t, "$.data[1]"), false, []any{map[string]any{"id": 2.0}}},
		{"Slice", mustExpr(t, "$.data[1:].id"), true, []any{2.0, "three"}},
		{"Recur", mustExpr(t, "$..tags[0]"), true, []any{"x"}},
		{"Func", filter.Func(func(p filter.Path, tok jstream.Token) bool {
			return tok.Name == jstream.NullValue
		}), true, []any{nil}},
		{"NoMatch", filter.Key("nonesuch"), true, nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for _, n := range []int{0, 1, 5} {
				p := filter.Pick(testutil.Source(doc, n), test.filter, &filter.Options{Multiple: test.multiple})
				got := values(t, p)
				if diff := cmp.Diff(test.want, got); diff != "" {
					t.Errorf("Pick (chunk %d) (-want, +got):\n%s", n, diff)
				}
			}
		})
	}
}

func TestPickTokens(t *testing.T) {
	const doc = `{"total":3,"data":[1,"two"]}`
	p := filter.Pick(testutil.Source(doc, 0), filter.Key("data"), nil)
	got, err := jstream.Collect(p)
	if err != nil {
		t.Fatalf("Collect: unexpected error: %v", err)
	}
	want := []jstream.Token{
		jstream.Tok(jstream.StartArray),
		jstream.Tok(jstream.StartNumber),
		jstream.Tok(jstream.NumberChunk, "1"),
		jstream.Tok(jstream.EndNumber),
		jstream.Tok(jstream.NumberValue, "1"),
		jstream.Tok(jstream.StartString),
		jstream.Tok(jstream.StringChunk, "two"),
		jstream.Tok(jstream.EndString),
		jstream.Tok(jstream.StringValue, "two"),
		jstream.Tok(jstream.EndArray),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokens (-want, +got):\n%s", diff)
	}
}

func TestPickStops(t *testing.T) {
	// After the first match, the picker must not read the rest of the input,
	// which here is not valid JSON.
	src := jstream.NewDecoder(strings.NewReader(`{"a": "first", "b": [1, 2] "a"`))
	src.Tokenizer().PackValues(false)
	p := filter.Pick(src, filter.Key("b"), nil)

	var got []jstream.Token
	for {
		tok, err := p.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("Next: unexpected error: %v", err)
		}
		got = append(got, tok)
	}
	if len(got) == 0 || got[0].Name != jstream.StartArray || got[len(got)-1].Name != jstream.EndArray {
		t.Errorf("Pick: got %v, want one array", got)
	}
	if _, err := p.Next(); err != io.EOF {
		t.Errorf("Next after end: got %v, want EOF", err)
	}
}

func TestPickPath(t *testing.T) {
	src := jstream.SliceSource([]jstream.Token{
		jstream.Tok(jstream.StartObject),
		jstream.Tok(jstream.KeyValue, "rows"),
		jstream.Tok(jstream.StartArray),
		jstream.Tok(jstream.TrueValue),
		jstream.Tok(jstream.FalseValue),
	})
	p := filter.Pick(src, filter.Key("nonesuch"), nil)
	if _, err := p.Next(); err != io.EOF {
		t.Fatalf("Next: got %v, want EOF", err)
	}
	if diff := cmp.Diff(filter.Path{"rows", 1}, p.Path()); diff != "" {
		t.Errorf("Path (-want, +got):\n%s", diff)
	}
}

func TestIgnore(t *testing.T) {
	const doc = `{"keep": 1, "drop": {"deep": [1, 2, 3]}, "also": [true, "drop", false], "drop2": "x"}`

	tests := []struct {
		name     string
		filter   filter.Filter
		multiple bool
		want     any
	}{
		{"Member", filter.Key("drop"), true, map[string]any{
			"keep": 1.0, "also": []any{true, "drop", false}, "drop2": "x",
		}},
		{"Element", filter.Key("also.1"), true, map[string]any{
			"keep": 1.0, "drop": map[string]any{"deep": []any{1.0, 2.0, 3.0}}, "also": []any{true, false}, "drop2": "x",
		}},
		{"FirstOnly", filter.Regexp(regexp.MustCompile(`^drop`)), false, map[string]any{
			"keep": 1.0, "also": []any{true, "drop", false}, "drop2": "x",
		}},
		{"Multiple", filter.Regexp(regexp.MustCompile(`^drop`)), true, map[string]any{
			"keep": 1.0, "also": []any{true, "drop", false},
		}},
		{"Nothing", filter.Key("nonesuch"), true, map[string]any{
			"keep": 1.0, "drop": map[string]any{"deep": []any{1.0, 2.0, 3.0}}, "also": []any{true, "drop", false}, "drop2": "x",
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for _, n := range []int{0, 1, 7} {
				g := filter.Ignore(testutil.Source(doc, n), test.filter, &filter.Options{Multiple: test.multiple})
				got := values(t, g)
				if len(got) != 1 {
					t.Fatalf("Ignore (chunk %d): got %d values, want 1", n, len(got))
				}
				if diff := cmp.Diff(test.want, got[0]); diff != "" {
					t.Errorf("Ignore (chunk %d) (-want, +got):\n%s", n, diff)
				}
			}
		})
	}
}

func TestExprErrors(t *testing.T) {
	for _, expr := range []string{
		"data",
		"$..book[?(@.isbn)]",
		"$[(@.length-1)]",
		"$.a[-1]",
		"$.a[-2:]",
	} {
		if f, err := filter.Expr(expr); err == nil {
			t.Errorf("Expr %q: got %v, want error", expr, f)
		}
	}
}

func TestNew(t *testing.T) {
	path := filter.Path{"a", 0}
	tok := jstream.Tok(jstream.TrueValue)
	for _, v := range []any{
		"a.0",
		regexp.MustCompile(`^a\.\d+$`),
		func(p filter.Path, _ jstream.Token) bool { return len(p) == 2 },
		jpath.MustParse("$.a[0]"),
		filter.Key("a.0"),
	} {
		if f := filter.New(v); !f.Match(path, tok) {
			t.Errorf("New(%T): does not match %v", v, path)
		}
	}
	if f := filter.New(2); !f.Match(filter.Path{2}, tok) {
		t.Error("New(2): does not match [2]")
	}

	mtest.MustPanic(t, func() { filter.New(1.5) })
	mtest.MustPanic(t, func() { filter.New([]string{"a"}) })
	mtest.MustPanic(t, func() { filter.New(jpath.MustParse("$[-1]")) })
}

func mustExpr(t *testing.T, s string) filter.Filter {
	t.Helper()
	f, err := filter.Expr(s)
	if err != nil {
		t.Fatalf("Expr %q: %v", s, err)
	}
	return f
}
