// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func runMain(t *testing.T, input string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, strings.NewReader(input), &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestRun(t *testing.T) {
	const doc = `{"total": 2, "data": [{"id": 1, "name": "a"}, {"id": 2, "name": "b"}]}`

	tests := []struct {
		name  string
		input string
		args  []string
		want  string
	}{
		{"Values", `{"b": [1, true]} `, nil, `{"b":[1,true]}` + "\n"},
		{"Multiple", `1 "two" [3]`, []string{"-multiple"}, "1\n\"two\"\n[3]\n"},
		{"Pick", doc, []string{"-pick", "$.data[1].name"}, "\"b\"\n"},
		{"PickMultiple", doc, []string{"-pick", "$.data[*].id", "-multiple"}, "1\n2\n"},
		{"StreamArray", doc, []string{"-pick", "$.data", "-stream", "array"},
			`{"id":1,"name":"a"}` + "\n" + `{"id":2,"name":"b"}` + "\n"},
		{"StreamObject", `{"a": 1, "b": [2]}`, []string{"-stream", "object"},
			`{"a":1}` + "\n" + `{"b":[2]}` + "\n"},
		{"StreamValues", `{"a": 1} {"a": 2}`, []string{"-stream", "values", "-multiple"},
			`{"a":1}` + "\n" + `{"a":2}` + "\n"},
		{"Select", doc, []string{"-select", "$.data[?@.id > 1].name"}, "\"b\"\n"},
		{"Numbers", `[1.50, 12345678901234567890]`, []string{"-numbers"}, "[1.50,12345678901234567890]\n"},
		{"Tokens", `{"k": [null]}`, []string{"-tokens", "-nocolors"}, `startObject
  startKey
  stringChunk "k"
  endKey
  keyValue "k"
  startArray
    nullValue
  endArray
endObject
`},
		{"SmallChunks", `{"key": "a long string value"}`, []string{"-chunk", "3"}, `{"key":"a long string value"}` + "\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, stderr, code := runMain(t, test.input, test.args...)
			if code != 0 {
				t.Fatalf("Run %q: exit %d, stderr:\n%s", test.args, code, stderr)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Output (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestYAML(t *testing.T) {
	got, stderr, code := runMain(t, `{"a": ["x", true]} {"b": "z"}`, "-out", "yaml", "-multiple")
	if code != 0 {
		t.Fatalf("Run: exit %d, stderr:\n%s", code, stderr)
	}
	for _, want := range []string{"a:", "- x", "- true", "---\n", "b: z"} {
		if !strings.Contains(got, want) {
			t.Errorf("Output %q does not contain %q", got, want)
		}
	}
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.json")
	if err := os.WriteFile(path, []byte(`[1, 2, 3]`), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, stderr, code := runMain(t, "", "-file", path, "-stream", "array", "-v")
	if code != 0 {
		t.Fatalf("Run: exit %d, stderr:\n%s", code, stderr)
	}
	if want := "1\n2\n3\n"; got != want {
		t.Errorf("Output: got %q, want %q", got, want)
	}
	if !strings.Contains(stderr, "wrote 3 elements") {
		t.Errorf("Log output: got %q, want element count", stderr)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		args  []string
		code  int
		want  string
	}{
		{"BadFlag", "", []string{"-nonesuch"}, 2, "flag provided but not defined"},
		{"BadMode", "", []string{"-stream", "sideways"}, 2, "invalid -stream"},
		{"BadOut", "", []string{"-out", "xml"}, 2, "invalid -out"},
		{"TokensSelect", "", []string{"-tokens", "-select", "$"}, 2, "cannot be combined"},
		{"BadPick", "[]", []string{"-pick", "$[?(@.x)]"}, 1, "invalid -pick"},
		{"BadSelect", "[]", []string{"-select", "$[?"}, 1, "invalid -select"},
		{"Garbage", `{"a":1}garbage`, nil, 1, "unexpected characters"},
		{"NotArray", `{"a":1}`, []string{"-stream", "array"}, 1, "should be an array"},
		{"Incomplete", `[1, 2`, nil, 1, "unexpected end of input"},
		{"NoFile", "", []string{"-file", "/nonexistent/input.json"}, 1, "no such file"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, stderr, code := runMain(t, test.input, test.args...)
			if code != test.code {
				t.Errorf("Run %q: exit %d, want %d", test.args, code, test.code)
			}
			if !strings.Contains(stderr, test.want) {
				t.Errorf("Run %q: stderr %q does not mention %q", test.args, stderr, test.want)
			}
		})
	}
}

func TestHelp(t *testing.T) {
	_, stderr, code := runMain(t, "", "-help")
	if code != 0 {
		t.Errorf("Run -help: exit %d, want 0", code)
	}
	if !strings.Contains(stderr, "Usage: jstream") {
		t.Errorf("Run -help: stderr %q lacks usage", stderr)
	}
}
