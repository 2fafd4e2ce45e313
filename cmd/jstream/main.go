// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Program jstream reads JSON text in chunks and reports its tokens or the
// values it contains, optionally restricted to the subtrees that match a
// path expression.
//
// Usage:
//
//	jstream [options] < input.json
//	jstream -file input.json -pick '$.data' -stream array
//
// By default each top-level value is assembled and written as one line of
// JSON. With -tokens the token stream is printed instead, one token per line.
// With -stream, the elements of the top-level array or object (or each of a
// sequence of top-level values) are reported one at a time, without holding
// the entire container in memory.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/creachadair/jstream"
	"github.com/creachadair/jstream/assemble"
	"github.com/creachadair/jstream/filter"
	"github.com/creachadair/jstream/stream"
	"github.com/goccy/go-yaml"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/theory/jsonpath"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type config struct {
	file     string
	chunk    int
	pick     string
	multiple bool
	tokens   bool
	mode     string
	sel      string
	out      string
	numbers  bool
	color    string
	verbose  bool
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	var cfg config
	fs := flag.NewFlagSet("jstream", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: jstream [options] [< input]

Read JSON text in chunks and write its tokens or values.

Options:
`)
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.file, "file", "", "read input from this file (default stdin)")
	fs.IntVar(&cfg.chunk, "chunk", jstream.DefaultChunkSize, "read input in chunks of this many bytes")
	fs.StringVar(&cfg.pick, "pick", "", "keep only subtrees matching this path (e.g. $.data[*].id)")
	fs.BoolVar(&cfg.multiple, "multiple", false, "accept multiple top-level values, and pick every match")
	fs.BoolVar(&cfg.tokens, "tokens", false, "print the token stream instead of values")
	fs.StringVar(&cfg.mode, "stream", "", "stream elements of the input: array, object, values")
	fs.StringVar(&cfg.sel, "select", "", "write only the nodes of each value selected by this JSONPath (RFC 9535)")
	fs.StringVar(&cfg.out, "out", "json", "output format: json, yaml")
	fs.BoolVar(&cfg.numbers, "numbers", false, "keep numbers as written in the input")
	fs.StringVar(&cfg.color, "color", "auto", "colorize token output: auto, always, never")
	fs.BoolFunc("colors", "same as -color=always", func(string) error {
		cfg.color = "always"
		return nil
	})
	fs.BoolFunc("nocolors", "same as -color=never", func(string) error {
		cfg.color = "never"
		return nil
	})
	fs.BoolVar(&cfg.verbose, "v", false, "log progress to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	} else if fs.NArg() != 0 {
		return nil, fmt.Errorf("unexpected arguments: %q", fs.Args())
	}
	switch cfg.mode {
	case "", "array", "object", "values":
	default:
		return nil, fmt.Errorf("invalid -stream value %q (use array, object, or values)", cfg.mode)
	}
	switch cfg.out {
	case "json", "yaml":
	default:
		return nil, fmt.Errorf("invalid -out value %q (use json or yaml)", cfg.out)
	}
	switch cfg.color {
	case "auto", "always", "never":
	default:
		return nil, fmt.Errorf("invalid -color value %q (use auto, always, or never)", cfg.color)
	}
	if cfg.tokens && (cfg.mode != "" || cfg.sel != "") {
		return nil, errors.New("-tokens cannot be combined with -stream or -select")
	}
	return &cfg, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	} else if err != nil {
		fmt.Fprintf(stderr, "jstream: %v\n", err)
		return 2
	}

	logger := log.New(io.Discard, "[jstream] ", log.Lmsgprefix)
	if cfg.verbose {
		logger.SetOutput(stderr)
	}

	input := stdin
	if cfg.file != "" {
		f, err := os.Open(cfg.file)
		if err != nil {
			fmt.Fprintf(stderr, "jstream: %v\n", err)
			return 1
		}
		defer f.Close()
		input = f
	}

	if err := process(cfg, input, stdout, logger); err != nil {
		fmt.Fprintf(stderr, "jstream: %v\n", err)
		return 1
	}
	return 0
}

func process(cfg *config, input io.Reader, stdout io.Writer, logger *log.Logger) error {
	dec := jstream.NewDecoder(&logReader{r: input, log: logger})
	dec.ChunkSize(cfg.chunk)
	dec.Tokenizer().AllowMultiple(cfg.multiple)

	var src jstream.TokenSource = dec
	if cfg.pick != "" {
		f, err := filter.Expr(cfg.pick)
		if err != nil {
			return fmt.Errorf("invalid -pick: %w", err)
		}
		src = filter.Pick(src, f, &filter.Options{Multiple: cfg.multiple})
	}

	if cfg.tokens {
		return printTokens(src, colorOutput(cfg.color, stdout))
	}

	var sel *jsonpath.Path
	if cfg.sel != "" {
		p, err := jsonpath.Parse(cfg.sel)
		if err != nil {
			return fmt.Errorf("invalid -select: %w", err)
		}
		sel = p
	}
	w := &valueWriter{w: stdout, yaml: cfg.out == "yaml", sel: sel}

	aopts := assemble.Options{NumberAsString: cfg.numbers}
	var nv int
	if cfg.mode == "" {
		for v, err := range assemble.NewDecoder(src, &aopts).Values() {
			if err != nil {
				return err
			} else if err := w.write(v); err != nil {
				return err
			}
			nv++
		}
		logger.Printf("wrote %d values", nv)
		return nil
	}

	sopts := &stream.Options{Assemble: aopts}
	var s *stream.Streamer
	switch cfg.mode {
	case "array":
		s = stream.Array(src, sopts)
	case "object":
		s = stream.Object(src, sopts)
	case "values":
		s = stream.Values(src, sopts)
	}
	for item, err := range s.All() {
		if err != nil {
			return err
		}
		v := item.Value
		if cfg.mode == "object" {
			v = map[string]any{item.Key: item.Value}
		}
		if err := w.write(v); err != nil {
			return err
		}
		nv++
	}
	logger.Printf("wrote %d elements", nv)
	return nil
}

// A valueWriter writes values to w as JSON lines or YAML documents.
type valueWriter struct {
	w    io.Writer
	yaml bool
	sel  *jsonpath.Path
	n    int // documents written
}

func (w *valueWriter) write(v any) error {
	if w.sel == nil {
		return w.writeOne(v)
	}
	for _, node := range w.sel.Select(v) {
		if err := w.writeOne(node); err != nil {
			return err
		}
	}
	return nil
}

func (w *valueWriter) writeOne(v any) error {
	defer func() { w.n++ }()
	if !w.yaml {
		enc := json.NewEncoder(w.w)
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	if w.n > 0 {
		io.WriteString(w.w, "---\n")
	}
	_, err = w.w.Write(data)
	return err
}

// A logReader logs the size of each chunk read from r.
type logReader struct {
	r   io.Reader
	log *log.Logger
	n   int64
}

func (r *logReader) Read(data []byte) (int, error) {
	nr, err := r.r.Read(data)
	r.n += int64(nr)
	if nr > 0 {
		r.log.Printf("read chunk of %d bytes (%d total)", nr, r.n)
	}
	return nr, err
}

// colorOutput returns the writer and colors to use for token output.
func colorOutput(mode string, stdout io.Writer) *tokenPrinter {
	f, isFile := stdout.(*os.File)
	color := mode == "always" || (mode == "auto" && isFile && isatty.IsTerminal(f.Fd()))
	if color && f == os.Stdout {
		stdout = colorable.NewColorableStdout()
	}
	p := &tokenPrinter{w: stdout}
	if color {
		p.colors = &defaultColors
	}
	return p
}
