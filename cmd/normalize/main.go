// Command normalize converts a captured raw provider stream into the
// normalized text stream, reasoning wrapped in <think>...</think>.
//
// Usage:
//
//	normalize [-schema sse|jsonl] [-plain] [-split] [file]
//
// The stream is read from file, or from stdin when no file is given.
// With -demo, built-in sample streams for both schemas are normalized.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/rhuss/thinkstream/pkg/debug"
	"github.com/rhuss/thinkstream/pkg/llmoutput"
	"github.com/rhuss/thinkstream/pkg/stream"
)

const sampleSSE = `: keep-alive

data: {"choices":[{"delta":{"role":"assistant"}}]}

data: {"choices":[{"delta":{"reasoning_content":"The user greets me. "}}]}

data: {"choices":[{"delta":{"reasoning_content":"Reply politely."}}]}

data: {"choices":[{"delta":{"content":"Hello! "}}]}

data: {"choices":[{"delta":{"content":"How can I help?"}}]}

data: [DONE]
`

const sampleJSONLines = `{"model":"qwen3","message":{"role":"assistant","thinking":"Two plus two "}}
{"model":"qwen3","message":{"role":"assistant","thinking":"is four."}}
{"model":"qwen3","message":{"role":"assistant","content":"4"}}
{"model":"qwen3","message":{"role":"assistant","content":""},"done":true}
`

type options struct {
	schema stream.Schema
	plain  bool
	split  bool
}

func main() {
	if err := run(); err != nil {
		slog.Error("normalize failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	schema := flag.String("schema", string(stream.SchemaSSE), "wire schema: sse or jsonl")
	plain := flag.Bool("plain", false, "drop reasoning, print the answer only")
	split := flag.Bool("split", false, "print reasoning and answer as separate sections")
	demo := flag.Bool("demo", false, "normalize the built-in sample streams")
	flag.Parse()

	debug.Init(debug.Options{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *demo {
		return runDemo(ctx, os.Stdout)
	}

	opts := options{schema: stream.Schema(*schema), plain: *plain, split: *split}
	if opts.schema != stream.SchemaSSE && opts.schema != stream.SchemaJSONLines {
		return fmt.Errorf("unknown schema %q", *schema)
	}

	src := io.Reader(os.Stdin)
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}
	return normalize(ctx, src, os.Stdout, opts)
}

func normalize(ctx context.Context, src io.Reader, out io.Writer, o options) error {
	malformed := 0
	streamOpts := []stream.Option{
		stream.WithSchema(o.schema),
		stream.WithProvider("capture"),
		stream.WithErrorObserver(func(string, error) { malformed++ }),
	}
	if o.plain {
		streamOpts = append(streamOpts, stream.WithoutReasoning())
	}

	if !o.split {
		err := stream.Normalize(ctx, src, out, streamOpts...)
		fmt.Fprintln(out)
		if malformed > 0 {
			slog.Warn("skipped malformed records", "count", malformed)
		}
		return err
	}

	var buf bytes.Buffer
	if err := stream.Normalize(ctx, src, &buf, streamOpts...); err != nil {
		return err
	}
	reasoning, answer := llmoutput.Split(buf.String())
	if !o.plain && reasoning != "" {
		fmt.Fprintf(out, "--- reasoning ---\n%s\n", reasoning)
	}
	fmt.Fprintf(out, "--- answer ---\n%s\n", answer)
	return nil
}

func runDemo(ctx context.Context, out io.Writer) error {
	samples := []struct {
		title  string
		schema stream.Schema
		data   string
	}{
		{"OpenAI-compatible SSE", stream.SchemaSSE, sampleSSE},
		{"Ollama JSON lines", stream.SchemaJSONLines, sampleJSONLines},
	}
	for _, s := range samples {
		fmt.Fprintf(out, "=== %s ===\n", s.title)
		for _, o := range []options{
			{schema: s.schema},
			{schema: s.schema, plain: true},
			{schema: s.schema, split: true},
		} {
			if err := normalize(ctx, strings.NewReader(s.data), out, o); err != nil {
				return err
			}
		}
		fmt.Fprintln(out)
	}
	return nil
}
