package stream

import "log/slog"

// defaultReadSize is the upstream read buffer size.
const defaultReadSize = 4096

// Option configures Normalize and NewReader.
type Option func(*options)

type options struct {
	schema        Schema
	provider      string
	logger        *slog.Logger
	onMalformed   func(line string, err error)
	readSize      int
	dropReasoning bool
}

func newOptions(opts []Option) options {
	o := options{
		schema:   SchemaSSE,
		provider: "unknown",
		readSize: defaultReadSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.readSize <= 0 {
		o.readSize = defaultReadSize
	}
	return o
}

// WithSchema selects the upstream wire schema. Defaults to SchemaSSE.
func WithSchema(s Schema) Option {
	return func(o *options) { o.schema = s }
}

// WithProvider sets the provider name used in logs and metric labels.
func WithProvider(name string) Option {
	return func(o *options) {
		if name != "" {
			o.provider = name
		}
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithErrorObserver registers a callback for lines that fail to decode.
// The callback runs on the pumping goroutine and must not block.
func WithErrorObserver(fn func(line string, err error)) Option {
	return func(o *options) { o.onMalformed = fn }
}

// WithReadSize sets the size of each upstream read.
func WithReadSize(n int) Option {
	return func(o *options) { o.readSize = n }
}

// WithoutReasoning drops reasoning deltas so only the answer text is
// written. No markers are produced in this mode.
func WithoutReasoning() Option {
	return func(o *options) { o.dropReasoning = true }
}
