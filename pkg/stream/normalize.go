package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rhuss/thinkstream/pkg/debug"
	"github.com/rhuss/thinkstream/pkg/observability"
)

// Normalize reads a raw provider stream from src and writes the normalized
// token stream to dst until the upstream ends, a terminator record
// arrives, or ctx is cancelled.
//
// Each output token is written with its own Write call as soon as the
// upstream chunk that produced it has been decoded, so a blocking dst
// throttles upstream reads. On a clean end it returns nil after closing any
// open reasoning span. On a read error, a write error, or cancellation it
// first makes a best-effort attempt to close the span and then returns the
// error. Malformed records never cause an error.
func Normalize(ctx context.Context, src io.Reader, dst io.Writer, opts ...Option) (err error) {
	n := newNormalizer(dst, newOptions(opts))

	observability.StreamsActive.Inc()
	defer func() {
		observability.StreamsActive.Dec()
		observability.StreamsTotal.WithLabelValues(n.o.provider, outcome(err)).Inc()
		if spans := n.emitter.Spans(); spans > 0 {
			observability.ReasoningSpansTotal.WithLabelValues(n.o.provider).Add(float64(spans))
		}
	}()

	return n.run(ctx, src)
}

// normalizer owns the per-request framer and emitter state.
type normalizer struct {
	o       options
	framer  LineFramer
	decode  DecodeFunc
	emitter *TagEmitter
}

func newNormalizer(dst io.Writer, o options) *normalizer {
	emitter := NewTagEmitter(dst)
	emitter.dropReasoning = o.dropReasoning
	return &normalizer{
		o:       o,
		decode:  o.schema.Decoder(),
		emitter: emitter,
	}
}

func (n *normalizer) run(ctx context.Context, src io.Reader) error {
	dec := newChunkDecoder()
	buf := make([]byte, n.o.readSize)

	for {
		if err := ctx.Err(); err != nil {
			n.abort(err)
			return err
		}

		nr, rerr := src.Read(buf)
		if nr > 0 || rerr == io.EOF {
			text, err := dec.Decode(buf[:nr], rerr == io.EOF)
			if err != nil {
				n.abort(err)
				return fmt.Errorf("decoding upstream stream: %w", err)
			}
			terminated, err := n.process(text)
			if err != nil {
				n.abort(err)
				return fmt.Errorf("writing normalized stream: %w", err)
			}
			if terminated {
				return n.finish()
			}
		}

		switch {
		case rerr == io.EOF:
			return n.finish()
		case rerr != nil:
			if err := ctx.Err(); err != nil {
				n.abort(err)
				return err
			}
			n.abort(rerr)
			return fmt.Errorf("reading upstream stream: %w", rerr)
		}
	}
}

// process frames one decoded chunk and dispatches every complete line.
// It reports whether a terminator record was seen.
func (n *normalizer) process(chunk string) (bool, error) {
	for _, line := range n.framer.Feed(chunk) {
		debug.Trace("streaming", "upstream line", "provider", n.o.provider, "line", line)

		rec, err := n.decode(line)
		if err != nil {
			n.malformed(line, err)
			continue
		}
		observability.StreamRecordsTotal.WithLabelValues(string(n.o.schema), rec.Kind.String()).Inc()

		if err := n.emitter.Dispatch(rec); err != nil {
			return false, err
		}
		if rec.Kind == RecordTerminator {
			return true, nil
		}
	}
	return false, nil
}

func (n *normalizer) malformed(line string, err error) {
	observability.StreamRecordsTotal.WithLabelValues(string(n.o.schema), "malformed").Inc()
	n.o.logger.Warn("skipping malformed stream record",
		"provider", n.o.provider,
		"error", err.Error(),
		"data", debug.Truncate(line, 200),
	)
	if n.o.onMalformed != nil {
		n.o.onMalformed(line, err)
	}
}

// finish handles a clean end of stream.
func (n *normalizer) finish() error {
	if rest := n.framer.Remainder(); rest != "" {
		debug.Log("streaming", "discarding unterminated trailing line",
			"provider", n.o.provider,
			"data", debug.Truncate(rest, 200),
		)
	}
	if err := n.emitter.OnTerminate(); err != nil {
		return fmt.Errorf("writing normalized stream: %w", err)
	}
	debug.Log("streaming", "stream completed",
		"provider", n.o.provider,
		"reasoning_spans", n.emitter.Spans(),
	)
	return nil
}

// abort balances an open reasoning span before an error is surfaced. A
// failure to write the closing marker is ignored: the sink is already
// broken or the error takes precedence.
func (n *normalizer) abort(cause error) {
	open := n.emitter.State() == StateReasoning
	_ = n.emitter.OnTerminate()
	n.framer.Reset()

	if isCancellation(cause) {
		debug.Log("streaming", "stream cancelled", "provider", n.o.provider, "closed_reasoning", open)
		return
	}
	n.o.logger.Warn("stream aborted",
		"provider", n.o.provider,
		"error", cause.Error(),
		"closed_reasoning", open,
	)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrClosedPipe)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "completed"
	case isCancellation(err):
		return "cancelled"
	default:
		return "error"
	}
}
