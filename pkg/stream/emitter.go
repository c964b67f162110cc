package stream

import "io"

// Marker tokens bracketing reasoning in the normalized output.
const (
	ThinkOpen  = "<think>"
	ThinkClose = "</think>"
)

// EmitterState is the state of a TagEmitter.
type EmitterState int

const (
	StatePlain     EmitterState = iota // No reasoning span open
	StateReasoning                     // <think> written, </think> pending
)

// TagEmitter writes deltas to a sink, opening and closing reasoning
// markers as the stream switches between reasoning and content. Markers
// are always balanced once OnTerminate has run, and content is never
// written inside an open reasoning span.
//
// Every token is a separate Write call so the sink can forward it without
// waiting for more output. A TagEmitter is not safe for concurrent use.
type TagEmitter struct {
	w     io.Writer
	state EmitterState
	done  bool
	spans int

	// dropReasoning turns the emitter into an answer-only filter.
	dropReasoning bool
}

// NewTagEmitter returns an emitter in StatePlain writing to w.
func NewTagEmitter(w io.Writer) *TagEmitter {
	return &TagEmitter{w: w}
}

// State returns the current state.
func (e *TagEmitter) State() EmitterState {
	return e.state
}

// Done reports whether OnTerminate has been called.
func (e *TagEmitter) Done() bool {
	return e.done
}

// Spans returns how many reasoning spans have been opened.
func (e *TagEmitter) Spans() int {
	return e.spans
}

// OnReasoning writes a reasoning delta, opening a span first if needed.
// Empty text is a no-op.
func (e *TagEmitter) OnReasoning(text string) error {
	if text == "" || e.done || e.dropReasoning {
		return nil
	}
	if e.state == StatePlain {
		if err := e.write(ThinkOpen); err != nil {
			return err
		}
		e.state = StateReasoning
		e.spans++
	}
	return e.write(text)
}

// OnContent writes an answer delta, closing an open span first.
// Empty text is a no-op.
func (e *TagEmitter) OnContent(text string) error {
	if text == "" || e.done {
		return nil
	}
	if err := e.closeSpan(); err != nil {
		return err
	}
	return e.write(text)
}

// OnTerminate closes an open span and marks the emitter finished. Later
// calls to any method write nothing. It is idempotent.
func (e *TagEmitter) OnTerminate() error {
	if e.done {
		return nil
	}
	e.done = true
	return e.closeSpan()
}

// Dispatch applies a decoded record: reasoning first, then content, and
// OnTerminate for a terminator.
func (e *TagEmitter) Dispatch(rec Record) error {
	switch rec.Kind {
	case RecordDelta:
		if err := e.OnReasoning(rec.Reasoning); err != nil {
			return err
		}
		return e.OnContent(rec.Content)
	case RecordTerminator:
		return e.OnTerminate()
	default:
		return nil
	}
}

func (e *TagEmitter) closeSpan() error {
	if e.state != StateReasoning {
		return nil
	}
	// The span counts as closed even if the write fails; a second attempt
	// could only produce a stray marker.
	e.state = StatePlain
	return e.write(ThinkClose)
}

func (e *TagEmitter) write(s string) error {
	_, err := io.WriteString(e.w, s)
	return err
}
