package stream

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
)

func TestTagEmitter_Transitions(t *testing.T) {
	var out strings.Builder
	e := NewTagEmitter(&out)

	steps := []struct {
		call      func() error
		wantState EmitterState
	}{
		{func() error { return e.OnReasoning("a") }, StateReasoning},
		{func() error { return e.OnReasoning("b") }, StateReasoning},
		{func() error { return e.OnContent("") }, StateReasoning},
		{func() error { return e.OnContent("c") }, StatePlain},
		{func() error { return e.OnReasoning("") }, StatePlain},
		{func() error { return e.OnReasoning("d") }, StateReasoning},
		{func() error { return e.OnTerminate() }, StatePlain},
	}
	for i, s := range steps {
		if err := s.call(); err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		if e.State() != s.wantState {
			t.Fatalf("step %d: state = %d, want %d", i, e.State(), s.wantState)
		}
	}

	want := "<think>ab</think>c<think>d</think>"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if e.Spans() != 2 {
		t.Errorf("Spans() = %d, want 2", e.Spans())
	}
}

func TestTagEmitter_TerminateIdempotent(t *testing.T) {
	var out strings.Builder
	e := NewTagEmitter(&out)

	e.OnReasoning("x")
	for i := 0; i < 3; i++ {
		if err := e.OnTerminate(); err != nil {
			t.Fatalf("OnTerminate #%d: %v", i, err)
		}
	}
	// Nothing is written after termination.
	e.OnContent("late")
	e.OnReasoning("late")

	if got := out.String(); got != "<think>x</think>" {
		t.Errorf("output = %q, want %q", got, "<think>x</think>")
	}
	if !e.Done() {
		t.Error("Done() = false after OnTerminate")
	}
}

func TestTagEmitter_TerminateWithoutReasoning(t *testing.T) {
	var out strings.Builder
	e := NewTagEmitter(&out)

	e.OnContent("plain")
	e.OnTerminate()

	if got := out.String(); got != "plain" {
		t.Errorf("output = %q, want %q", got, "plain")
	}
}

func TestTagEmitter_DispatchReasoningFirst(t *testing.T) {
	var out strings.Builder
	e := NewTagEmitter(&out)

	e.Dispatch(Record{Kind: RecordDelta, Reasoning: "why", Content: "what"})
	e.Dispatch(Record{Kind: RecordSkip, Content: "ignored"})
	e.Dispatch(Record{Kind: RecordDelta, Reasoning: "more"})
	e.Dispatch(Record{Kind: RecordTerminator})

	want := "<think>why</think>what<think>more</think>"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestTagEmitter_DropReasoning(t *testing.T) {
	var out strings.Builder
	e := NewTagEmitter(&out)
	e.dropReasoning = true

	e.Dispatch(Record{Kind: RecordDelta, Reasoning: "hidden", Content: "shown"})
	e.OnTerminate()

	if got := out.String(); got != "shown" {
		t.Errorf("output = %q, want %q", got, "shown")
	}
	if e.Spans() != 0 {
		t.Errorf("Spans() = %d, want 0", e.Spans())
	}
}

// tokenRecorder records each Write call separately.
type tokenRecorder struct {
	tokens []string
	failAt int // fail the nth write (1-based); 0 never fails
}

func (r *tokenRecorder) Write(p []byte) (int, error) {
	if r.failAt > 0 && len(r.tokens)+1 == r.failAt {
		return 0, errors.New("sink closed")
	}
	r.tokens = append(r.tokens, string(p))
	return len(p), nil
}

func TestTagEmitter_OneWritePerToken(t *testing.T) {
	rec := &tokenRecorder{}
	e := NewTagEmitter(rec)

	e.OnReasoning("r")
	e.OnContent("c")

	want := []string{"<think>", "r", "</think>", "c"}
	if strings.Join(rec.tokens, "|") != strings.Join(want, "|") {
		t.Errorf("tokens = %q, want %q", rec.tokens, want)
	}
}

func TestTagEmitter_WriteErrorClosesSpan(t *testing.T) {
	rec := &tokenRecorder{failAt: 3}
	e := NewTagEmitter(rec)

	e.OnReasoning("r")
	if err := e.OnContent("c"); err == nil {
		t.Fatal("expected write error")
	}
	if e.State() != StatePlain {
		t.Errorf("state after failed close = %d, want StatePlain", e.State())
	}
}

// applyOps drives e with one call per op byte. The low two bits pick the
// call and bit 2 makes its text empty. Reasoning text is always "r" and
// content text "c".
func applyOps(e *TagEmitter, ops []byte) {
	for _, op := range ops {
		r, c := "r", "c"
		if op&4 != 0 {
			r, c = "", ""
		}
		switch op & 3 {
		case 0:
			e.OnReasoning(r)
		case 1:
			e.OnContent(c)
		case 2:
			e.OnTerminate()
		case 3:
			e.Dispatch(Record{Kind: RecordDelta, Reasoning: r, Content: c})
		}
	}
	e.OnTerminate()
}

// checkBalanced verifies that markers in tokens pair up without nesting,
// reasoning text only appears inside a span and content only outside one.
func checkBalanced(t *testing.T, tokens []string) {
	t.Helper()
	open := false
	for i, tok := range tokens {
		switch tok {
		case ThinkOpen:
			if open {
				t.Fatalf("token %d: nested %s in %q", i, ThinkOpen, tokens)
			}
			open = true
		case ThinkClose:
			if !open {
				t.Fatalf("token %d: unmatched %s in %q", i, ThinkClose, tokens)
			}
			open = false
		case "r":
			if !open {
				t.Fatalf("token %d: reasoning outside span in %q", i, tokens)
			}
		case "c":
			if open {
				t.Fatalf("token %d: content inside span in %q", i, tokens)
			}
		default:
			t.Fatalf("token %d: unexpected %q", i, tok)
		}
	}
	if open {
		t.Fatalf("span left open in %q", tokens)
	}
}

func TestTagEmitter_RandomSequencesBalanced(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		ops := make([]byte, rng.IntN(40))
		for j := range ops {
			ops[j] = byte(rng.IntN(8))
		}

		rec := &tokenRecorder{}
		e := NewTagEmitter(rec)
		applyOps(e, ops)

		checkBalanced(t, rec.tokens)
		if e.State() != StatePlain || !e.Done() {
			t.Fatalf("ops %v: state = %v, done = %v", ops, e.State(), e.Done())
		}
	}
}

func TestTagEmitter_NothingAfterTerminate(t *testing.T) {
	rec := &tokenRecorder{}
	e := NewTagEmitter(rec)
	e.OnReasoning("r")
	e.OnTerminate()
	n := len(rec.tokens)

	applyOps(e, []byte{0, 1, 3, 0})

	if len(rec.tokens) != n {
		t.Errorf("tokens after terminate = %q", rec.tokens[n:])
	}
}

func FuzzTagEmitterBalanced(f *testing.F) {
	f.Add([]byte{0, 0, 1, 1})
	f.Add([]byte{0, 1, 0, 1, 2})
	f.Add([]byte{3, 7, 4, 0, 5})
	f.Add([]byte{0, 2, 0, 1})
	f.Fuzz(func(t *testing.T, ops []byte) {
		rec := &tokenRecorder{}
		applyOps(NewTagEmitter(rec), ops)
		checkBalanced(t, rec.tokens)
	})
}
