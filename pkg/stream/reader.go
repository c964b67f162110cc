package stream

import (
	"context"
	"io"
	"sync"
)

// NewReader starts normalizing src in a background goroutine and returns
// the normalized stream as an io.ReadCloser.
//
// The goroutine writes through an unbuffered pipe, so it does not read
// the next upstream chunk until the tokens of the current one have been
// consumed. When the upstream ends cleanly Read returns io.EOF; when it
// fails Read returns the error after the balancing </think>, if one was
// needed. Close stops the pump, closes src and waits for the goroutine to
// exit. src is always closed exactly once.
func NewReader(ctx context.Context, src io.ReadCloser, opts ...Option) io.ReadCloser {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()

	r := &reader{
		pr:     pr,
		src:    &onceCloser{ReadCloser: src},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(r.done)
		defer r.src.Close()
		err := Normalize(ctx, r.src, pw, opts...)
		pw.CloseWithError(err)
	}()

	return r
}

type reader struct {
	pr     *io.PipeReader
	src    *onceCloser
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (r *reader) Read(p []byte) (int, error) {
	return r.pr.Read(p)
}

// Close aborts the stream. Closing src unblocks a pending upstream read.
func (r *reader) Close() error {
	r.once.Do(func() {
		r.cancel()
		r.pr.Close()
		r.src.Close()
	})
	<-r.done
	return nil
}

// onceCloser makes Close idempotent, since both the pump and the consumer
// may close the upstream.
type onceCloser struct {
	io.ReadCloser
	once sync.Once
	err  error
}

func (c *onceCloser) Close() error {
	c.once.Do(func() { c.err = c.ReadCloser.Close() })
	return c.err
}
