package http

import (
	"errors"
	"io"
	"net/http"
)

// StreamErrorTrailer reports an error that ended a stream after the
// status line was already sent.
const StreamErrorTrailer = "X-Stream-Error"

const copyBufferSize = 4096

// copyStream writes a normalized text stream to the client, flushing
// after every chunk so tokens are delivered as they arrive. A read error
// from src is returned and announced in the X-Stream-Error trailer; the
// text already written stays balanced because the normalizer closes any
// open reasoning span before failing.
func copyStream(w http.ResponseWriter, src io.Reader) error {
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Trailer", StreamErrorTrailer)
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	flush := func() error {
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
		return nil
	}
	if err := flush(); err != nil {
		return err
	}

	buf := make([]byte, copyBufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if ferr := flush(); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			h.Set(StreamErrorTrailer, err.Error())
			return err
		}
	}
}
