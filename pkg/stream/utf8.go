package stream

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// chunkDecoder turns raw upstream reads into valid UTF-8 text. Complete
// characters are returned from the call that delivered them; only an
// incomplete multi-byte sequence at the end of a chunk is carried into the
// next call. Invalid bytes become U+FFFD.
type chunkDecoder struct {
	t       transform.Transformer
	pending []byte
	dst     []byte
}

func newChunkDecoder() *chunkDecoder {
	return &chunkDecoder{t: unicode.UTF8.NewDecoder()}
}

// Decode converts chunk. With atEOF set, a carried partial sequence is
// flushed as a replacement character.
func (d *chunkDecoder) Decode(chunk []byte, atEOF bool) (string, error) {
	src := append(d.pending, chunk...)
	d.pending = nil

	var out []byte
	for {
		// Every source byte expands to at most one U+FFFD.
		if need := 3*len(src) + utf8.UTFMax; cap(d.dst) < need {
			d.dst = make([]byte, need)
		}
		dst := d.dst[:cap(d.dst)]

		nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
		out = append(out, dst[:nDst]...)
		src = src[nSrc:]

		switch {
		case err == nil:
			return string(out), nil
		case errors.Is(err, transform.ErrShortSrc):
			d.pending = append([]byte(nil), src...)
			return string(out), nil
		case errors.Is(err, transform.ErrShortDst) && (nDst > 0 || nSrc > 0):
			continue
		default:
			return string(out), err
		}
	}
}
