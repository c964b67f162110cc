package stream

import (
	"bytes"
	"strings"
)

// LineFramer accumulates text and splits it into newline-delimited lines.
// At any time the buffer holds only bytes that do not yet form a complete
// line. There is no upper bound on the length of a pending line.
type LineFramer struct {
	buf []byte
}

// Feed appends chunk to the buffer and returns every complete line it now
// contains, each with surrounding whitespace trimmed. Empty lines are
// returned as empty strings; deciding what to skip is the decoder's job.
func (f *LineFramer) Feed(chunk string) []string {
	f.buf = append(f.buf, chunk...)

	var lines []string
	start := 0
	for {
		i := bytes.IndexByte(f.buf[start:], '\n')
		if i < 0 {
			break
		}
		lines = append(lines, strings.TrimSpace(string(f.buf[start:start+i])))
		start += i + 1
	}

	if start > 0 {
		n := copy(f.buf, f.buf[start:])
		f.buf = f.buf[:n]
	}
	return lines
}

// Pending returns the number of buffered bytes not yet part of a line.
func (f *LineFramer) Pending() int {
	return len(f.buf)
}

// Remainder returns the trimmed unterminated tail and empties the buffer.
// It is only meaningful once the upstream has ended.
func (f *LineFramer) Remainder() string {
	rest := strings.TrimSpace(string(f.buf))
	f.Reset()
	return rest
}

// Reset discards any buffered input.
func (f *LineFramer) Reset() {
	f.buf = f.buf[:0]
}
