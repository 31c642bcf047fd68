// Package stream joins streamed completion deltas into one text.
package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrTooLarge is returned when a stream exceeds Accumulator.MaxBytes.
var ErrTooLarge = errors.New("stream exceeds size limit")

// ChunkSource yields successive deltas and io.EOF after the last one.
type ChunkSource interface {
	Recv() (string, error)
}

// Accumulator collects deltas. The zero value has no size limit.
type Accumulator struct {
	// MaxBytes caps the collected text; zero means unlimited.
	MaxBytes int
}

// Collect reads src until io.EOF. On any other error, on ctx cancellation,
// or on ErrTooLarge it returns the text gathered so far with the error, since
// truncated completions are still worth decoding.
func (a Accumulator) Collect(ctx context.Context, src ChunkSource) (string, error) {
	var b strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return b.String(), err
		}
		chunk, err := src.Recv()
		if errors.Is(err, io.EOF) {
			b.WriteString(chunk)
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
		if a.MaxBytes > 0 && b.Len()+len(chunk) > a.MaxBytes {
			cut := a.MaxBytes - b.Len()
			for cut > 0 && !utf8.RuneStart(chunk[cut]) {
				cut--
			}
			b.WriteString(chunk[:cut])
			return b.String(), ErrTooLarge
		}
		b.WriteString(chunk)
	}
}

// Chunks is a ChunkSource over a fixed list, handy for replaying a capture.
type Chunks []string

// Recv pops the next chunk.
func (c *Chunks) Recv() (string, error) {
	if len(*c) == 0 {
		return "", io.EOF
	}
	next := (*c)[0]
	*c = (*c)[1:]
	return next, nil
}
