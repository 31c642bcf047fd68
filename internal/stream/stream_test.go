package stream

import (
	"context"
	"errors"
	"io"
	"testing"
	"unicode/utf8"
)

type failingSource struct {
	chunks []string
	err    error
}

func (f *failingSource) Recv() (string, error) {
	if len(f.chunks) == 0 {
		return "", f.err
	}
	c := f.chunks[0]
	f.chunks = f.chunks[1:]
	return c, nil
}

func TestCollect_JoinsChunks(t *testing.T) {
	src := Chunks{`{"data":`, `{"script":`, `"hi"}}`}
	got, err := Accumulator{}.Collect(context.Background(), &src)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got != `{"data":{"script":"hi"}}` {
		t.Fatalf("got %q", got)
	}
}

func TestCollect_PartialOnError(t *testing.T) {
	boom := errors.New("connection reset")
	src := &failingSource{chunks: []string{`{"data":`, `{"scr`}, err: boom}
	got, err := Accumulator{}.Collect(context.Background(), src)
	if !errors.Is(err, boom) {
		t.Fatalf("expected stream error, got %v", err)
	}
	if got != `{"data":{"scr` {
		t.Fatalf("partial = %q", got)
	}
}

func TestCollect_SizeLimit(t *testing.T) {
	src := Chunks{"abcd", "efgh", "ijkl"}
	got, err := Accumulator{MaxBytes: 6}.Collect(context.Background(), &src)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if got != "abcdef" {
		t.Fatalf("got %q", got)
	}
}

func TestCollect_SizeLimitKeepsRunesWhole(t *testing.T) {
	// "é" is two bytes; a cap of 4 falls inside the second one.
	src := Chunks{"ab", "cé", "d"}
	got, err := Accumulator{MaxBytes: 4}.Collect(context.Background(), &src)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if got != "abc" || !utf8.ValidString(got) {
		t.Fatalf("got %q", got)
	}
}

func TestCollect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := Chunks{"never"}
	got, err := Accumulator{}.Collect(ctx, &src)
	if !errors.Is(err, context.Canceled) || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
}

func TestChunks_EOF(t *testing.T) {
	var c Chunks
	if _, err := c.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}
