package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func TestDo_ExhaustsWithDoublingDelays(t *testing.T) {
	rec := &recorder{}
	p := Policy{MaxRetries: 3, Sleep: rec.sleep}
	calls := 0
	boom := errors.New("boom")
	err := p.Do(context.Background(), func(_ context.Context, attempt int) error {
		if attempt != calls {
			t.Fatalf("attempt %d, want %d", attempt, calls)
		}
		calls++
		return boom
	})
	if calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}
	if len(rec.delays) != len(want) {
		t.Fatalf("delays: %v", rec.delays)
	}
	for i := range want {
		if rec.delays[i] != want[i] {
			t.Fatalf("delay %d = %v, want %v", i, rec.delays[i], want[i])
		}
	}
	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if ex.Attempts != 4 || !errors.Is(err, boom) {
		t.Fatalf("unexpected exhausted error: %+v", ex)
	}
}

func TestDo_StopsOnSuccess(t *testing.T) {
	rec := &recorder{}
	p := Policy{MaxRetries: 3, Sleep: rec.sleep}
	calls := 0
	err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 || len(rec.delays) != 1 {
		t.Fatalf("calls=%d delays=%v", calls, rec.delays)
	}
}

func TestDo_ZeroPolicySingleAttempt(t *testing.T) {
	calls := 0
	err := Policy{}.Do(context.Background(), func(context.Context, int) error {
		calls++
		return errors.New("fail")
	})
	if calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls)
	}
	var ex *ExhaustedError
	if !errors.As(err, &ex) || ex.Attempts != 1 {
		t.Fatalf("expected exhausted after 1 attempt, got %v", err)
	}
}

func TestDo_CancelDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxRetries: 3, BaseDelay: time.Hour}
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(context.Context, int) error {
			calls++
			return errors.New("fail")
		})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancel")
	}
	if calls != 1 {
		t.Fatalf("expected 1 attempt before cancel, got %d", calls)
	}
}

func TestDo_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Policy{MaxRetries: 3}.Do(ctx, func(context.Context, int) error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestDelay_CustomBase(t *testing.T) {
	p := Policy{BaseDelay: 10 * time.Millisecond}
	if got := p.Delay(2); got != 40*time.Millisecond {
		t.Fatalf("Delay(2) = %v", got)
	}
}
