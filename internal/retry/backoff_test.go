package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

var errRefused = errors.New("connection refused")

func TestBackoff_SuccessAfterRetries(t *testing.T) {
	b := &Backoff{InitialDelay: time.Millisecond, MaxAttempts: 10}
	calls := 0

	err := b.Do(context.Background(), func(attempt int) error {
		calls++
		if attempt < 3 {
			return errRefused
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestBackoff_PermanentError(t *testing.T) {
	b := DefaultBackoff()
	calls := 0
	fatal := fmt.Errorf("530 login incorrect")

	err := b.Do(context.Background(), func(_ int) error {
		calls++
		return Permanent(fatal)
	})

	if err != fatal {
		t.Errorf("err = %v, want the unwrapped cause", err)
	}
	if calls != 1 {
		t.Errorf("permanent error should stop after 1 call, got %d", calls)
	}
}

func TestBackoff_SingleAttemptPassthrough(t *testing.T) {
	b := &Backoff{MaxAttempts: 1}
	calls := 0

	err := b.Do(context.Background(), func(_ int) error {
		calls++
		return errRefused
	})

	if err != errRefused {
		t.Errorf("err = %v, want the raw error", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestBackoff_GivesUp(t *testing.T) {
	b := &Backoff{InitialDelay: time.Millisecond, MaxAttempts: 3}

	err := b.Do(context.Background(), func(_ int) error { return errRefused })

	if !errors.Is(err, errRefused) {
		t.Errorf("err = %v, should wrap the last failure", err)
	}
	if err == nil || !strings.Contains(err.Error(), "giving up after 3 attempts") {
		t.Errorf("err = %v, want attempt count", err)
	}
}

func TestBackoff_ContextCancelled(t *testing.T) {
	b := &Backoff{InitialDelay: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := b.Do(ctx, func(_ int) error { return errRefused })

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context deadline", err)
	}
}

func TestBackoff_OnRetry(t *testing.T) {
	type call struct {
		attempt int
		err     error
		wait    time.Duration
	}
	var seen []call
	b := &Backoff{
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		Multiplier:   2,
		MaxAttempts:  6,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			seen = append(seen, call{attempt, err, wait})
		},
	}

	_ = b.Do(context.Background(), func(attempt int) error {
		return fmt.Errorf("attempt %d: %w", attempt, errRefused)
	})

	wantWaits := []time.Duration{1, 2, 4, 4, 4}
	if len(seen) != len(wantWaits) {
		t.Fatalf("OnRetry called %d times, want %d", len(seen), len(wantWaits))
	}
	for i, c := range seen {
		if c.attempt != i+1 {
			t.Errorf("call %d: attempt = %d", i, c.attempt)
		}
		if !errors.Is(c.err, errRefused) || !strings.HasPrefix(c.err.Error(), fmt.Sprintf("attempt %d:", i+1)) {
			t.Errorf("call %d: err = %v, want that attempt's failure", i, c.err)
		}
		if c.wait != wantWaits[i]*time.Millisecond {
			t.Errorf("call %d: wait = %v, want %v", i, c.wait, wantWaits[i]*time.Millisecond)
		}
	}
}

func TestBackoff_DefaultScheduleCap(t *testing.T) {
	for _, b := range []*Backoff{DefaultBackoff(), {}} {
		d, mult, maxDelay := b.schedule()
		if maxDelay != 30*time.Second {
			t.Errorf("max delay = %v, want 30s", maxDelay)
		}
		var got []time.Duration
		for i := 0; i < 7; i++ {
			got = append(got, d)
			d = grow(d, mult, maxDelay)
		}
		want := []time.Duration{1, 2, 4, 8, 16, 30, 30}
		for i := range want {
			if got[i] != want[i]*time.Second {
				t.Errorf("delay %d = %v, want %v", i, got[i], want[i]*time.Second)
			}
		}
	}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"permanent", Permanent(errRefused), true},
		{"wrapped permanent", fmt.Errorf("connect: %w", Permanent(errRefused)), true},
		{"not permanent", errRefused, false},
		{"nil", Permanent(nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Errorf("IsPermanent() = %v, want %v", got, tt.want)
			}
		})
	}
}
