package pitstop

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type frameResult struct {
	at time.Time
	ok bool
}

func waitNext(ctx context.Context, s *Scheduler, tok Token) <-chan frameResult {
	out := make(chan frameResult, 1)
	go func() {
		at, ok := s.Next(ctx, tok)
		out <- frameResult{at: at, ok: ok}
	}()
	return out
}

func receive(t *testing.T, ch <-chan frameResult) frameResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for frame")
		return frameResult{}
	}
}

func TestSchedulerDeliversFrame(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock := clockwork.NewFakeClockAt(t0)
	s := NewScheduler(clock, DefaultFrameInterval)

	tok := s.Begin()
	ch := waitNext(ctx, s, tok)
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("waiting for timer: %v", err)
	}
	clock.Advance(DefaultFrameInterval)
	r := receive(t, ch)
	if !r.ok {
		t.Fatalf("expected a frame")
	}
	if !r.at.Equal(t0.Add(DefaultFrameInterval)) {
		t.Fatalf("expected frame at %v, got %v", t0.Add(DefaultFrameInterval), r.at)
	}
}

func TestSchedulerCancelWakesWaiter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock := clockwork.NewFakeClockAt(t0)
	s := NewScheduler(clock, DefaultFrameInterval)

	tok := s.Begin()
	ch := waitNext(ctx, s, tok)
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("waiting for timer: %v", err)
	}
	s.Cancel()
	if r := receive(t, ch); r.ok {
		t.Fatalf("expected cancelled wait to report no frame")
	}
	if err := clock.BlockUntilContext(ctx, 0); err != nil {
		t.Fatalf("expected the pending timer to be released: %v", err)
	}
	if s.Valid(tok) {
		t.Fatalf("expected token to be invalid after cancel")
	}
	if _, ok := s.Next(ctx, tok); ok {
		t.Fatalf("expected Next on a cancelled token to fail immediately")
	}
}

func TestSchedulerBeginInvalidatesPreviousToken(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock := clockwork.NewFakeClockAt(t0)
	s := NewScheduler(clock, DefaultFrameInterval)

	first := s.Begin()
	ch := waitNext(ctx, s, first)
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("waiting for timer: %v", err)
	}
	second := s.Begin()
	if r := receive(t, ch); r.ok {
		t.Fatalf("expected the superseded loop to stop")
	}
	if first == second || !s.Valid(second) || s.Valid(first) {
		t.Fatalf("expected only the newest token to be valid")
	}
}

func TestSchedulerContextCancel(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	s := NewScheduler(clock, DefaultFrameInterval)
	tok := s.Begin()

	ctx, cancel := context.WithCancel(context.Background())
	ch := waitNext(ctx, s, tok)
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if err := clock.BlockUntilContext(waitCtx, 1); err != nil {
		t.Fatalf("waiting for timer: %v", err)
	}
	cancel()
	if r := receive(t, ch); r.ok {
		t.Fatalf("expected no frame after context cancel")
	}
	if !s.Valid(tok) {
		t.Fatalf("context cancel should not invalidate the token")
	}
}

func TestSchedulerZeroTokenIsNeverValid(t *testing.T) {
	s := NewScheduler(clockwork.NewFakeClock(), 0)
	if s.Valid(0) {
		t.Fatalf("zero token must not be valid")
	}
	if s.Interval() != DefaultFrameInterval {
		t.Fatalf("expected default interval, got %v", s.Interval())
	}
}
