package pitstop

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Token identifies one scheduled frame loop. A token stays valid until the
// next Begin or Cancel.
type Token uint64

// Scheduler hands out redraw frames on a fixed interval. Each frame is
// requested explicitly with Next, so a loop that stops asking simply ends;
// Cancel wakes any pending wait and releases its timer.
type Scheduler struct {
	clock    clockwork.Clock
	interval time.Duration

	mu      sync.Mutex
	current Token
	cancel  chan struct{}
}

// NewScheduler returns a scheduler that waits interval between frames.
func NewScheduler(clock clockwork.Clock, interval time.Duration) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Scheduler{clock: clock, interval: interval}
}

// Clock returns the time source frames are measured on.
func (s *Scheduler) Clock() clockwork.Clock {
	return s.clock
}

// Interval returns the frame interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Begin cancels the current loop, if any, and returns a fresh token.
func (s *Scheduler) Begin() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.current++
	s.cancel = make(chan struct{})
	return s.current
}

// Cancel invalidates the current token and wakes a pending Next.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Valid reports whether tok is the live token.
func (s *Scheduler) Valid(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validLocked(tok)
}

// Next blocks for one frame interval and returns the frame time. It returns
// false without waiting when tok is stale, and early when tok is cancelled
// or ctx ends.
func (s *Scheduler) Next(ctx context.Context, tok Token) (time.Time, bool) {
	s.mu.Lock()
	if !s.validLocked(tok) {
		s.mu.Unlock()
		return time.Time{}, false
	}
	done := s.cancel
	s.mu.Unlock()

	timer := s.clock.NewTimer(s.interval)
	select {
	case now := <-timer.Chan():
		if !s.Valid(tok) {
			return time.Time{}, false
		}
		return now, true
	case <-done:
		stopAndDrainTimer(timer)
		return time.Time{}, false
	case <-ctx.Done():
		stopAndDrainTimer(timer)
		return time.Time{}, false
	}
}

func (s *Scheduler) validLocked(tok Token) bool {
	return tok != 0 && tok == s.current && s.cancel != nil
}

func (s *Scheduler) cancelLocked() {
	if s.cancel != nil {
		close(s.cancel)
		s.cancel = nil
	}
}

func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
