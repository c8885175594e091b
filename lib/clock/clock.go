// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time surface easel code depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. If d <= 0, the channel receives
	// immediately.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a Ticker delivering ticks on its C channel
	// at the given interval. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker

	// Sleep pauses the current goroutine for at least duration d.
	Sleep(d time.Duration)
}

// Ticker wraps a periodic timer. Read ticks from C; call Stop when
// done. C has capacity 1, matching time.Ticker: if the consumer falls
// behind, ticks are dropped rather than queued. That drop behavior is
// what guarantees sampling ticks never overlap — a tick handler that
// runs long simply misses ticks instead of having them pile up.
type Ticker struct {
	// C delivers ticks. Buffered with capacity 1.
	C <-chan time.Time

	stopFunc func()
}

// Stop turns off the ticker. No more ticks are sent on C after Stop
// returns. Stop does not close C.
func (t *Ticker) Stop() { t.stopFunc() }
