package session

import (
	"sync"
	"time"
)

// TurnTimer drives the per-move countdown for one session. Arm replaces any
// previous countdown; Stop discards it. Every callback carries the
// generation it was armed with, so a tick or expiry that raced a Stop or a
// re-Arm can be recognized as stale and dropped by the owner.
type TurnTimer struct {
	tick time.Duration

	mu   sync.Mutex
	gen  uint64
	stop chan struct{}

	onTick   func(gen uint64, secondsLeft int)
	onExpire func(gen uint64)
}

func NewTurnTimer(onTick func(uint64, int), onExpire func(uint64)) *TurnTimer {
	return &TurnTimer{
		tick:     time.Second,
		onTick:   onTick,
		onExpire: onExpire,
	}
}

// Arm - starts a fresh countdown of the given number of seconds,
// superseding whatever countdown was running before.
func (that *TurnTimer) Arm(seconds int) {
	that.mu.Lock()
	if that.stop != nil {
		close(that.stop)
	}
	that.gen++
	gen := that.gen
	stop := make(chan struct{})
	that.stop = stop
	that.mu.Unlock()

	go that.run(gen, seconds, stop)
}

// Stop - cancels the running countdown. An expiry already in flight will
// fail the Current check and have no effect.
func (that *TurnTimer) Stop() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.stop != nil {
		close(that.stop)
		that.stop = nil
	}
	that.gen++
}

// Current - reports whether gen identifies the countdown that is still
// armed. Stale ticks and expiries fail this check.
func (that *TurnTimer) Current(gen uint64) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.stop != nil && gen == that.gen
}

func (that *TurnTimer) run(gen uint64, seconds int, stop chan struct{}) {
	that.onTick(gen, seconds)

	ticker := time.NewTicker(that.tick)
	defer ticker.Stop()

	left := seconds
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			left--
			if left <= 0 {
				that.onExpire(gen)
				return
			}
			that.onTick(gen, left)
		}
	}
}
