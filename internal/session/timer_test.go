package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnTimer_Arm(t *testing.T) {
	t.Run("Counts down and expires", func(t *testing.T) {
		var ticks, expiries atomic.Int64

		timer := NewTurnTimer(
			func(uint64, int) { ticks.Add(1) },
			func(uint64) { expiries.Add(1) },
		)

		// When: arming a one second countdown
		timer.Arm(1)

		// Then: it ticks at least once and then expires
		assert.Eventually(t, func() bool {
			return expiries.Load() == 1
		}, 3*time.Second, 10*time.Millisecond)
		assert.GreaterOrEqual(t, ticks.Load(), int64(1))
	})

	t.Run("First tick reports the full countdown", func(t *testing.T) {
		firstTick := make(chan int, 1)

		timer := NewTurnTimer(
			func(_ uint64, secondsLeft int) {
				select {
				case firstTick <- secondsLeft:
				default:
				}
			},
			func(uint64) {},
		)
		defer timer.Stop()

		timer.Arm(60)

		select {
		case secondsLeft := <-firstTick:
			assert.Equal(t, 60, secondsLeft)
		case <-time.After(time.Second):
			t.Fatal("no tick within a second of arming")
		}
	})
}

func TestTurnTimer_Stop(t *testing.T) {
	t.Run("Stop invalidates the armed generation", func(t *testing.T) {
		gens := make(chan uint64, 1)

		timer := NewTurnTimer(
			func(gen uint64, _ int) {
				select {
				case gens <- gen:
				default:
				}
			},
			func(uint64) {},
		)

		timer.Arm(60)

		var gen uint64
		select {
		case gen = <-gens:
		case <-time.After(time.Second):
			t.Fatal("no tick within a second of arming")
		}
		require.True(t, timer.Current(gen))

		// When: the countdown is cancelled
		timer.Stop()

		// Then: the old generation is stale
		assert.False(t, timer.Current(gen))
	})

	t.Run("Stop without an armed countdown is safe", func(t *testing.T) {
		timer := NewTurnTimer(func(uint64, int) {}, func(uint64) {})

		timer.Stop()
		timer.Stop()
	})
}

func TestTurnTimer_Rearm(t *testing.T) {
	t.Run("Re-arming supersedes the previous countdown", func(t *testing.T) {
		gens := make(chan uint64, 16)

		timer := NewTurnTimer(
			func(gen uint64, _ int) {
				select {
				case gens <- gen:
				default:
				}
			},
			func(uint64) {},
		)
		defer timer.Stop()

		timer.Arm(60)

		var firstGen uint64
		select {
		case firstGen = <-gens:
		case <-time.After(time.Second):
			t.Fatal("no tick within a second of arming")
		}

		// When: a new countdown replaces the first
		timer.Arm(60)

		// Then: only the latest generation is current
		assert.False(t, timer.Current(firstGen))
		assert.Eventually(t, func() bool {
			select {
			case gen := <-gens:
				return gen != firstGen && timer.Current(gen)
			default:
				return false
			}
		}, 3*time.Second, 10*time.Millisecond)
	})
}
