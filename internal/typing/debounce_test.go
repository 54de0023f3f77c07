package typing

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerFiresOncePerBurst(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { fired.Add(1) })

	// A burst of touches inside the timeout
	for i := 0; i < 5; i++ {
		d.Touch()
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "a burst must produce exactly one expiry")
}

func TestDebouncerTouchExtendsCountdown(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { fired.Add(1) })

	d.Touch()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load(), "must not fire while touches keep coming")

	d.Touch()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load(), "countdown restarts on every touch")

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestDebouncerStopCancelsPendingFire(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { fired.Add(1) })

	d.Touch()
	d.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load(), "nothing may fire after Stop")

	// Touch after Stop is a no-op
	d.Touch()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	d.Stop() // idempotent
}

func TestDebouncerStaleExpiryDoesNotFire(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(time.Hour, func() { fired.Add(1) })

	// Two touches; the first timer's callback now carries a stale generation,
	// as if it had fired on the boundary just before the second keystroke.
	d.Touch()
	d.Touch()

	d.expire(1)
	assert.Equal(t, int32(0), fired.Load(), "a superseded timer must not end the burst")

	d.expire(2)
	assert.Equal(t, int32(1), fired.Load(), "the current generation still fires")
}

func TestDebouncerDefaultTimeout(t *testing.T) {
	d := NewDebouncer(0, nil)
	assert.Equal(t, DefaultIdleTimeout, d.timeout)
}
