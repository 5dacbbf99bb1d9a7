// Package pool holds reusable objects for hot read paths.
package pool

import (
	"sync"
	"time"
)

var timers sync.Pool

// GetTimer returns a timer that fires after d, reusing a pooled one when
// available. Hand it back with PutTimer.
func GetTimer(d time.Duration) *time.Timer {
	t, ok := timers.Get().(*time.Timer)
	if !ok {
		return time.NewTimer(d)
	}
	t.Reset(d)

	return t
}

// PutTimer stops t and returns it to the pool. t must not be used afterwards.
func PutTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	timers.Put(t)
}
