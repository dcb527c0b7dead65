package debounce

import "time"

// Clock schedules deferred callbacks. Production code uses Real(); tests
// inject a FakeClock and advance it by hand.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer cancels a callback scheduled by Clock.AfterFunc.
type Timer interface {
	// Stop reports whether the call stopped a pending callback.
	Stop() bool
}

type realClock struct{}

// Real returns the wall clock.
func Real() Clock { return realClock{} }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
