package cache

import "time"

// SwapTimeNow overrides the package clock for a test and returns a
// restore func.
func SwapTimeNow(fn func() time.Time) (restore func()) {
	prev := timeNow
	timeNow = fn
	return func() { timeNow = prev }
}
