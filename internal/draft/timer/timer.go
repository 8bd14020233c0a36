// Package timer computes per-pick deadlines. Deadlines are absolute
// wall-clock values while a draft runs and a frozen remaining duration
// while it is paused; the two representations are mutually exclusive.
package timer

import "time"

// ComputeDeadline returns the deadline for a pick starting at now, or nil
// for an untimed draft.
func ComputeDeadline(now time.Time, timerSeconds *int) *time.Time {
	if timerSeconds == nil {
		return nil
	}
	d := now.Add(time.Duration(*timerSeconds) * time.Second)
	return &d
}

// Freeze captures the remaining duration at pause time, clamped to zero.
// Returns nil for an untimed draft.
func Freeze(now time.Time, deadline *time.Time) *int64 {
	if deadline == nil {
		return nil
	}
	ms := deadline.Sub(now).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return &ms
}

// Resume converts a frozen remaining duration back into an absolute
// deadline. Returns nil for an untimed draft.
func Resume(now time.Time, remainingMS *int64) *time.Time {
	if remainingMS == nil {
		return nil
	}
	d := now.Add(time.Duration(*remainingMS) * time.Millisecond)
	return &d
}

// Expired reports whether the deadline has passed. An untimed draft never
// expires. Expiry is observed, never self-firing: the scheduler acts on it
// the next time the draft is touched.
func Expired(now time.Time, deadline *time.Time) bool {
	if deadline == nil {
		return false
	}
	return !now.Before(*deadline)
}
