// Package freshness decides whether a snapshot is too old to trust and
// renders the "updated" and weekly reset times shown next to it.
package freshness

import (
	"fmt"
	"time"
)

// DefaultThreshold is how old a snapshot may get before it is flagged stale.
const DefaultThreshold = 5 * time.Hour

// IsStale reports whether more than threshold has elapsed between updatedAt
// (unix seconds) and now. Exactly threshold is not stale.
func IsStale(updatedAt int64, now time.Time, threshold time.Duration) bool {
	return now.Sub(time.Unix(updatedAt, 0)) > threshold
}

// Clock returns the current time.
type Clock func() time.Time

// Checker evaluates freshness against an injectable clock.
type Checker struct {
	threshold time.Duration
	now       Clock
}

// NewChecker creates a checker; a non-positive threshold means DefaultThreshold
// and a nil clock means time.Now.
func NewChecker(threshold time.Duration, clock Clock) *Checker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if clock == nil {
		clock = time.Now
	}
	return &Checker{threshold: threshold, now: clock}
}

// Status is the freshness view for one snapshot.
type Status struct {
	UpdatedAt    time.Time     `json:"updated_at"`
	Age          time.Duration `json:"age_ns"`
	Stale        bool          `json:"stale"`
	Relative     string        `json:"relative"`
	NextReset    time.Time     `json:"next_reset"`
	UntilReset   time.Duration `json:"until_reset_ns"`
	ThresholdSec int64         `json:"threshold_seconds"`
}

// Threshold returns the configured staleness threshold
func (c *Checker) Threshold() time.Duration {
	return c.threshold
}

// IsStale applies IsStale with the checker's clock and threshold.
func (c *Checker) IsStale(updatedAt int64) bool {
	return IsStale(updatedAt, c.now(), c.threshold)
}

// Status computes every freshness field for updatedAt at the current clock time.
func (c *Checker) Status(updatedAt int64) Status {
	now := c.now()
	next := NextReset(now)
	return Status{
		UpdatedAt:    time.Unix(updatedAt, 0).UTC(),
		Age:          now.Sub(time.Unix(updatedAt, 0)),
		Stale:        IsStale(updatedAt, now, c.threshold),
		Relative:     RelativeTime(updatedAt, now),
		NextReset:    next,
		UntilReset:   next.Sub(now),
		ThresholdSec: int64(c.threshold / time.Second),
	}
}

// RelativeTime renders how long ago updatedAt was, in whole minutes.
func RelativeTime(updatedAt int64, now time.Time) string {
	minutes := int(now.Sub(time.Unix(updatedAt, 0)) / time.Minute)
	switch {
	case minutes < 1:
		return "less than a minute ago"
	case minutes == 1:
		return "1 minute ago"
	default:
		return fmt.Sprintf("%d minutes ago", minutes)
	}
}

// NextReset returns the next Thursday 00:00 UTC strictly after the start of
// today. On a Thursday it returns the following Thursday.
func NextReset(now time.Time) time.Time {
	now = now.UTC()
	day := int(now.Weekday())
	var add int
	if day >= int(time.Thursday) {
		add = 11 - day
	} else {
		add = int(time.Thursday) - day
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, add)
}
