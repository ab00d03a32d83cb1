package freshness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsStale(t *testing.T) {
	updated := int64(1_700_000_000)
	base := time.Unix(updated, 0)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"fresh", base.Add(time.Hour), false},
		{"exactly threshold", base.Add(5 * time.Hour), false},
		{"one millisecond past", base.Add(5*time.Hour + time.Millisecond), true},
		{"well past", base.Add(24 * time.Hour), true},
		{"clock behind publisher", base.Add(-time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStale(updated, tt.now, DefaultThreshold))
		})
	}
}

func TestIsStale_MatchesMillisecondRule(t *testing.T) {
	updated := int64(1_650_000_000)
	for _, offsetMs := range []int64{0, 1, 17_999_999, 18_000_000, 18_000_001, 40_000_000} {
		now := time.UnixMilli(updated*1000 + offsetMs)
		want := now.UnixMilli()-updated*1000 > 5*3600*1000
		assert.Equal(t, want, IsStale(updated, now, DefaultThreshold), "offset %d", offsetMs)
	}
}

func TestChecker(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC) // Tuesday
	c := NewChecker(0, func() time.Time { return now })

	assert.Equal(t, DefaultThreshold, c.Threshold())

	updated := now.Add(-6 * time.Hour).Unix()
	assert.True(t, c.IsStale(updated))

	st := c.Status(updated)
	assert.True(t, st.Stale)
	assert.Equal(t, "360 minutes ago", st.Relative)
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), st.NextReset)
	assert.Equal(t, 36*time.Hour, st.UntilReset)
	assert.Equal(t, int64(18000), st.ThresholdSec)

	custom := NewChecker(time.Hour, func() time.Time { return now })
	assert.True(t, custom.IsStale(now.Add(-2*time.Hour).Unix()))
}

func TestRelativeTime(t *testing.T) {
	now := time.Unix(10_000, 0)
	assert.Equal(t, "less than a minute ago", RelativeTime(10_000-59, now))
	assert.Equal(t, "1 minute ago", RelativeTime(10_000-60, now))
	assert.Equal(t, "1 minute ago", RelativeTime(10_000-119, now))
	assert.Equal(t, "2 minutes ago", RelativeTime(10_000-120, now))
}

func TestNextReset(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"sunday", time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC), time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)},
		{"wednesday late", time.Date(2024, 3, 6, 23, 59, 0, 0, time.UTC), time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)},
		{"thursday", time.Date(2024, 3, 7, 0, 0, 1, 0, time.UTC), time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"saturday", time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC), time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"month rollover", time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC), time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)},
		{"non-utc input", time.Date(2024, 3, 6, 22, 0, 0, 0, time.FixedZone("X", -5*3600)), time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextReset(tt.now))
		})
	}
}
