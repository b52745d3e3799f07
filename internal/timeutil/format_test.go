package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRelative(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute, "a minute ago"},
		{10 * time.Minute, "10 minutes ago"},
		{time.Hour, "an hour ago"},
		{5 * time.Hour, "5 hours ago"},
		{30 * time.Hour, "yesterday"},
		{3 * 24 * time.Hour, "3 days ago"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Relative(now.Add(-tc.ago), now))
	}

	assert.Equal(t, "Aug 1, 2026", Relative(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "", Relative(time.Time{}, now))
}
