package timeutil

import (
	"fmt"
	"time"
)

// Relative renders how long ago t happened, for transcript display.
func Relative(t time.Time, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	elapsed := now.Sub(t)
	if elapsed < 0 {
		elapsed = 0
	}

	switch {
	case elapsed < 30*time.Second:
		return "just now"
	case elapsed < 90*time.Second:
		return "a minute ago"
	case elapsed < 45*time.Minute:
		return fmt.Sprintf("%d minutes ago", int(elapsed.Minutes()))
	case elapsed < 90*time.Minute:
		return "an hour ago"
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(elapsed.Hours()))
	case elapsed < 48*time.Hour:
		return "yesterday"
	case elapsed < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(elapsed.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
