package fault

import "strings"

// signature matches a known provider error fingerprint to a short
// categorized message shown to the user.
type signature struct {
	markers []string
	message string
}

var signatures = []signature{
	{markers: []string{"rate limit", "429", "too many requests"}, message: "Rate limited by the provider. Try again shortly."},
	{markers: []string{"invalid api key", "invalid credential", "unauthorized", "401"}, message: "Invalid credentials. Check the configured API key."},
	{markers: []string{"quota", "billing", "insufficient_quota"}, message: "Provider quota exhausted."},
	{markers: []string{"connection refused", "no such host", "network", "dial tcp", "dial unix", "broken pipe", "i/o timeout"}, message: "Network error reaching the provider."},
}

// UserMessage derives a short categorized message from a terminal error.
// Unmatched errors fall back to the raw message text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	raw := err.Error()
	lower := strings.ToLower(raw)
	for _, sig := range signatures {
		for _, marker := range sig.markers {
			if strings.Contains(lower, marker) {
				return sig.message
			}
		}
	}
	return raw
}
