package fault

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNetwork, KindOf(New(KindNetwork, "dial failed")))
	assert.Equal(t, KindCancelled, KindOf(context.Canceled))
	assert.Equal(t, KindTimeout, KindOf(context.DeadlineExceeded))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindOfWrapped(t *testing.T) {
	inner := New(KindSchema, "bad tool block")
	outer := fmt.Errorf("provider stream: %w", inner)
	assert.True(t, IsKind(outer, KindSchema))

	wrapped := Wrap(KindCancelled, "confirmation aborted", context.Canceled)
	assert.True(t, IsCancelled(wrapped))
	require.ErrorIs(t, wrapped, context.Canceled)
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{errors.New("HTTP 429 Too Many Requests"), "Rate limited by the provider. Try again shortly."},
		{errors.New("Unauthorized: invalid api key"), "Invalid credentials. Check the configured API key."},
		{errors.New("insufficient_quota for this billing period"), "Provider quota exhausted."},
		{errors.New("dial tcp 127.0.0.1:7420: connection refused"), "Network error reaching the provider."},
		{errors.New("something odd happened"), "something odd happened"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, UserMessage(tc.err))
	}
	assert.Empty(t, UserMessage(nil))
}
