package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRefresher_InvalidSchedule(t *testing.T) {
	r, err := NewRefresher("not a schedule", func(context.Context) error { return nil }, nil)
	assert.Error(t, err)
	assert.Nil(t, r)
}

// TestRefresher_RunOnce verifies that RunOnce calls the refresh func and logs
// failures at WARN.
func TestRefresher_RunOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var calls atomic.Int32
	fail := false
	r, err := NewRefresher("@every 1h", func(ctx context.Context) error {
		calls.Add(1)
		if fail {
			return errors.New("feed unreachable")
		}
		return nil
	}, zap.New(core))
	require.NoError(t, err)
	defer r.Stop()

	r.RunOnce()
	fail = true
	r.RunOnce()

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, logs.FilterMessage("scheduled refresh complete").Len())
	assert.Equal(t, 1, logs.FilterMessage("scheduled refresh failed").Len())
}

// TestRefresher_StopCancelsContext verifies that Stop cancels the context
// handed to the refresh func.
func TestRefresher_StopCancelsContext(t *testing.T) {
	var seen context.Context
	r, err := NewRefresher("@every 1h", func(ctx context.Context) error {
		seen = ctx
		return nil
	}, nil)
	require.NoError(t, err)
	r.Start()
	r.RunOnce()
	r.Stop()

	require.NotNil(t, seen)
	assert.Error(t, seen.Err())
}
