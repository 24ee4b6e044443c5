package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", errors.New("request timeout"), true},
		{"etimedout", errors.New("dial tcp: ETIMEDOUT"), true},
		{"econnreset", errors.New("read: ECONNRESET"), true},
		{"network", errors.New("network is unreachable"), true},
		{"fetch failed", errors.New("fetch failed"), true},
		{"http 500", errors.New("server returned 500"), true},
		{"http 502", errors.New("bad gateway 502"), true},
		{"http 503", errors.New("status 503"), true},
		{"http 504", errors.New("status 504"), true},
		{"http 401", errors.New("unauthorized: 401"), false},
		{"http 403", errors.New("forbidden: 403"), false},
		{"validation", errors.New("validation failed for field"), false},
		{"auth", errors.New("auth token expired"), false},
		{"ambiguous", errors.New("something odd happened"), false},
		// A permanent token wins even when a transient one is present.
		{"mixed", errors.New("auth service timeout"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("403 forbidden")
	err := Do(context.Background(), Config{MaxAttempts: 5}, func(ctx context.Context) error {
		calls++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientUpToMaxAttempts(t *testing.T) {
	calls := 0
	transient := errors.New("connection timeout")
	err := Do(context.Background(), Config{MaxAttempts: 3}, func(ctx context.Context) error {
		calls++
		return transient
	})
	require.ErrorIs(t, err, transient)
	assert.Equal(t, 3, calls)
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{MaxAttempts: 3}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("status 503")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoDefaultsToSingleAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{}, func(ctx context.Context) error {
		calls++
		return errors.New("timeout")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Config{MaxAttempts: 5, Backoff: []time.Duration{time.Hour}}, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("timeout")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoffClampsToLastElement(t *testing.T) {
	seq := []time.Duration{time.Second, 3 * time.Second}
	assert.Equal(t, time.Second, backoffFor(seq, 0))
	assert.Equal(t, 3*time.Second, backoffFor(seq, 1))
	assert.Equal(t, 3*time.Second, backoffFor(seq, 7))
	assert.Equal(t, time.Duration(0), backoffFor(nil, 0))
}
