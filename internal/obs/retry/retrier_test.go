package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type zeroBackoff struct{}

func (zeroBackoff) Next(int) time.Duration { return 0 }

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, Policy{Name: "test_ok", Attempts: 5, Backoff: zeroBackoff{}})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	exhausted := false
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	}, Policy{
		Name:      "test_fatal",
		Attempts:  5,
		Backoff:   zeroBackoff{},
		Retryable: func(err error) bool { return !errors.Is(err, fatal) },
		OnExhaust: func(error) { exhausted = true },
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
	assert.True(t, exhausted)
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := []int{}
	err := Do(context.Background(), func(context.Context) error {
		return errors.New("down")
	}, Policy{
		Name:      "test_exhaust",
		Attempts:  3,
		Backoff:   zeroBackoff{},
		OnAttempt: func(i int, _ error) { attempts = append(attempts, i) },
	})

	assert.EqualError(t, err, "down")
	assert.Equal(t, []int{0, 1, 2}, attempts)
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	}, Policy{Name: "test_ctx", Attempts: 5, Backoff: ExpoJitter{Base: time.Hour}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestExpoJitterCap(t *testing.T) {
	b := ExpoJitter{Base: time.Second, Max: 4 * time.Second}
	assert.Equal(t, time.Second, b.Next(0))
	assert.Equal(t, 2*time.Second, b.Next(1))
	assert.Equal(t, 4*time.Second, b.Next(5))
}

func TestDBRetryable(t *testing.T) {
	assert.False(t, dbRetryable(nil))
	assert.False(t, dbRetryable(context.Canceled))
	assert.True(t, dbRetryable(errors.New("connection refused")))
	assert.False(t, dbRetryable(fmt.Errorf("connect: %w", &pgconn.PgError{Code: "28P01"})))
	assert.False(t, dbRetryable(&pgconn.PgError{Code: "3D000"}))
	assert.True(t, dbRetryable(&pgconn.PgError{Code: "57P03"}))
}
