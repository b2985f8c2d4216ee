package retry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DefaultDBPolicy covers connecting to Postgres at startup, when the database
// container may still be coming up. Bad credentials and a missing database
// will not fix themselves and fail fast.
func DefaultDBPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:      "db_connect",
		Attempts:  8,
		Backoff:   ExpoJitter{Base: 250 * time.Millisecond, Max: 10 * time.Second, Jitter: 0.2},
		Retryable: dbRetryable,
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("db connect retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("db connect retries exhausted", zap.Error(err))
			}
		},
	}
}

func dbRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 28xxx: invalid authorization, 3D000: unknown database
		return !strings.HasPrefix(pgErr.Code, "28") && pgErr.Code != "3D000"
	}
	return true
}
