package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// TopicReadyPolicy polls partition metadata while a freshly created topic
// elects its leaders. The caller bounds the total wait with its context.
func TopicReadyPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "kafka_topic_ready",
		Attempts: 12,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 2 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Debug("topic not ready", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Warn("topic readiness retries exhausted", zap.Error(err))
			}
		},
	}
}
