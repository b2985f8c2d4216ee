package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/NordCoder/authgate/internal/audit"
)

const eventTypeHeader = "event-type"

// AuditSink publishes audit events keyed by user id, so one user's events
// stay ordered within a partition.
type AuditSink struct {
	p       *Producer
	timeout time.Duration
}

func NewAuditSink(p *Producer, timeout time.Duration) *AuditSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AuditSink{p: p, timeout: timeout}
}

func (s *AuditSink) Emit(ctx context.Context, e audit.Event) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var key []byte
	if e.UserID > 0 {
		key = KeyFromInt64(e.UserID)
	}
	// failures are logged by the producer; audit is best effort
	_ = s.p.PublishJSON(ctx, key, e, kafka.Header{Key: eventTypeHeader, Value: []byte(e.Type)})
}

func (s *AuditSink) Close() error { return s.p.Close() }
