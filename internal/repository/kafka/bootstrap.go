package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type AuditConfig struct {
	Brokers []string
	Topic   string
	Timeout time.Duration
}

// BootstrapAuditSink makes sure the audit topic exists and returns a sink
// writing to it. A missing topic is logged, not fatal: the writer may still
// auto-create it.
func BootstrapAuditSink(ctx context.Context, cfg AuditConfig, logger *zap.Logger) *AuditSink {
	err := EnsureTopic(ctx, cfg.Brokers, TopicSpec{
		Name:              cfg.Topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
		MaxWait:           5 * time.Second,
	}, logger)
	if err != nil && logger != nil {
		logger.Warn("audit topic not confirmed", zap.String("topic", cfg.Topic), zap.Error(err))
	}

	return NewAuditSink(NewProducer(cfg.Brokers, cfg.Topic, logger), cfg.Timeout)
}
