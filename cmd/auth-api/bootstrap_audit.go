package main

import (
	"context"

	"github.com/NordCoder/authgate/internal/audit"
	config "github.com/NordCoder/authgate/internal/config/auth-api"
	"github.com/NordCoder/authgate/internal/repository/kafka"
	"go.uber.org/zap"
)

// initAudit fans events out to the log and, when brokers are configured, to
// Kafka. The returned func drains the buffer before closing the producer.
func initAudit(ctx context.Context, cfg *config.Config, logger *zap.Logger) (audit.Sink, func()) {
	sinks := audit.MultiSink{audit.NewLogSink(logger)}

	var kafkaSink *kafka.AuditSink
	if kc, ok := cfg.Audit.AsKafkaConfig(); ok && cfg.Audit.Enable {
		kafkaSink = kafka.BootstrapAuditSink(ctx, kc, logger)
		sinks = append(sinks, kafkaSink)
		logger.Info("audit to kafka", zap.Strings("brokers", kc.Brokers), zap.String("topic", kc.Topic))
	}

	d := audit.NewDispatcher(cfg.Audit.AsDispatcherConfig(), sinks)
	closeFn := func() {
		d.Close()
		if kafkaSink != nil {
			if err := kafkaSink.Close(); err != nil {
				logger.Warn("close audit producer", zap.Error(err))
			}
		}
	}
	if d == nil {
		return audit.NoOpSink{}, closeFn
	}
	return d, closeFn
}
