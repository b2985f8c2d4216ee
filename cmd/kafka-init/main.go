package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	config "github.com/NordCoder/authgate/internal/config/auth-api"
	"github.com/NordCoder/authgate/internal/obs"
	"github.com/NordCoder/authgate/internal/repository/kafka"
)

// kafka-init provisions the audit topic before auth-api starts, so the
// service never relies on broker-side auto creation.
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the auth-api YAML config")
	partitions := flag.Int("partitions", 3, "partitions for the audit topic")
	rf := flag.Int("rf", 1, "replication factor")
	wait := flag.Duration("wait", 30*time.Second, "how long to wait for partition leaders")
	flag.Parse()

	logger, err := obs.NewLogger(obs.LogConfig{Level: "info", App: "kafka-init"})
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	kc, ok := cfg.Audit.AsKafkaConfig()
	if !ok {
		logger.Info("kafka audit disabled, nothing to do")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *wait+10*time.Second)
	defer cancel()

	err = kafka.EnsureTopic(ctx, kc.Brokers, kafka.TopicSpec{
		Name:              kc.Topic,
		NumPartitions:     *partitions,
		ReplicationFactor: *rf,
		MaxWait:           *wait,
	}, logger)
	if err != nil {
		logger.Fatal("ensure audit topic", zap.String("topic", kc.Topic), zap.Error(err))
	}
	logger.Info("kafka-init ok", zap.String("topic", kc.Topic))
}
