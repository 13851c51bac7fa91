package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/KostevSerg/flo-rustic-shop/internal/config"
	"github.com/KostevSerg/flo-rustic-shop/internal/email"
	"github.com/KostevSerg/flo-rustic-shop/internal/messaging"
	"github.com/KostevSerg/flo-rustic-shop/internal/telemetry"
	"github.com/KostevSerg/flo-rustic-shop/internal/worker"
)

const serviceName = "notification-worker"

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadWorker(*envFile)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Telemetry.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.Telemetry.ServiceVersion, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			logger.Error("failed to init tracer provider", "error", err)
			os.Exit(1)
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	if !cfg.SMTP.Configured() {
		logger.Warn("smtp is not configured, notifications will be skipped")
	}

	consumer := messaging.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic, cfg.Kafka.ConsumerGroup, logger)
	defer func() { _ = consumer.Close() }()

	handler := worker.NewNotificationHandler(email.NewSMTPSender(cfg.SMTP, logger), logger)

	logger.Info("starting notification worker", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.NotificationsTopic)

	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
