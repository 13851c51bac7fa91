package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/KostevSerg/flo-rustic-shop/internal/api"
	"github.com/KostevSerg/flo-rustic-shop/internal/catalog"
	"github.com/KostevSerg/flo-rustic-shop/internal/config"
	"github.com/KostevSerg/flo-rustic-shop/internal/email"
	"github.com/KostevSerg/flo-rustic-shop/internal/gateway"
	"github.com/KostevSerg/flo-rustic-shop/internal/httpapi"
	"github.com/KostevSerg/flo-rustic-shop/internal/messaging"
	"github.com/KostevSerg/flo-rustic-shop/internal/notify"
	"github.com/KostevSerg/flo-rustic-shop/internal/orders"
	"github.com/KostevSerg/flo-rustic-shop/internal/payments"
	"github.com/KostevSerg/flo-rustic-shop/internal/promo"
	"github.com/KostevSerg/flo-rustic-shop/internal/telemetry"
)

const serviceName = "shop-api"

type notifier interface {
	orders.Notifier
	Wait()
}

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(*envFile)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Info("configuration loaded", "config", cfg.String())

	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	if cfg.Telemetry.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.Telemetry.ServiceVersion, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			logger.Error("failed to init tracer provider", "error", err)
			os.Exit(1)
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.Telemetry.ServiceVersion)
	if err != nil {
		logger.Error("failed to init meter provider", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	db, err := telemetry.OpenDB("postgres", cfg.Database.URL, telemetry.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	dbx := sqlx.NewDb(db, "postgres")

	var notifications notifier
	switch cfg.Notify.Mode {
	case config.NotifyModeKafka:
		publisher := messaging.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic)
		defer func() { _ = publisher.Close() }()
		notifications = notify.NewQueueNotifier(publisher, cfg.Notify.Timeout, logger)
	default:
		if !cfg.SMTP.Configured() {
			logger.Warn("smtp is not configured, order notifications will be skipped")
		}
		notifications = notify.NewMailNotifier(email.NewSMTPSender(cfg.SMTP, logger), cfg.Notify.Timeout, logger)
	}

	var paymentGateway payments.Gateway
	if cfg.Payments.Configured() {
		paymentGateway = gateway.NewClient(cfg.Payments.APIURL, cfg.Payments.ShopID, cfg.Payments.SecretKey, &http.Client{
			Timeout:   cfg.Payments.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		})
	} else {
		logger.Warn("payment gateway credentials are not configured, online payments are disabled")
	}
	if cfg.Payments.WebhookSecret == "" {
		logger.Warn("webhook secret is not configured, all payment webhooks will be rejected")
	}

	validate := httpapi.NewValidator()

	promoService := promo.NewService(promo.NewPromoRepository(dbx, cfg.Database.QueryTimeout), logger)
	orderRepo := orders.NewOrderRepository(db, cfg.Database.QueryTimeout)
	orderService := orders.NewService(orderRepo, promoService, notifications, cfg.Orders.MaxNumberAttempts, logger)
	coordinator := payments.NewCoordinator(orderRepo, paymentGateway, notifications, payments.Config{
		ReturnURL:            cfg.Payments.ReturnURL,
		ReceiptFallbackEmail: cfg.Payments.ReceiptFallbackEmail,
	}, logger)

	router := api.NewRouter(api.Routes{
		Orders:   orders.NewHandler(orderService, validate, logger),
		Payments: payments.NewHandler(coordinator, cfg.Payments.WebhookSecret, validate, logger),
		Promo:    promo.NewHandler(promoService, validate, logger),
		Catalog:  catalog.NewHandler(catalog.NewCatalogRepository(dbx, cfg.Database.QueryTimeout), logger),
		Metrics:  metricsHandler,
		DB:       db,
	}, logger)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info("starting shop api", "port", cfg.HTTP.Port, "notify_mode", cfg.Notify.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	drained := make(chan struct{})
	go func() {
		notifications.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(cfg.Notify.Timeout):
		logger.Warn("gave up waiting for in-flight notifications")
	}
}
