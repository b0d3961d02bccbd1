// Command server runs the wallet payment backend: the POS-facing HTTP API,
// the metrics/health endpoint, and the three gateway integrations.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/uzpos/payment-service/internal/adapters/clickpass"
	"github.com/uzpos/payment-service/internal/adapters/fastpay"
	"github.com/uzpos/payment-service/internal/adapters/gateway"
	"github.com/uzpos/payment-service/internal/adapters/paymeqr"
	"github.com/uzpos/payment-service/internal/adapters/postgres"
	"github.com/uzpos/payment-service/internal/adapters/secrets"
	"github.com/uzpos/payment-service/internal/config"
	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
	paymenthttp "github.com/uzpos/payment-service/internal/handlers/payment"
	"github.com/uzpos/payment-service/internal/logging"
	"github.com/uzpos/payment-service/internal/services/gatewayconfig"
	paymentsvc "github.com/uzpos/payment-service/internal/services/payment"
	"github.com/uzpos/payment-service/pkg/observability"
	"github.com/uzpos/payment-service/pkg/resilience"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConfig := postgres.DefaultConfig(cfg.Database.ConnectionString())
	dbConfig.MaxConns = cfg.Database.MaxConns
	dbConfig.MinConns = cfg.Database.MinConns

	db, err := postgres.NewAdapter(ctx, dbConfig, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	secretManager, err := buildSecretManager(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("secret manager: %w", err)
	}

	auditLog := postgres.NewAuditRepository(db)
	configStore := gatewayconfig.NewService(db, postgres.NewConfigRepository(),
		secretManager, auditLog, logger, cfg.Gateways.ConfigCacheTTL)

	txRepo := postgres.NewTransactionRepository()
	orderIDs := paymentsvc.NewOrderIDGenerator(db, txRepo, func() int64 {
		return time.Now().UnixNano()
	})
	retry := resilience.RetryPolicy{
		MaxAttempts: cfg.Gateways.MaxAttempts,
		Backoff:     resilience.GatewayBackoff(),
	}

	serviceLogger := logging.NewZapLogger(logger)
	payments := paymentsvc.NewService(db, txRepo,
		postgres.NewReversalRepository(), postgres.NewFiscalizationRepository(),
		auditLog, orderIDs, retry, serviceLogger)

	registerGateways(payments, configStore, cfg, logger)

	handler := paymenthttp.NewHandler(payments, configStore, serviceLogger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Mount("/api/v1", handler.Routes())

	healthChecker := observability.NewHealthChecker(db.Pool())
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			zap.String("addr", srv.Addr),
			zap.Int("metrics_port", cfg.Server.MetricsPort),
			zap.String("gateway_environment", cfg.Gateways.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}
	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		logger.Error("metrics server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

// registerGateways wires the three integrations, each with its own transport
// and circuit breaker.
func registerGateways(payments *paymentsvc.Service, creds domain.CredentialGetter, cfg *config.Config, logger *zap.Logger) {
	env := cfg.Gateways.Environment

	callerCfg := gateway.DefaultCallerConfig()
	callerCfg.Timeout = cfg.Gateways.CallTimeout

	payments.RegisterGateway(
		fastpay.NewAdapter(fastpay.DefaultConfig(env), creds, logger),
		gateway.NewCaller(domain.GatewayFastPay, callerCfg, logger))
	payments.RegisterGateway(
		clickpass.NewAdapter(clickpass.DefaultConfig(env), creds, logger),
		gateway.NewCaller(domain.GatewayClickPass, callerCfg, logger))
	payments.RegisterGateway(
		paymeqr.NewAdapter(paymeqr.DefaultConfig(env), creds, logger),
		gateway.NewCaller(domain.GatewayPaymeQR, callerCfg, logger))
}

func buildSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SecretManager, error) {
	switch cfg.Secrets.Backend {
	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.Secrets.VaultAddress)
		vaultCfg.AuthMethod = cfg.Secrets.VaultAuthMethod
		vaultCfg.Token = cfg.Secrets.VaultToken
		vaultCfg.RoleID = cfg.Secrets.VaultRoleID
		vaultCfg.SecretID = cfg.Secrets.VaultSecretID
		return secrets.NewVaultManager(ctx, vaultCfg, logger)
	case "aws":
		return secrets.NewAWSManager(ctx, &secrets.AWSConfig{
			Region:  cfg.Secrets.AWSRegion,
			Profile: cfg.Secrets.AWSProfile,
		}, logger)
	default:
		return secrets.NewLocalManager(cfg.Secrets.LocalPath, logger), nil
	}
}

func buildLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	if cfg.Development {
		zc := zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(level)
		return zc.Build()
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
