package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/august-web/dev-quoteX/internal/di"
	"github.com/august-web/dev-quoteX/internal/handlers"
	"github.com/august-web/dev-quoteX/internal/platform/config"
	"github.com/august-web/dev-quoteX/internal/platform/idempotency"
	"github.com/august-web/dev-quoteX/internal/platform/observability"
	"github.com/august-web/dev-quoteX/internal/platform/secrets"
	"github.com/august-web/dev-quoteX/internal/services"
)

const (
	idempotencyPurgeInterval = 10 * time.Minute
	idempotencyPurgeBatch    = 500
	shutdownTimeout          = 10 * time.Second
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(fetcher),
		config.WithRequiredSecrets(requiredSecretNames(envValues)...),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromConfig(cfg, startedAt)

	container, err := di.NewContainer(ctx, cfg,
		di.WithLogger(logger),
		di.WithBuildInfo(buildInfo),
	)
	if err != nil {
		logger.Fatal("failed to initialise services", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("container close error", zap.Error(err))
		}
	}()
	logger.Info("services initialised",
		zap.String("backend", cfg.Store.Backend),
		zap.Bool("archiving", cfg.Storage.ArchivingEnabled()),
		zap.Bool("publishing", cfg.PubSub.PublishingEnabled()),
	)

	svc := container.Services
	idempotencyMiddleware := idempotency.Middleware(
		container.Idempotency,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(observability.ServiceLogger(logger.Named("idempotency"))),
	)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	cleanupWG.Add(1)
	go func() {
		defer cleanupWG.Done()
		purgeIdempotencyKeys(cleanupCtx, container.Idempotency, logger.Named("idempotency"))
	}()

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(svc.System),
	)
	catalogHandlers := handlers.NewCatalogHandlers(svc.Catalog, svc.Rules, svc.Currency)
	quoteHandlers := handlers.NewQuoteHandlers(svc.Quotes,
		handlers.WithQuoteExports(svc.Exports),
		handlers.WithQuoteCurrency(svc.Currency),
		handlers.WithSRSUploadLimit(cfg.SRS.MaxUploadBytes),
	)
	requestHandlers := handlers.NewRequestHandlers(svc.Requests,
		handlers.WithRequestCheckout(svc.Checkout),
		handlers.WithRequestExports(svc.Exports, svc.Catalog),
		handlers.WithRequestIdempotency(idempotencyMiddleware),
	)
	analyticsHandlers := handlers.NewAnalyticsHandlers(svc.Analytics)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(cfg.Firestore.ProjectID),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithPublicRoutes(
			catalogHandlers.Routes,
			quoteHandlers.Routes,
			requestHandlers.Routes,
			analyticsHandlers.Routes,
		),
		handlers.WithAdminRoutes(
			catalogHandlers.AdminRoutes,
			requestHandlers.AdminRoutes,
			analyticsHandlers.AdminRoutes,
		),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("version", buildInfo.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err, ok := <-serverErr:
		if ok && err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}

	cleanupCancel()
	cleanupWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func purgeIdempotencyKeys(ctx context.Context, store idempotency.Store, logger *zap.Logger) {
	ticker := time.NewTicker(idempotencyPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, time.Minute)
			removed, err := store.Purge(runCtx, time.Now().UTC(), idempotencyPurgeBatch)
			cancel()
			if err != nil {
				logger.Error("idempotency purge error", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("idempotency purge removed records", zap.Int("count", removed))
			}
		case <-ctx.Done():
			return
		}
	}
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		return strings.TrimSpace(env[key])
	}

	project := lookup("API_SECRET_PROJECT_ID")
	if project == "" {
		project = lookup("API_FIRESTORE_PROJECT_ID")
	}
	fallbackPath := lookup("API_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if project != "" {
		opts = append(opts, secrets.WithProject(project))
	}
	if pins := parseKeyValueList(lookup("API_SECRET_VERSION_PINS")); len(pins) > 0 {
		opts = append(opts, secrets.WithVersionPins(pins))
	}
	return secrets.NewFetcher(ctx, opts...)
}

// requiredSecretNames lists config fields that must resolve before start-up. The signer key is
// only needed when an exports bucket is configured, and the DSN only for SQL backends.
func requiredSecretNames(env map[string]string) []string {
	var required []string
	if strings.TrimSpace(env["API_STORAGE_EXPORTS_BUCKET"]) != "" {
		required = append(required, "Storage.SignerKey")
	}
	switch strings.ToLower(strings.TrimSpace(env["API_STORE_BACKEND"])) {
	case config.StoreBackendSQLite, config.StoreBackendPostgres:
		required = append(required, "Store.DSN")
	}
	return required
}

func buildInfoFromConfig(cfg config.Config, started time.Time) services.BuildInfo {
	commit := strings.TrimSpace(cfg.Build.CommitSHA)
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(cfg.Build.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     cfg.Build.Version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

// parseKeyValueList reads "name=version,other=3" pairs.
func parseKeyValueList(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
