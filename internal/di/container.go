package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/august-web/dev-quoteX/internal/payments"
	"github.com/august-web/dev-quoteX/internal/platform/config"
	pfirestore "github.com/august-web/dev-quoteX/internal/platform/firestore"
	"github.com/august-web/dev-quoteX/internal/platform/idempotency"
	"github.com/august-web/dev-quoteX/internal/platform/jobs"
	"github.com/august-web/dev-quoteX/internal/platform/observability"
	"github.com/august-web/dev-quoteX/internal/platform/storage"
	"github.com/august-web/dev-quoteX/internal/repositories"
	fsrepo "github.com/august-web/dev-quoteX/internal/repositories/firestore"
	"github.com/august-web/dev-quoteX/internal/repositories/memory"
	"github.com/august-web/dev-quoteX/internal/repositories/sqlstore"
	"github.com/august-web/dev-quoteX/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Catalog   services.CatalogService
	Rules     services.PricingRuleService
	Quotes    services.QuoteService
	Requests  services.RequestService
	Checkout  services.CheckoutService
	Analytics services.AnalyticsService
	Exports   services.QuoteExportService
	System    services.SystemService
	Currency  *services.CurrencyDisplay
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Idempotency  idempotency.Store
	Services     Services

	closers []func(context.Context) error
}

// Option customises NewContainer.
type Option func(*containerOptions)

type containerOptions struct {
	logger    *zap.Logger
	clock     func() time.Time
	build     services.BuildInfo
	registry  repositories.Registry
	keys      idempotency.Store
	publisher services.QuoteEventPublisher
	archive   services.QuoteArchive
	payments  map[string]payments.Provider
}

// WithLogger sets the base logger handed to services and migrations.
func WithLogger(logger *zap.Logger) Option {
	return func(o *containerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the clock shared by every service.
func WithClock(clock func() time.Time) Option {
	return func(o *containerOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithBuildInfo sets the release metadata reported by readiness checks.
func WithBuildInfo(build services.BuildInfo) Option {
	return func(o *containerOptions) {
		o.build = build
	}
}

// WithRegistry bypasses backend selection. Tests use it with the memory registry.
func WithRegistry(reg repositories.Registry, keys idempotency.Store) Option {
	return func(o *containerOptions) {
		o.registry = reg
		o.keys = keys
	}
}

// WithPublisher replaces the Pub/Sub publisher built from config.
func WithPublisher(publisher services.QuoteEventPublisher) Option {
	return func(o *containerOptions) {
		o.publisher = publisher
	}
}

// WithArchive replaces the Cloud Storage archive built from config.
func WithArchive(archive services.QuoteArchive) Option {
	return func(o *containerOptions) {
		o.archive = archive
	}
}

// WithPaymentProviders replaces the mock providers registered per payment method.
func WithPaymentProviders(providers map[string]payments.Provider) Option {
	return func(o *containerOptions) {
		o.payments = providers
	}
}

// NewContainer opens the configured backend and assembles every service. Resources opened
// before a failure are released before the error is returned.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (_ *Container, err error) {
	options := containerOptions{logger: zap.NewNop(), clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	c := &Container{Config: cfg}
	defer func() {
		if err != nil {
			_ = c.Close(context.WithoutCancel(ctx))
		}
	}()

	if options.registry != nil {
		c.Repositories = options.registry
		c.Idempotency = options.keys
	} else {
		if err := c.openStore(ctx, cfg, options); err != nil {
			return nil, err
		}
	}
	if c.Idempotency == nil {
		c.Idempotency = idempotency.NewMemoryStore()
	}

	publisher := options.publisher
	if publisher == nil && cfg.PubSub.PublishingEnabled() {
		if publisher, err = c.openPublisher(ctx, cfg.PubSub); err != nil {
			return nil, err
		}
	}

	archive := options.archive
	if archive == nil && cfg.Storage.ArchivingEnabled() {
		if archive, err = c.openArchive(ctx, cfg.Storage, options.clock); err != nil {
			return nil, err
		}
	}

	svc, err := buildServices(cfg, c.Repositories, publisher, archive, options)
	if err != nil {
		return nil, err
	}
	c.Services = svc
	return c, nil
}

// Close releases repository clients and background publishers in reverse order of creation.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	if c.Repositories != nil {
		if err := c.Repositories.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		c.Repositories = nil
	}
	return errors.Join(errs...)
}

func (c *Container) openStore(ctx context.Context, cfg config.Config, options containerOptions) error {
	switch cfg.Store.Backend {
	case config.StoreBackendMemory, "":
		reg, err := memory.NewRegistry(options.clock)
		if err != nil {
			return fmt.Errorf("memory store: %w", err)
		}
		c.Repositories = reg
		c.Idempotency = idempotency.NewMemoryStore()
	case config.StoreBackendSQLite, config.StoreBackendPostgres:
		db, err := sqlstore.Open(ctx, sqlstore.Dialect(cfg.Store.Backend), cfg.Store.DSN, sqlstore.Options{
			Logger: options.logger.Named("sqlstore"),
		})
		if err != nil {
			return fmt.Errorf("%s store: %w", cfg.Store.Backend, err)
		}
		reg, err := sqlstore.NewRegistry(db, options.clock)
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("%s store: %w", cfg.Store.Backend, err)
		}
		c.Repositories = reg
		c.Idempotency = sqlstore.NewIdempotencyStore(db)
	case config.StoreBackendFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore)
		client, err := provider.Client(ctx)
		if err != nil {
			_ = provider.Close(ctx)
			return err
		}
		reg, err := fsrepo.NewRegistry(provider, options.clock)
		if err != nil {
			_ = provider.Close(ctx)
			return fmt.Errorf("firestore store: %w", err)
		}
		c.Repositories = reg
		c.Idempotency = idempotency.NewFirestoreStore(client)
	default:
		return fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
	return nil
}

func (c *Container) openPublisher(ctx context.Context, cfg config.PubSubConfig) (services.QuoteEventPublisher, error) {
	client, err := pubsub.NewClient(ctx, strings.TrimSpace(cfg.ProjectID))
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	c.closers = append(c.closers, func(context.Context) error { return client.Close() })

	var quotes *pubsub.Topic
	if topic := strings.TrimSpace(cfg.QuotesTopic); topic != "" {
		quotes = client.Topic(topic)
	}
	publisher, err := jobs.NewPubSubQuoteEventPublisher(client.Topic(strings.TrimSpace(cfg.AnalyticsTopic)), quotes)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, func(context.Context) error {
		publisher.Stop()
		return nil
	})
	return publisher, nil
}

func (c *Container) openArchive(ctx context.Context, cfg config.StorageConfig, clock func() time.Time) (services.QuoteArchive, error) {
	signer, err := storage.NewKeySigner(cfg.SignerEmail, cfg.SignerKey)
	if err != nil {
		return nil, err
	}
	urls, err := storage.NewURLSigner(signer, storage.WithClock(clock))
	if err != nil {
		return nil, err
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	c.closers = append(c.closers, func(context.Context) error { return client.Close() })

	uploader, err := storage.NewGCSUploader(client)
	if err != nil {
		return nil, err
	}
	return storage.NewQuoteArchive(storage.QuoteArchiveDeps{
		Bucket:   cfg.ExportsBucket,
		Uploader: uploader,
		URLs:     urls,
		URLTTL:   cfg.URLTTL,
		Clock:    clock,
	})
}

func buildServices(cfg config.Config, reg repositories.Registry, publisher services.QuoteEventPublisher, archive services.QuoteArchive, options containerOptions) (Services, error) {
	var svc Services
	if reg == nil {
		return svc, errors.New("repositories registry is required")
	}
	logger := observability.ServiceLogger(options.logger)

	var defaults *services.Catalog
	if path := strings.TrimSpace(cfg.Pricing.CatalogFile); path != "" {
		catalog, err := services.LoadCatalogFile(path)
		if err != nil {
			return svc, fmt.Errorf("load catalog %s: %w", path, err)
		}
		defaults = &catalog
	}

	var err error
	if svc.Catalog, err = services.NewCatalogService(services.CatalogServiceDeps{
		Overrides: reg.CatalogOverrides(),
		Defaults:  defaults,
		Logger:    logger,
	}); err != nil {
		return svc, err
	}
	if svc.Rules, err = services.NewPricingRuleService(services.PricingRuleServiceDeps{
		Rules:  reg.PricingRules(),
		Logger: logger,
	}); err != nil {
		return svc, err
	}

	metrics, err := observability.NewQuoteMetrics(nil)
	if err != nil {
		return svc, fmt.Errorf("quote metrics: %w", err)
	}
	if svc.Quotes, err = services.NewQuoteService(services.QuoteServiceDeps{
		Catalog: svc.Catalog,
		Rules:   svc.Rules,
		Metrics: metrics,
		Logger:  logger,
	}); err != nil {
		return svc, err
	}

	if svc.Currency, err = services.NewCurrencyDisplay(cfg.Pricing.CurrencyRates); err != nil {
		return svc, err
	}

	if svc.Requests, err = services.NewRequestService(services.RequestServiceDeps{
		Requests:  reg.Requests(),
		Quotes:    svc.Quotes,
		Catalog:   svc.Catalog,
		Publisher: publisher,
		Clock:     options.clock,
		Logger:    logger,
	}); err != nil {
		return svc, err
	}

	providers := options.payments
	if len(providers) == 0 {
		providers = map[string]payments.Provider{
			"card":   &payments.MockProvider{Name: "mock-card", Now: options.clock},
			"paypal": &payments.MockProvider{Name: "mock-paypal", Now: options.clock},
			"bank":   &payments.MockProvider{Name: "mock-bank", Now: options.clock},
		}
	}
	manager, err := payments.NewManager(providers, payments.WithDefaultMethod("card"))
	if err != nil {
		return svc, err
	}
	if svc.Checkout, err = services.NewCheckoutService(services.CheckoutServiceDeps{
		Requests: svc.Requests,
		Payments: manager,
		Currency: svc.Currency,
		Clock:    options.clock,
		Logger:   logger,
	}); err != nil {
		return svc, err
	}

	if svc.Analytics, err = services.NewAnalyticsService(services.AnalyticsServiceDeps{
		Events:    reg.AnalyticsEvents(),
		Publisher: publisher,
		Clock:     options.clock,
		Logger:    logger,
	}); err != nil {
		return svc, err
	}

	if svc.Exports, err = services.NewQuoteExportService(services.QuoteExportServiceDeps{
		Archive: archive,
		Clock:   options.clock,
		Logger:  logger,
	}); err != nil {
		return svc, err
	}

	if svc.System, err = services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: reg.Health(),
		Catalog:          svc.Catalog,
		Rules:            svc.Rules,
		Clock:            options.clock,
		Build:            options.build,
	}); err != nil {
		return svc, err
	}
	return svc, nil
}
