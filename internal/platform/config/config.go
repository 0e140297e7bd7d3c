package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultStoreBackend    = StoreBackendMemory
	defaultSignedURLTTL    = 15 * time.Minute
	defaultIdempotencyKey  = "Idempotency-Key"
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultSRSUploadLimit  = 5 << 20
	defaultEnvironment     = "local"
	defaultAnalyticsTopic  = "quote-analytics"
	defaultQuoteEventTopic = "quote-events"
)

// Store backends accepted by API_STORE_BACKEND.
const (
	StoreBackendMemory    = "memory"
	StoreBackendSQLite    = "sqlite"
	StoreBackendPostgres  = "postgres"
	StoreBackendFirestore = "firestore"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server      ServerConfig
	Build       BuildConfig
	Store       StoreConfig
	Firestore   FirestoreConfig
	Storage     StorageConfig
	PubSub      PubSubConfig
	Secrets     SecretsConfig
	Idempotency IdempotencyConfig
	Pricing     PricingConfig
	SRS         SRSConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// BuildConfig carries release metadata reported by health endpoints.
type BuildConfig struct {
	Version     string
	CommitSHA   string
	Environment string
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string
	DSN     string
}

// FirestoreConfig stores database parameters for the firestore backend.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// StorageConfig configures quote PDF archiving. Archiving is disabled when ExportsBucket is empty.
type StorageConfig struct {
	ExportsBucket string
	SignerEmail   string
	SignerKey     string
	URLTTL        time.Duration
}

// PubSubConfig configures event publishing. Publishing is disabled when ProjectID is empty.
type PubSubConfig struct {
	ProjectID      string
	AnalyticsTopic string
	QuotesTopic    string
}

// SecretsConfig configures Secret Manager lookups for secret:// references.
type SecretsConfig struct {
	ProjectID string
}

// IdempotencyConfig controls idempotency middleware behaviour.
type IdempotencyConfig struct {
	Header string
	TTL    time.Duration
}

// PricingConfig points at an optional catalog file and the display currency table.
type PricingConfig struct {
	CatalogFile   string
	CurrencyRates map[string]float64
}

// SRSConfig bounds document uploads accepted by the SRS analyzer.
type SRSConfig struct {
	MaxUploadBytes int64
}

// ArchivingEnabled reports whether exported quotes should be stored.
func (c StorageConfig) ArchivingEnabled() bool {
	return strings.TrimSpace(c.ExportsBucket) != ""
}

// PublishingEnabled reports whether events should be sent to Pub/Sub.
func (c PubSubConfig) PublishingEnabled() bool {
	return strings.TrimSpace(c.ProjectID) != ""
}

// ValidationError is returned when configuration fields are missing or invalid. Every problem is listed.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile               string
	envMap                map[string]string
	useSystemEnv          bool
	secret                SecretResolver
	requiredSecrets       []string
	panicOnMissingSecrets bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.LookupEnv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets the resolver used for secret:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// WithRequiredSecrets marks config fields (e.g. "Storage.SignerKey") that must resolve to a non-empty value.
func WithRequiredSecrets(names ...string) Option {
	return func(o *loaderOptions) {
		o.requiredSecrets = append(o.requiredSecrets, names...)
	}
}

// WithPanicOnMissingSecrets causes Load to panic when required secrets are missing.
func WithPanicOnMissingSecrets() Option {
	return func(o *loaderOptions) {
		o.panicOnMissingSecrets = true
	}
}

func newLoaderOptions(opts []Option) loaderOptions {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
			return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
		}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return options
}

// Load assembles the application configuration by combining defaults, .env overrides,
// environment variables, and optional secret manager lookups.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := newLoaderOptions(opts)

	env, err := newEnvReader(options)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         env.str("API_SERVER_PORT", defaultPort),
			ReadTimeout:  env.duration("API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: env.duration("API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  env.duration("API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Build: BuildConfig{
			Version:     env.str("API_BUILD_VERSION", "dev"),
			CommitSHA:   env.str("API_BUILD_COMMIT", ""),
			Environment: strings.ToLower(env.str("API_ENVIRONMENT", defaultEnvironment)),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(env.str("API_STORE_BACKEND", defaultStoreBackend)),
			DSN:     env.str("API_STORE_DSN", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:    env.str("API_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: env.str("FIRESTORE_EMULATOR_HOST", ""),
		},
		Storage: StorageConfig{
			ExportsBucket: env.str("API_STORAGE_EXPORTS_BUCKET", ""),
			SignerEmail:   env.str("API_STORAGE_SIGNER_EMAIL", ""),
			SignerKey:     env.str("API_STORAGE_SIGNER_KEY", ""),
			URLTTL:        env.duration("API_STORAGE_URL_TTL", defaultSignedURLTTL),
		},
		PubSub: PubSubConfig{
			ProjectID:      env.str("API_PUBSUB_PROJECT_ID", ""),
			AnalyticsTopic: env.str("API_PUBSUB_ANALYTICS_TOPIC", defaultAnalyticsTopic),
			QuotesTopic:    env.str("API_PUBSUB_QUOTES_TOPIC", defaultQuoteEventTopic),
		},
		Secrets: SecretsConfig{
			ProjectID: env.str("API_SECRET_PROJECT_ID", ""),
		},
		Idempotency: IdempotencyConfig{
			Header: env.str("API_IDEMPOTENCY_HEADER", defaultIdempotencyKey),
			TTL:    env.duration("API_IDEMPOTENCY_TTL", defaultIdempotencyTTL),
		},
		Pricing: PricingConfig{
			CatalogFile: env.str("API_PRICING_CATALOG_FILE", ""),
		},
		SRS: SRSConfig{
			MaxUploadBytes: env.int64("API_SRS_MAX_UPLOAD_BYTES", defaultSRSUploadLimit),
		},
	}

	var invalid []string
	rates, badRates := parseRates(env.raw("API_CURRENCY_RATES"))
	cfg.Pricing.CurrencyRates = rates
	invalid = append(invalid, badRates...)

	if cfg.Firestore.ProjectID == "" && cfg.PubSub.ProjectID != "" {
		cfg.Firestore.ProjectID = cfg.PubSub.ProjectID
	}
	if cfg.Secrets.ProjectID == "" {
		cfg.Secrets.ProjectID = cfg.Firestore.ProjectID
	}

	resolved := make(map[string]string)
	secretFields := []struct {
		name  string
		field *string
	}{
		{"Store.DSN", &cfg.Store.DSN},
		{"Storage.SignerKey", &cfg.Storage.SignerKey},
	}
	for _, target := range secretFields {
		value, err := resolveSecret(ctx, *target.field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*target.field = value
		resolved[target.name] = strings.TrimSpace(value)
	}

	if err := validateConfig(cfg, invalid); err != nil {
		return Config{}, err
	}

	if missing := findMissingSecrets(options.requiredSecrets, resolved); missing != nil {
		if options.panicOnMissingSecrets {
			fmt.Fprintf(os.Stderr, "config: %s\n", missing.Error())
			panic(missing)
		}
		return Config{}, missing
	}

	return cfg, nil
}

func validateConfig(cfg Config, invalid []string) error {
	fields := append([]string(nil), invalid...)

	if strings.TrimSpace(cfg.Server.Port) == "" {
		fields = append(fields, "Server.Port")
	}
	switch cfg.Store.Backend {
	case StoreBackendMemory:
	case StoreBackendSQLite, StoreBackendPostgres:
		if strings.TrimSpace(cfg.Store.DSN) == "" {
			fields = append(fields, "Store.DSN")
		}
	case StoreBackendFirestore:
		if strings.TrimSpace(cfg.Firestore.ProjectID) == "" {
			fields = append(fields, "Firestore.ProjectID")
		}
	default:
		fields = append(fields, "Store.Backend")
	}
	if cfg.Storage.ArchivingEnabled() && cfg.Storage.URLTTL <= 0 {
		fields = append(fields, "Storage.URLTTL")
	}
	if cfg.PubSub.PublishingEnabled() {
		if strings.TrimSpace(cfg.PubSub.AnalyticsTopic) == "" {
			fields = append(fields, "PubSub.AnalyticsTopic")
		}
		if strings.TrimSpace(cfg.PubSub.QuotesTopic) == "" {
			fields = append(fields, "PubSub.QuotesTopic")
		}
	}
	if strings.TrimSpace(cfg.Idempotency.Header) == "" {
		fields = append(fields, "Idempotency.Header")
	}
	if cfg.Idempotency.TTL <= 0 {
		fields = append(fields, "Idempotency.TTL")
	}
	if cfg.SRS.MaxUploadBytes <= 0 {
		fields = append(fields, "SRS.MaxUploadBytes")
	}

	if len(fields) > 0 {
		sort.Strings(fields)
		return &ValidationError{fields: fields}
	}
	return nil
}
