package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint  string
	Observability ObservabilityConfig

	DBType            string
	DBURL             string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Supabase SupabaseConfig
	Identity IdentityConfig

	RedisAddr     string
	RedisPassword string
	RateLimit     RateLimitConfig

	MigrationsEnabled bool
	Bootstrap         BootstrapConfig

	RollbackMaxAttempts int
}

// SupabaseConfig holds the managed backend endpoint and keys. ServiceRoleKey is
// server-only and must never reach a browser.
type SupabaseConfig struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
}

type IdentityConfig struct {
	Provider  string
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
}

type ObservabilityConfig struct {
	LogLevel          string
	LogFormat         string
	OtelEnabled       bool
	OtelProtocol      string
	OtelSamplingRatio float64
}

// RateLimitConfig bounds provisioning attempts per client IP. Rate is
// tokens per second.
type RateLimitConfig struct {
	ProvisionRate  float64
	ProvisionBurst int
}

type BootstrapConfig struct {
	SampleData    bool
	AdminEmail    string
	AdminPassword string
	AdminBpoName  string
}

const (
	IdentityProviderSupabase = "supabase"
	IdentityProviderLocal    = "local"
)

var (
	ErrSupabaseConfig = errors.New("supabase identity provider requires SUPABASE_URL, SUPABASE_ANON_KEY and SUPABASE_SERVICE_ROLE_KEY")
	ErrJWTSecret      = errors.New("local identity provider requires AUTH_JWT_SECRET outside development")
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	supabase := SupabaseConfig{
		URL:            strings.TrimRight(strings.TrimSpace(getenv("SUPABASE_URL", "")), "/"),
		AnonKey:        strings.TrimSpace(getenv("SUPABASE_ANON_KEY", "")),
		ServiceRoleKey: strings.TrimSpace(getenv("SUPABASE_SERVICE_ROLE_KEY", "")),
	}

	defaultProvider := IdentityProviderLocal
	if supabase.ServiceRoleKey != "" {
		defaultProvider = IdentityProviderSupabase
	}

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "bpo-directory"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  environment,
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317")),

		Observability: ObservabilityConfig{
			LogLevel:          strings.ToLower(getenv("LOG_LEVEL", "info")),
			LogFormat:         strings.ToLower(getenv("LOG_FORMAT", "json")),
			OtelEnabled:       getenvBool("OTEL_ENABLED", true),
			OtelProtocol:      strings.ToLower(getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			OtelSamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBURL:             strings.TrimSpace(getenv("DATABASE_URL", "")),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "postgres"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 900),

		Supabase: supabase,
		Identity: IdentityConfig{
			Provider:  normalizeProvider(getenv("IDENTITY_PROVIDER", defaultProvider)),
			JWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
			JWTIssuer: getenv("AUTH_JWT_ISSUER", "bpo-directory"),
			TokenTTL:  getenvDuration("AUTH_TOKEN_TTL", time.Hour),
		},

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RateLimit: RateLimitConfig{
			ProvisionRate:  getenvFloat("RATE_LIMIT_PROVISION_RATE", 0.2),
			ProvisionBurst: getenvInt("RATE_LIMIT_PROVISION_BURST", 5),
		},

		MigrationsEnabled: getenvBool("MIGRATIONS_ENABLED", supabase.ServiceRoleKey == ""),
		Bootstrap: BootstrapConfig{
			SampleData:    getenvBool("BOOTSTRAP_SAMPLE_DATA", false),
			AdminEmail:    strings.TrimSpace(getenv("BOOTSTRAP_ADMIN_EMAIL", "")),
			AdminPassword: getenv("BOOTSTRAP_ADMIN_PASSWORD", ""),
			AdminBpoName:  getenv("BOOTSTRAP_ADMIN_BPO", "Accenture"),
		},

		RollbackMaxAttempts: getenvInt("ROLLBACK_MAX_ATTEMPTS", 3),
	}

	return cfg
}

// Validate checks that the selected identity provider has what it needs.
func (c Config) Validate() error {
	switch c.Identity.Provider {
	case IdentityProviderSupabase:
		if c.Supabase.URL == "" || c.Supabase.AnonKey == "" || c.Supabase.ServiceRoleKey == "" {
			return ErrSupabaseConfig
		}
	case IdentityProviderLocal:
		if c.Identity.JWTSecret == "" && !c.IsDevelopment() {
			return ErrJWTSecret
		}
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func (c Config) IsLocalIdentity() bool {
	return c.Identity.Provider == IdentityProviderLocal
}

// PublicRuntimeConfig is the subset of configuration browsers may see.
type PublicRuntimeConfig struct {
	SupabaseURL     string `json:"supabaseUrl"`
	SupabaseAnonKey string `json:"supabaseAnonKey"`
	IdentityMode    string `json:"identityMode"`
}

func (c Config) Public() PublicRuntimeConfig {
	return PublicRuntimeConfig{
		SupabaseURL:     c.Supabase.URL,
		SupabaseAnonKey: c.Supabase.AnonKey,
		IdentityMode:    c.Identity.Provider,
	}
}

func normalizeProvider(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case IdentityProviderSupabase:
		return IdentityProviderSupabase
	default:
		return IdentityProviderLocal
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
