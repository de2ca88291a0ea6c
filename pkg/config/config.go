package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "gallery"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App      AppConfig
	CORS     CORSConfig
	CartData CartDataConfig
	Redis    RedisConfig
	Stripe   StripeConfig
	Email    EmailConfig
	Checkout CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if strings.TrimSpace(cfg.Stripe.SecretKey) == "" {
		return nil, fmt.Errorf("GALLERY_STRIPE_SECRET_KEY environment variable is required")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GALLERY_APP_ENV" default:"development"`
	Port         string `envconfig:"GALLERY_APP_PORT" default:"4242"`
	LogLevel     string `envconfig:"GALLERY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GALLERY_LOG_WARN_STACK" default:"false"`
	StaticDir    string `envconfig:"GALLERY_STATIC_DIR" default:"dist"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"GALLERY_CORS_ORIGINS" default:"http://localhost:5173"`
}

// CartDataConfig selects where cart/stock snapshots are persisted.
type CartDataConfig struct {
	Backend string `envconfig:"GALLERY_CART_STORE" default:"file"`
	Dir     string `envconfig:"GALLERY_CART_DATA_DIR" default:"data"`
}

func (c CartDataConfig) UseRedis() bool {
	return strings.EqualFold(strings.TrimSpace(c.Backend), "redis")
}

type RedisConfig struct {
	URL     string `envconfig:"GALLERY_REDIS_URL"`
	Address string `envconfig:"GALLERY_REDIS_ADDR"`

	Password string `envconfig:"GALLERY_REDIS_PASSWORD"`
	DB       int    `envconfig:"GALLERY_REDIS_DB" default:"0"`
}

type StripeConfig struct {
	SecretKey string `envconfig:"GALLERY_STRIPE_SECRET_KEY"`
	Env       string `envconfig:"GALLERY_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type EmailConfig struct {
	SendgridAPIKey string `envconfig:"GALLERY_SENDGRID_API_KEY"`
	FromAddress    string `envconfig:"GALLERY_EMAIL_FROM"`
	AdminAddress   string `envconfig:"GALLERY_ADMIN_EMAIL" default:"admin@example.com"`
}

// Configured reports whether the relay can be used at all. Missing
// credentials fail the first send, not startup.
func (e EmailConfig) Configured() bool {
	return strings.TrimSpace(e.SendgridAPIKey) != "" && strings.TrimSpace(e.FromAddress) != ""
}

type CheckoutConfig struct {
	// PendingOrderTTLMinutes bounds how long a pending order survives the
	// redirect round-trip before it is considered abandoned.
	PendingOrderTTLMinutes int `envconfig:"GALLERY_PENDING_ORDER_TTL_MINUTES" default:"60"`
}
