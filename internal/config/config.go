package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort            = 2333
	defaultEnv             = "development"
	defaultDBHost          = "127.0.0.1"
	defaultDBPort          = 3306
	defaultDBUser          = "root"
	defaultDBPassword      = "password"
	defaultDBName          = "referrio"
	defaultDBCharset       = "utf8mb4"
	defaultDBLoc           = "Local"
	defaultMongoURL        = "mongodb://127.0.0.1:27017"
	defaultMongoDB         = "referrio"
	defaultRedisURL        = "redis://localhost:6379/0"
	defaultRootDomain      = "referrio.com"
	defaultLocalSuffix     = ".localhost"
	defaultInactivityMin   = 5
	defaultWarningSec      = 20
	defaultProtectedPrefix = "/portal"
	defaultCookieName      = "referrio_session"
	defaultSessionTTLHours = 12
	defaultBotEndpoint     = "https://challenges.cloudflare.com/turnstile/v0/siteverify"
)

// Load reads and normalizes the YAML config at path. A missing file yields
// defaults rather than an error so local development works out of the box.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && path == DefaultConfigPath:
		// fall through to defaults
	default:
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	normalize(cfg)
	return cfg, nil
}

// SessionTTL returns the configured session lifetime.
func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLHours) * time.Hour
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env != "production" }

// IsProd reports whether the app runs in production mode.
func (c *AppConfig) IsProd() bool { return c.Env == "production" }

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("REFERRIO_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("MONGO_URL"); v != "" {
		cfg.MongoURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("SUPER_ADMIN_EMAIL"); v != "" {
		cfg.AdminEmail = v
	}
	if v := os.Getenv("BILLING_WEBHOOK_SECRET"); v != "" {
		cfg.Billing.WebhookSecret = v
	}
}

func normalize(cfg *AppConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}

	if cfg.DSN == "" {
		cfg.DSN = buildDSN(&cfg.Database)
	}
	if cfg.MongoURL == "" {
		cfg.MongoURL = defaultMongoURL
	}
	if cfg.MongoDB == "" {
		cfg.MongoDB = defaultMongoDB
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = defaultRedisURL
	}

	if cfg.Domain.Root == "" {
		cfg.Domain.Root = defaultRootDomain
	}
	cfg.Domain.Root = strings.ToLower(strings.TrimSpace(cfg.Domain.Root))
	if cfg.Domain.LocalSuffix == "" {
		cfg.Domain.LocalSuffix = defaultLocalSuffix
	}
	if len(cfg.Domain.RootHosts) == 0 {
		cfg.Domain.RootHosts = []string{
			cfg.Domain.Root,
			"www." + cfg.Domain.Root,
			"localhost",
		}
	}
	for i, h := range cfg.Domain.RootHosts {
		cfg.Domain.RootHosts[i] = strings.ToLower(strings.TrimSpace(h))
	}

	cfg.AdminEmail = strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	if cfg.Session.InactivityMinutes == 0 {
		cfg.Session.InactivityMinutes = defaultInactivityMin
	}
	if cfg.Session.WarningSeconds == 0 {
		cfg.Session.WarningSeconds = defaultWarningSec
	}
	if cfg.Session.ProtectedPrefix == "" {
		cfg.Session.ProtectedPrefix = defaultProtectedPrefix
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = defaultCookieName
	}
	if cfg.Session.TTLHours == 0 {
		cfg.Session.TTLHours = defaultSessionTTLHours
	}

	if cfg.BotCheck.Endpoint == "" {
		cfg.BotCheck.Endpoint = defaultBotEndpoint
	}
}
