package config

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port      int                   `yaml:"port"`
	Env       string                `yaml:"env"` // "development" | "production"
	DSN       string                `yaml:"dsn"` // MySQL DSN
	Database  DatabaseRuntimeConfig `yaml:"database"`
	MongoURL  string                `yaml:"mongo_url"`
	MongoDB   string                `yaml:"mongo_db"`
	RedisURL  string                `yaml:"redis_url"`
	JWTSecret string                `yaml:"jwt_secret"`

	Domain         DomainConfig   `yaml:"domain"`
	AdminEmail     string         `yaml:"admin_email"`
	Session        SessionConfig  `yaml:"session"`
	Mail           MailConfig     `yaml:"mail"`
	BotCheck       BotCheckConfig `yaml:"bot_check"`
	Billing        BillingConfig  `yaml:"billing"`
	Export         ExportConfig   `yaml:"export"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
}

type DatabaseRuntimeConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
	Loc      string `yaml:"loc"`
}

// DomainConfig drives subdomain → agency resolution.
type DomainConfig struct {
	Root        string   `yaml:"root"`         // production root domain, e.g. "referrio.com"
	LocalSuffix string   `yaml:"local_suffix"` // local-dev suffix, e.g. ".localhost"
	RootHosts   []string `yaml:"root_hosts"`   // exact hosts that resolve to the default agency
}

// SessionConfig tunes the inactivity timeout machinery.
type SessionConfig struct {
	InactivityMinutes int    `yaml:"inactivity_minutes"`
	WarningSeconds    int    `yaml:"warning_seconds"`
	ProtectedPrefix   string `yaml:"protected_prefix"`
	CookieName        string `yaml:"cookie_name"`
	TTLHours          int    `yaml:"ttl_hours"`
}

type MailConfig struct {
	Enable    bool   `yaml:"enable"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Pass      string `yaml:"pass"`
	From      string `yaml:"from"`
	ReplyTo   string `yaml:"reply_to"`
	UseResend bool   `yaml:"use_resend"`
	ResendKey string `yaml:"resend_key"`
}

type BotCheckConfig struct {
	Enable   bool   `yaml:"enable"`
	Secret   string `yaml:"secret"`
	Endpoint string `yaml:"endpoint"`
}

type BillingConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
}

// ExportConfig is the optional S3 archive target for CSV exports.
type ExportConfig struct {
	Enable          bool   `yaml:"enable"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Endpoint        string `yaml:"endpoint"`
	Prefix          string `yaml:"prefix"`
}
