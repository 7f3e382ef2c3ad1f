package main

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Environment    string   `mapstructure:"ENVIRONMENT"`
	Version        string   `mapstructure:"VERSION"`
	TrustedOrigins []string `mapstructure:"TRUSTED_ORIGINS"`
	TLSCertFile    string   `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile     string   `mapstructure:"TLS_KEY_FILE"`

	DBHost         string        `mapstructure:"POSTGRES_HOST"`
	DBPort         string        `mapstructure:"POSTGRES_PORT"`
	DBUser         string        `mapstructure:"POSTGRES_USER"`
	DBPassword     string        `mapstructure:"POSTGRES_PASSWORD"`
	DBName         string        `mapstructure:"POSTGRES_DB"`
	DBMaxOpenConns int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxIdleTime  time.Duration `mapstructure:"DB_MAX_IDLE_TIME"`
	MigrateOnStart bool          `mapstructure:"MIGRATE_ON_START"`
	MigrationsPath string        `mapstructure:"MIGRATIONS_PATH"`

	MailHost     string `mapstructure:"MAIL_HOST"`
	MailPort     int    `mapstructure:"MAIL_PORT"`
	MailUser     string `mapstructure:"MAIL_USER"`
	MailPassword string `mapstructure:"MAIL_PASSWORD"`
	MailSender   string `mapstructure:"MAIL_SENDER"`

	MQHost     string `mapstructure:"RABBITMQ_HOST"`
	MQPort     string `mapstructure:"RABBITMQ_PORT"`
	MQUser     string `mapstructure:"RABBITMQ_USER"`
	MQPassword string `mapstructure:"RABBITMQ_PASSWORD"`

	JWTAccessSecret  string        `mapstructure:"JWT_ACCESS_SECRET"`
	JWTRefreshSecret string        `mapstructure:"JWT_REFRESH_SECRET"`
	JWTAccessTTL     time.Duration `mapstructure:"JWT_ACCESS_TTL"`
	JWTRefreshTTL    time.Duration `mapstructure:"JWT_REFRESH_TTL"`

	BlobDir     string `mapstructure:"BLOB_DIR"`
	BlobBaseURL string `mapstructure:"BLOB_BASE_URL"`

	FrontendURL       string        `mapstructure:"FRONTEND_URL"`
	ContactEmail      string        `mapstructure:"CONTACT_EMAIL"`
	ReconcileInterval time.Duration `mapstructure:"RECONCILE_INTERVAL"`

	RateLimitEnabled bool    `mapstructure:"RATE_LIMIT_ENABLED"`
	RateLimitRPS     float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int     `mapstructure:"RATE_LIMIT_BURST"`
}

var defaults = map[string]any{
	"PORT":               "4000",
	"ENVIRONMENT":        "development",
	"VERSION":            "1.0.0",
	"POSTGRES_PORT":      "5432",
	"DB_MAX_OPEN_CONNS":  25,
	"DB_MAX_IDLE_CONNS":  25,
	"DB_MAX_IDLE_TIME":   "15m",
	"MIGRATIONS_PATH":    "file://migrations",
	"RABBITMQ_PORT":      "5672",
	"MAIL_PORT":          587,
	"JWT_ACCESS_TTL":     "1h",
	"JWT_REFRESH_TTL":    "168h",
	"BLOB_DIR":           "uploads",
	"BLOB_BASE_URL":      "http://localhost:4000/media",
	"FRONTEND_URL":       "http://localhost:3000",
	"RECONCILE_INTERVAL": "1h",
	"RATE_LIMIT_ENABLED": true,
	"RATE_LIMIT_RPS":     2,
	"RATE_LIMIT_BURST":   4,
}

// loadConfig reads the env file at path. Variables set in the process
// environment take precedence over the file.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
