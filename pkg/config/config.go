// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	// SecureSMTPPort is the implicit-TLS SMTP port. Only this port enables a secure transport.
	SecureSMTPPort = 465

	DefaultSMTPPort        = 587
	DefaultFromEmail       = "info@thaimassage.com"
	DefaultMaxAttempts     = 3
	DefaultRetryBackoffMs  = 500
	DefaultRetryFactor     = 3
	DefaultWindowMs        = 60000
	DefaultMaxPerWindow    = 5
	DefaultPort            = "3000"
	DefaultRequestTimeout  = "30s"
	DefaultKafkaTopic      = "booking-deliveries"
	DefaultRedisPrefix     = "booking-mailer:ratelimit"
	DefaultClientRateRPS   = 20
	DefaultClientRateBurst = 50

	LimiterBackendMemory = "memory"
	LimiterBackendRedis  = "redis"

	LedgerDriverMemory   = "memory"
	LedgerDriverPostgres = "postgres"
	LedgerDriverKafka    = "kafka"
)

// ErrMissingSMTPCredentials is returned when host, user or password of the SMTP
// transport are not configured.
var ErrMissingSMTPCredentials = errors.New("SMTP configuration is missing: SMTP_HOST, SMTP_USER and SMTP_PASS must be set")

// SMTP configures the outbound mail transport.
type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// InsecureSkipVerify disables TLS certificate verification. Only use for testing.
	InsecureSkipVerify bool `yaml:"insecureSkipVerify"`
}

// Secure reports whether the transport uses implicit TLS. This is derived from
// the port and is true only for 465; every other port uses STARTTLS when offered.
func (s SMTP) Secure() bool {
	return s.Port == SecureSMTPPort
}

// Validate returns ErrMissingSMTPCredentials when the transport cannot be built.
func (s SMTP) Validate() error {
	if strings.TrimSpace(s.Host) == "" || strings.TrimSpace(s.User) == "" || s.Password == "" {
		return ErrMissingSMTPCredentials
	}
	return nil
}

// Mail configures message addressing, templates and the delivery retry policy.
type Mail struct {
	// FromEmail is the sender address. Falls back to the booking's replyTo, then DefaultFromEmail.
	FromEmail string `yaml:"fromEmail"`
	// SupportEmail is rendered into the templates. Falls back to FromEmail, replyTo, DefaultFromEmail.
	SupportEmail string `yaml:"supportEmail"`
	// TemplateDir overrides the embedded confirmation templates when set.
	TemplateDir string `yaml:"templateDir"`
	// MaxAttempts is the number of send attempts before a delivery is reported as failed.
	MaxAttempts int `yaml:"maxAttempts"`
	// RetryBackoffMs is the wait after the first failed attempt.
	RetryBackoffMs int `yaml:"retryBackoffMs"`
	// RetryFactor multiplies the wait after every further failed attempt.
	RetryFactor float64 `yaml:"retryFactor"`
}

// Redis holds the connection used by the shared rate limiter backend.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// RateLimit configures per-recipient admission control.
type RateLimit struct {
	// WindowMs is the length of the sliding window in milliseconds.
	WindowMs int `yaml:"windowMs"`
	// Max is the number of admissions per recipient inside one window.
	Max int `yaml:"max"`
	// Backend selects the limiter storage: "memory" (default) or "redis".
	Backend string `yaml:"backend"`
	Redis   Redis  `yaml:"redis"`
}

// Window returns WindowMs as a duration.
func (r RateLimit) Window() time.Duration {
	return time.Duration(r.WindowMs) * time.Millisecond
}

// Kafka configures the kafka ledger driver.
type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Ledger selects where delivery outcomes are recorded.
type Ledger struct {
	// Driver is one of "postgres", "kafka" or "memory". When empty it is inferred
	// from DatabaseURL or Kafka.Brokers. "memory" keeps outcomes in process only.
	Driver      string `yaml:"driver"`
	DatabaseURL string `yaml:"databaseURL"`
	Kafka       Kafka  `yaml:"kafka"`
}

// ClientRate is the per-client-IP token bucket applied in front of the booking endpoint.
type ClientRate struct {
	Disabled bool    `yaml:"disabled"`
	RPS      float64 `yaml:"rps"`
	Burst    int     `yaml:"burst"`
}

type Server struct {
	Port string `yaml:"port"`
	// MetricsAddress serves /metrics on a separate listener when set, e.g. ":9090".
	MetricsAddress string `yaml:"metricsAddress"`
	// RequestTimeout bounds the handling of one booking, e.g. "30s".
	RequestTimeout string     `yaml:"requestTimeout"`
	TrustedProxies []string   `yaml:"trustedProxies"` // IPs/CIDRs to trust for X-Forwarded-For headers
	ClientRate     ClientRate `yaml:"clientRate"`
}

// ListenAddress returns the address the HTTP server binds to.
func (s Server) ListenAddress() string {
	if strings.Contains(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

// Timeout returns RequestTimeout as a duration, falling back to the default when unparsable.
func (s Server) Timeout() time.Duration {
	d, err := time.ParseDuration(s.RequestTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultRequestTimeout)
	}
	return d
}

type Config struct {
	Server    Server    `yaml:"server"`
	SMTP      SMTP      `yaml:"smtp"`
	Mail      Mail      `yaml:"mail"`
	RateLimit RateLimit `yaml:"rateLimit"`
	Ledger    Ledger    `yaml:"ledger"`
}

// Load builds the configuration. The YAML file at configPath is optional; when
// configPath is empty only the environment is used. A .env file in the working
// directory is loaded first and never overrides variables already set. Values
// from the environment take precedence over the file. Defaults are applied last.
func Load(configPath string) (Config, error) {
	var cfg Config

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return cfg, fmt.Errorf("trying to open booking-mailer config file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return cfg, fmt.Errorf("error unmarshaling YAML %s: %w", configPath, err)
		}
	}

	// .env is optional, like in local development setups
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.Defaults()
	return cfg, nil
}

// Defaults fills every unset option with its documented default.
func (c *Config) Defaults() {
	if c.SMTP.Port == 0 {
		c.SMTP.Port = DefaultSMTPPort
	}
	if c.Mail.MaxAttempts <= 0 {
		c.Mail.MaxAttempts = DefaultMaxAttempts
	}
	if c.Mail.RetryBackoffMs <= 0 {
		c.Mail.RetryBackoffMs = DefaultRetryBackoffMs
	}
	if c.Mail.RetryFactor <= 0 {
		c.Mail.RetryFactor = DefaultRetryFactor
	}
	if c.RateLimit.WindowMs <= 0 {
		c.RateLimit.WindowMs = DefaultWindowMs
	}
	if c.RateLimit.Max <= 0 {
		c.RateLimit.Max = DefaultMaxPerWindow
	}
	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = LimiterBackendMemory
	}
	if c.RateLimit.Redis.Prefix == "" {
		c.RateLimit.Redis.Prefix = DefaultRedisPrefix
	}
	// the driver is inferred from a durable target; memory is never implied
	if c.Ledger.Driver == "" {
		switch {
		case c.Ledger.DatabaseURL != "":
			c.Ledger.Driver = LedgerDriverPostgres
		case len(c.Ledger.Kafka.Brokers) > 0:
			c.Ledger.Driver = LedgerDriverKafka
		}
	}
	if c.Ledger.Kafka.Topic == "" {
		c.Ledger.Kafka.Topic = DefaultKafkaTopic
	}
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Server.RequestTimeout == "" {
		c.Server.RequestTimeout = DefaultRequestTimeout
	}
	if c.Server.ClientRate.RPS <= 0 {
		c.Server.ClientRate.RPS = DefaultClientRateRPS
	}
	if c.Server.ClientRate.Burst <= 0 {
		c.Server.ClientRate.Burst = DefaultClientRateBurst
	}
}

// Validate checks the options that cannot be defaulted. SMTP credentials are
// checked separately by SMTP.Validate when the transport is built.
func (c Config) Validate() error {
	var errs []error

	switch c.RateLimit.Backend {
	case LimiterBackendMemory:
	case LimiterBackendRedis:
		if c.RateLimit.Redis.Addr == "" {
			errs = append(errs, errors.New("rateLimit.redis.addr (REDIS_ADDR) is required for the redis limiter backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown rate limiter backend %q", c.RateLimit.Backend))
	}

	switch c.Ledger.Driver {
	case "":
		errs = append(errs, errors.New("ledger.driver (LEDGER_DRIVER) is required: set DATABASE_URL or KAFKA_BROKERS, or LEDGER_DRIVER=memory for a non-durable ledger"))
	case LedgerDriverMemory:
	case LedgerDriverPostgres:
		if c.Ledger.DatabaseURL == "" {
			errs = append(errs, errors.New("ledger.databaseURL (DATABASE_URL) is required for the postgres ledger"))
		}
	case LedgerDriverKafka:
		if len(c.Ledger.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("ledger.kafka.brokers (KAFKA_BROKERS) is required for the kafka ledger"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ledger driver %q", c.Ledger.Driver))
	}

	if _, err := time.ParseDuration(c.Server.RequestTimeout); err != nil {
		errs = append(errs, fmt.Errorf("invalid server.requestTimeout %q: %w", c.Server.RequestTimeout, err))
	}

	return errors.Join(errs...)
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
				return
			}
			*dst = b
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			var out []string
			for _, item := range strings.Split(v, ",") {
				if item = strings.TrimSpace(item); item != "" {
					out = append(out, item)
				}
			}
			*dst = out
		}
	}

	str("SMTP_HOST", &c.SMTP.Host)
	integer("SMTP_PORT", &c.SMTP.Port)
	str("SMTP_USER", &c.SMTP.User)
	str("SMTP_PASS", &c.SMTP.Password)
	boolean("SMTP_INSECURE_SKIP_VERIFY", &c.SMTP.InsecureSkipVerify)

	str("FROM_EMAIL", &c.Mail.FromEmail)
	str("SUPPORT_EMAIL", &c.Mail.SupportEmail)
	str("TEMPLATE_DIR", &c.Mail.TemplateDir)
	integer("MAIL_MAX_ATTEMPTS", &c.Mail.MaxAttempts)
	integer("MAIL_RETRY_BACKOFF_MS", &c.Mail.RetryBackoffMs)
	float("MAIL_RETRY_FACTOR", &c.Mail.RetryFactor)

	integer("RATE_LIMIT_WINDOW_MS", &c.RateLimit.WindowMs)
	integer("RATE_LIMIT_MAX", &c.RateLimit.Max)
	str("RATE_LIMIT_BACKEND", &c.RateLimit.Backend)
	str("REDIS_ADDR", &c.RateLimit.Redis.Addr)
	str("REDIS_PASSWORD", &c.RateLimit.Redis.Password)
	integer("REDIS_DB", &c.RateLimit.Redis.DB)
	str("REDIS_PREFIX", &c.RateLimit.Redis.Prefix)

	str("LEDGER_DRIVER", &c.Ledger.Driver)
	str("DATABASE_URL", &c.Ledger.DatabaseURL)
	list("KAFKA_BROKERS", &c.Ledger.Kafka.Brokers)
	str("KAFKA_TOPIC", &c.Ledger.Kafka.Topic)

	str("PORT", &c.Server.Port)
	str("METRICS_BIND_ADDRESS", &c.Server.MetricsAddress)
	str("REQUEST_TIMEOUT", &c.Server.RequestTimeout)
	list("TRUSTED_PROXIES", &c.Server.TrustedProxies)
	boolean("CLIENT_RATE_DISABLED", &c.Server.ClientRate.Disabled)
	float("CLIENT_RATE_RPS", &c.Server.ClientRate.RPS)
	integer("CLIENT_RATE_BURST", &c.Server.ClientRate.Burst)

	return errors.Join(errs...)
}
