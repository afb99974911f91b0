package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/booking-mailer/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		path        string
		expectError bool
		check       func(t *testing.T, cfg config.Config)
	}{
		{
			name: "full config",
			content: `
server:
  port: "8080"
  requestTimeout: "10s"
smtp:
  host: "smtp.example.com"
  port: 465
  user: "mailer"
  password: "secret"
mail:
  fromEmail: "bookings@example.com"
  supportEmail: "support@example.com"
  maxAttempts: 4
rateLimit:
  windowMs: 1000
  max: 2
ledger:
  driver: postgres
  databaseURL: "postgres://localhost/bookings"
`,
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, ":8080", cfg.Server.ListenAddress())
				assert.Equal(t, 10*time.Second, cfg.Server.Timeout())
				assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
				assert.True(t, cfg.SMTP.Secure())
				assert.Equal(t, "bookings@example.com", cfg.Mail.FromEmail)
				assert.Equal(t, 4, cfg.Mail.MaxAttempts)
				assert.Equal(t, time.Second, cfg.RateLimit.Window())
				assert.Equal(t, 2, cfg.RateLimit.Max)
				assert.Equal(t, config.LedgerDriverPostgres, cfg.Ledger.Driver)
				assert.NoError(t, cfg.Validate())
			},
		},
		{
			name:    "minimal config gets defaults",
			content: "smtp:\n  host: localhost\n",
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, config.DefaultSMTPPort, cfg.SMTP.Port)
				assert.False(t, cfg.SMTP.Secure())
				assert.Equal(t, config.DefaultMaxAttempts, cfg.Mail.MaxAttempts)
				assert.Empty(t, cfg.Ledger.Driver, "no durable target configured")
				assert.ErrorContains(t, cfg.Validate(), "LEDGER_DRIVER")
				assert.Equal(t, config.LimiterBackendMemory, cfg.RateLimit.Backend)
			},
		},
		{
			name:        "invalid YAML",
			content:     `invalid: yaml: content [`,
			expectError: true,
		},
		{
			name:        "file not found",
			path:        "/nonexistent/path/config.yaml",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if path == "" {
				path = writeConfig(t, tt.content)
			}
			cfg, err := config.Load(path)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
smtp:
  host: "file-host"
  port: 25
rateLimit:
  max: 9
`)
	t.Setenv("SMTP_HOST", "env-host")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SMTP_USER", "user")
	t.Setenv("SMTP_PASS", "pass")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "2000")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("LEDGER_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MAIL_RETRY_FACTOR", "2.5")
	t.Setenv("CLIENT_RATE_DISABLED", "true")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.SMTP.Host)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.True(t, cfg.SMTP.Secure())
	assert.NoError(t, cfg.SMTP.Validate())
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.Window())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Ledger.Kafka.Brokers)
	assert.Equal(t, config.LedgerDriverKafka, cfg.Ledger.Driver, "brokers imply the kafka ledger")
	assert.Equal(t, 2.5, cfg.Mail.RetryFactor)
	assert.True(t, cfg.Server.ClientRate.Disabled)
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-port")
	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_PORT")
}

func TestDefaults(t *testing.T) {
	var cfg config.Config
	cfg.Defaults()

	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 3, cfg.Mail.MaxAttempts)
	assert.Equal(t, 500, cfg.Mail.RetryBackoffMs)
	assert.Equal(t, float64(3), cfg.Mail.RetryFactor)
	assert.Equal(t, 60000, cfg.RateLimit.WindowMs)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout())
	assert.Equal(t, config.DefaultKafkaTopic, cfg.Ledger.Kafka.Topic)
	assert.False(t, cfg.SMTP.InsecureSkipVerify, "insecure TLS must be opt-in")
	assert.Empty(t, cfg.Ledger.Driver, "the memory ledger is never a default")
}

func TestDefaultsInferLedgerDriver(t *testing.T) {
	var pg config.Config
	pg.Ledger.DatabaseURL = "postgres://localhost/bookings"
	pg.Defaults()
	assert.Equal(t, config.LedgerDriverPostgres, pg.Ledger.Driver)
	assert.NoError(t, pg.Validate())

	var kafka config.Config
	kafka.Ledger.Kafka.Brokers = []string{"k1:9092"}
	kafka.Defaults()
	assert.Equal(t, config.LedgerDriverKafka, kafka.Ledger.Driver)

	var explicit config.Config
	explicit.Ledger.Driver = config.LedgerDriverMemory
	explicit.Ledger.DatabaseURL = "postgres://localhost/bookings"
	explicit.Defaults()
	assert.Equal(t, config.LedgerDriverMemory, explicit.Ledger.Driver, "an explicit driver wins")
}

func TestSMTPSecureOnlyOnPort465(t *testing.T) {
	for port, want := range map[int]bool{25: false, 465: true, 587: false, 2525: false} {
		assert.Equal(t, want, config.SMTP{Port: port}.Secure(), "port %d", port)
	}
}

func TestSMTPValidate(t *testing.T) {
	tests := []struct {
		name string
		smtp config.SMTP
		ok   bool
	}{
		{"complete", config.SMTP{Host: "h", User: "u", Password: "p"}, true},
		{"missing host", config.SMTP{User: "u", Password: "p"}, false},
		{"missing user", config.SMTP{Host: "h", Password: "p"}, false},
		{"missing password", config.SMTP{Host: "h", User: "u"}, false},
		{"blank host", config.SMTP{Host: "  ", User: "u", Password: "p"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.smtp.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, config.ErrMissingSMTPCredentials)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() config.Config {
		var cfg config.Config
		cfg.Ledger.Driver = config.LedgerDriverMemory
		cfg.Defaults()
		return cfg
	}

	t.Run("defaults with explicit memory ledger are valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("ledger driver is required", func(t *testing.T) {
		var cfg config.Config
		cfg.Defaults()
		assert.ErrorContains(t, cfg.Validate(), "LEDGER_DRIVER")
	})

	t.Run("postgres requires database url", func(t *testing.T) {
		cfg := base()
		cfg.Ledger.Driver = config.LedgerDriverPostgres
		assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")
	})

	t.Run("kafka requires brokers", func(t *testing.T) {
		cfg := base()
		cfg.Ledger.Driver = config.LedgerDriverKafka
		assert.ErrorContains(t, cfg.Validate(), "KAFKA_BROKERS")
	})

	t.Run("redis requires address", func(t *testing.T) {
		cfg := base()
		cfg.RateLimit.Backend = config.LimiterBackendRedis
		assert.ErrorContains(t, cfg.Validate(), "REDIS_ADDR")
	})

	t.Run("unknown driver and backend are both reported", func(t *testing.T) {
		cfg := base()
		cfg.Ledger.Driver = "sqlite"
		cfg.RateLimit.Backend = "memcached"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite")
		assert.Contains(t, err.Error(), "memcached")
	})

	t.Run("invalid request timeout", func(t *testing.T) {
		cfg := base()
		cfg.Server.RequestTimeout = "soon"
		assert.ErrorContains(t, cfg.Validate(), "requestTimeout")
	})
}

func TestListenAddressKeepsExplicitHost(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", config.Server{Port: "127.0.0.1:8080"}.ListenAddress())
	assert.Equal(t, ":3000", config.Server{Port: "3000"}.ListenAddress())
}
