package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const EnvProduction = "production"

type Config struct {
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// LogBootstrapCredentials controls the first-run default password notice.
	LogBootstrapCredentials bool `env:"LOG_BOOTSTRAP_CREDENTIALS, default=true"`

	// TrustProxy makes the client IP come from X-Forwarded-For.
	TrustProxy     bool     `env:"TRUST_PROXY,     default=true"`
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
	CORSOrigins    []string `env:"CORS_ORIGINS"`

	PublicDir string `env:"PUBLIC_DIR, default=./public"`

	// ContactsListRequireAuth gates GET /api/contacts. It is off by default to
	// match the historical public listing.
	ContactsListRequireAuth bool `env:"CONTACTS_LIST_REQUIRE_AUTH, default=false"`

	MetricsEnabled bool `env:"METRICS_ENABLED, default=true"`
	SwaggerEnabled bool `env:"SWAGGER_ENABLED, default=true"`

	Storage   StorageConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Vault     VaultConfig
	Mail      MailConfig
	Redis     RedisConfig
}

type StorageConfig struct {
	DataDir         string        `env:"DATA_DIR,               default=./data"`
	ContactsFile    string        `env:"CONTACTS_FILE,          default=contacts.json"`
	AdminFile       string        `env:"ADMIN_CREDENTIALS_FILE, default=admin-credentials.json"`
	ProfileFile     string        `env:"PROFILE_FILE,           default=profile.json"`
	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL,      default=5m"`
}

type SessionConfig struct {
	TTL           time.Duration `env:"SESSION_TTL,            default=24h"`
	CookieName    string        `env:"SESSION_COOKIE,         default=sessionId"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL, default=10m"`
}

type RateLimitConfig struct {
	Window  time.Duration `env:"RATE_LIMIT_WINDOW,   default=15m"`
	Max     int           `env:"RATE_LIMIT_MAX,      default=100"`
	AuthMax int           `env:"AUTH_RATE_LIMIT_MAX, default=5"`
}

type VaultConfig struct {
	Secret string `env:"EMAIL_ENCRYPTION_KEY"`
	File   string `env:"EMAIL_CREDENTIALS_FILE, default=email-credentials.enc.json"`
}

type MailConfig struct {
	To             string        `env:"MAIL_TO"`
	FromName       string        `env:"MAIL_FROM_NAME,        default=Portfolio Contact"`
	Host           string        `env:"SMTP_HOST"`
	Port           int           `env:"SMTP_PORT,             default=587"`
	MaxConnections int           `env:"MAIL_MAX_CONNECTIONS,  default=5"`
	RatePerSecond  int           `env:"MAIL_RATE_PER_SECOND,  default=5"`
	ConnectTimeout time.Duration `env:"MAIL_CONNECT_TIMEOUT,  default=10s"`
	GreetTimeout   time.Duration `env:"MAIL_GREETING_TIMEOUT, default=10s"`
	SocketTimeout  time.Duration `env:"MAIL_SOCKET_TIMEOUT,   default=30s"`
	Retries        uint64        `env:"MAIL_RETRIES,          default=2"`
	RetryDelay     time.Duration `env:"MAIL_RETRY_DELAY,      default=2s"`
	QueueSize      int           `env:"MAIL_QUEUE_SIZE,       default=64"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// ContactsPath, AdminPath, ProfilePath and VaultPath resolve file names
// relative to DataDir unless they are already absolute.
func (c *Config) ContactsPath() string { return c.dataPath(c.Storage.ContactsFile) }
func (c *Config) AdminPath() string    { return c.dataPath(c.Storage.AdminFile) }
func (c *Config) ProfilePath() string  { return c.dataPath(c.Storage.ProfileFile) }
func (c *Config) VaultPath() string    { return c.dataPath(c.Vault.File) }

func (c *Config) dataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Storage.DataDir, name)
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return Process(ctx, envconfig.OsLookuper())
}

// Process builds a Config from the given lookuper.
func Process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if cfg.IsProduction() {
		cfg.SwaggerEnabled = false
	}
	return &cfg, nil
}
