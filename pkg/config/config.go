package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"bank-console/pkg/resilience"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig is returned when a setting is missing or out of range.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Delays are the pauses between a successful submit and the automatic
// close of its modal. Zero closes immediately.
type Delays struct {
	CreateAccount time.Duration
	ApplyLoan     time.Duration
	Deposit       time.Duration
}

// DefaultDelays returns the delays the dashboard has always used.
func DefaultDelays() Delays {
	return Delays{
		CreateAccount: 2000 * time.Millisecond,
		ApplyLoan:     2000 * time.Millisecond,
		Deposit:       1500 * time.Millisecond,
	}
}

// Config is the console's runtime configuration.
type Config struct {
	// Addr is the listen address of the console HTTP server
	Addr string

	// BackendURL is the root of the bank's JSON API
	BackendURL     string
	BackendTimeout time.Duration

	// SessionCookie is the name of the backend's session cookie, forwarded
	// on every backend call
	SessionCookie string

	CustomerLoginURL string
	AdminLoginURL    string

	// SecureCookies marks the console's session cookies Secure
	SecureCookies bool

	Delays Delays

	// SessionTTL closes console sessions idle for longer
	SessionTTL time.Duration

	// RedisAddr selects the Redis session store; empty keeps records in memory
	RedisAddr string

	// JournalDriver is postgres or sqlite3; an empty JournalDSN disables the journal
	JournalDriver string
	JournalDSN    string

	// ViewerTimezone is the IANA zone dates are rendered in
	ViewerTimezone string

	MetricsNamespace string

	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
	BreakerFailures    uint32
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Addr:               ":8080",
		BackendURL:         "http://localhost:5000",
		BackendTimeout:     10 * time.Second,
		SessionCookie:      "session",
		CustomerLoginURL:   "/login",
		AdminLoginURL:      "/admin-login",
		Delays:             DefaultDelays(),
		SessionTTL:         30 * time.Minute,
		JournalDriver:      "postgres",
		ViewerTimezone:     "Local",
		MetricsNamespace:   "bank_console",
		BreakerMaxRequests: 5,
		BreakerInterval:    60 * time.Second,
		BreakerTimeout:     30 * time.Second,
		BreakerFailures:    5,
	}
}

// Load reads the given dotenv files (default ".env"; missing files are
// skipped), then overlays environment variables on the defaults.
// Variables already present in the environment win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", file, err)
		}
	}

	cfg := Default()
	p := parser{}

	p.str("CONSOLE_ADDR", &cfg.Addr)
	p.str("BACKEND_URL", &cfg.BackendURL)
	p.duration("BACKEND_TIMEOUT", &cfg.BackendTimeout)
	p.str("BACKEND_SESSION_COOKIE", &cfg.SessionCookie)
	p.str("CUSTOMER_LOGIN_URL", &cfg.CustomerLoginURL)
	p.str("ADMIN_LOGIN_URL", &cfg.AdminLoginURL)
	p.boolean("SECURE_COOKIES", &cfg.SecureCookies)
	p.duration("CREATE_ACCOUNT_CLOSE_DELAY", &cfg.Delays.CreateAccount)
	p.duration("APPLY_LOAN_CLOSE_DELAY", &cfg.Delays.ApplyLoan)
	p.duration("DEPOSIT_CLOSE_DELAY", &cfg.Delays.Deposit)
	p.duration("SESSION_TTL", &cfg.SessionTTL)
	p.str("REDIS_ADDR", &cfg.RedisAddr)
	p.str("JOURNAL_DRIVER", &cfg.JournalDriver)
	p.str("JOURNAL_DSN", &cfg.JournalDSN)
	p.str("VIEWER_TIMEZONE", &cfg.ViewerTimezone)
	p.str("METRICS_NAMESPACE", &cfg.MetricsNamespace)
	p.uint32("BREAKER_MAX_REQUESTS", &cfg.BreakerMaxRequests)
	p.duration("BREAKER_INTERVAL", &cfg.BreakerInterval)
	p.duration("BREAKER_TIMEOUT", &cfg.BreakerTimeout)
	p.uint32("BREAKER_FAILURES", &cfg.BreakerFailures)

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: BACKEND_URL %q is not an absolute url", ErrInvalidConfig, c.BackendURL)
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("%w: BACKEND_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.Delays.CreateAccount < 0 || c.Delays.ApplyLoan < 0 || c.Delays.Deposit < 0 {
		return fmt.Errorf("%w: close delays must not be negative", ErrInvalidConfig)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: SESSION_TTL must be positive", ErrInvalidConfig)
	}
	if c.SessionCookie == "" {
		return fmt.Errorf("%w: BACKEND_SESSION_COOKIE is empty", ErrInvalidConfig)
	}
	switch c.JournalDriver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("%w: JOURNAL_DRIVER %q is not postgres or sqlite3", ErrInvalidConfig, c.JournalDriver)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: VIEWER_TIMEZONE: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Location resolves ViewerTimezone.
func (c *Config) Location() (*time.Location, error) {
	if c.ViewerTimezone == "" || c.ViewerTimezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.ViewerTimezone)
}

// Resilience returns the breaker and timeout settings for backend calls.
func (c *Config) Resilience() resilience.Config {
	return resilience.Config{
		Name:    "backend",
		Timeout: c.BackendTimeout,
		CircuitBreakerConfig: resilience.CircuitBreakerConfig{
			MaxRequests:         c.BreakerMaxRequests,
			Interval:            c.BreakerInterval,
			Timeout:             c.BreakerTimeout,
			ConsecutiveFailures: c.BreakerFailures,
		},
	}
}

// parser reads typed variables and remembers the first failure.
type parser struct {
	err error
}

func (p *parser) str(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (p *parser) duration(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" || p.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.err = fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		return
	}
	*dst = d
}

func (p *parser) uint32(key string, dst *uint32) {
	v := os.Getenv(key)
	if v == "" || p.err != nil {
		return
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		p.err = fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		return
	}
	*dst = uint32(n)
}

func (p *parser) boolean(key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" || p.err != nil {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		return
	}
	*dst = b
}
