package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"wework-hub/internal/domain"
)

const minSecretLength = 32

// Backends for DRAFT_STORE and JAR_STORE.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds the application configuration
type Config struct {
	Port          string        // Service port
	APIBaseURL    string        // Job-board REST API base URL
	APITimeout    time.Duration // Per-request upstream timeout
	VisitorSecret string        // HMAC secret for the visitor cookie
	VisitorTTL    time.Duration // Idle lifetime of a visitor and its cookie
	// VisitorCapacity bounds the number of live visitors held in memory.
	VisitorCapacity  int
	CSRFSecret       string        // HMAC secret for form CSRF tokens
	BootstrapWait    time.Duration // How long a guard waits for bootstrap before rendering the loading page
	BootstrapTimeout time.Duration // Upper bound of one background bootstrap
	ProbeOrder       []domain.AccountKind
	DraftStore       string
	JarStore         string // Where upstream session cookies are kept, memory or redis
	RedisURL         string
	DraftTTL         time.Duration
	Routes           domain.Routes
	CookieSecure     bool
	AuthRateLimit    float64 // Sign-in/up posts per second per IP
	AuthRateBurst    int
	BreakerFailures  int           // Consecutive upstream failures that open the circuit
	BreakerOpenFor   time.Duration // How long the circuit stays open
}

// LoadDotEnv loads a .env file if present. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		Port:          getEnv("PORT", "8080"),
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:3000/api"),
		VisitorSecret: getEnv("VISITOR_SECRET", ""),
		CSRFSecret:    getEnv("CSRF_SECRET", ""),
		DraftStore:    strings.ToLower(getEnv("DRAFT_STORE", StoreMemory)),
		JarStore:      strings.ToLower(getEnv("JAR_STORE", StoreMemory)),
		RedisURL:      getEnv("REDIS_URL", ""),
		Routes: domain.Routes{
			SignIn:           getEnv("ROUTE_SIGN_IN", "/login"),
			CompanySignIn:    getEnv("ROUTE_COMPANY_SIGN_IN", "/company/login"),
			StudentDashboard: getEnv("ROUTE_STUDENT_DASHBOARD", "/dashboard"),
			CompanyDashboard: getEnv("ROUTE_COMPANY_DASHBOARD", "/company/dashboard"),
		},
	}

	var errs []error
	parseDuration := func(key string, fallback time.Duration) time.Duration {
		d, err := durationEnv(key, fallback)
		errs = append(errs, err)
		return d
	}
	parseInt := func(key string, fallback int) int {
		n, err := intEnv(key, fallback)
		errs = append(errs, err)
		return n
	}

	config.APITimeout = parseDuration("API_TIMEOUT", 10*time.Second)
	config.VisitorTTL = parseDuration("VISITOR_TTL", 24*time.Hour)
	config.BootstrapWait = parseDuration("BOOTSTRAP_WAIT", 1500*time.Millisecond)
	config.BootstrapTimeout = parseDuration("BOOTSTRAP_TIMEOUT", 10*time.Second)
	config.DraftTTL = parseDuration("DRAFT_TTL", 24*time.Hour)
	config.BreakerOpenFor = parseDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second)
	config.VisitorCapacity = parseInt("VISITOR_CAPACITY", 10000)
	config.AuthRateBurst = parseInt("AUTH_RATE_BURST", 10)
	config.BreakerFailures = parseInt("BREAKER_FAILURE_THRESHOLD", 5)

	rateStr := getEnv("AUTH_RATE_LIMIT", "1")
	if r, err := strconv.ParseFloat(rateStr, 64); err != nil {
		errs = append(errs, fmt.Errorf("invalid AUTH_RATE_LIMIT format: %w", err))
	} else {
		config.AuthRateLimit = r
	}

	secure, err := strconv.ParseBool(getEnv("COOKIE_SECURE", "true"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid COOKIE_SECURE format: %w", err))
	}
	config.CookieSecure = secure

	order, err := ParseProbeOrder(getEnv("PROBE_ORDER", "student,company"))
	errs = append(errs, err)
	config.ProbeOrder = order

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
	}

	if len(c.VisitorSecret) < minSecretLength {
		return fmt.Errorf("VISITOR_SECRET must be at least %d characters", minSecretLength)
	}
	if len(c.CSRFSecret) < minSecretLength {
		return fmt.Errorf("CSRF_SECRET must be at least %d characters", minSecretLength)
	}

	for key, d := range map[string]time.Duration{
		"API_TIMEOUT":       c.APITimeout,
		"VISITOR_TTL":       c.VisitorTTL,
		"BOOTSTRAP_TIMEOUT": c.BootstrapTimeout,
		"DRAFT_TTL":         c.DraftTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	if c.BootstrapWait < 0 {
		return fmt.Errorf("BOOTSTRAP_WAIT cannot be negative")
	}

	if c.VisitorCapacity <= 0 {
		return fmt.Errorf("VISITOR_CAPACITY must be positive")
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}

	for key, backend := range map[string]string{"DRAFT_STORE": c.DraftStore, "JAR_STORE": c.JarStore} {
		switch backend {
		case StoreMemory:
		case StoreRedis:
			if c.RedisURL == "" {
				return fmt.Errorf("REDIS_URL is required when %s=redis", key)
			}
		default:
			return fmt.Errorf("%s must be %q or %q, got %q", key, StoreMemory, StoreRedis, backend)
		}
	}

	for key, path := range map[string]string{
		"ROUTE_SIGN_IN":           c.Routes.SignIn,
		"ROUTE_COMPANY_SIGN_IN":   c.Routes.CompanySignIn,
		"ROUTE_STUDENT_DASHBOARD": c.Routes.StudentDashboard,
		"ROUTE_COMPANY_DASHBOARD": c.Routes.CompanyDashboard,
	} {
		if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
			return fmt.Errorf("%s must be a local absolute path, got %q", key, path)
		}
	}

	return nil
}

// ParseProbeOrder parses a comma separated list of account kinds.
func ParseProbeOrder(s string) ([]domain.AccountKind, error) {
	var order []domain.AccountKind
	seen := make(map[domain.AccountKind]bool)
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kind, err := domain.ParseAccountKind(part)
		if err != nil {
			return nil, fmt.Errorf("invalid PROBE_ORDER: %w", err)
		}
		if seen[kind] {
			continue
		}
		seen[kind] = true
		order = append(order, kind)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("PROBE_ORDER cannot be empty")
	}
	return order, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %w", key, err)
	}
	return n, nil
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
