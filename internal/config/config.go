package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"todovault/internal/kv"
	"todovault/internal/ratelimit"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultDatabaseDSN = "todovault.db"
	defaultJWTSecret   = "change-me-jwt-secret"
	defaultSessionTTL  = "24h"
	defaultRedisAddr   = "localhost:6379"

	defaultLoginMaxAttempts    = 5
	defaultLoginWindow         = "60s"
	defaultLoginBlock          = "900s"
	defaultRegisterMaxAttempts = 3
	defaultRegisterWindow      = "60s"
	defaultRegisterBlock       = "1800s"
	defaultAPIMaxAttempts      = 100
	defaultAPIWindow           = "60s"
	defaultAPIBlock            = "60s"
)

// Config is read once at startup and passed by value into the components
// that need it. Nothing reads the environment at request time.
type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseDSN string

	JWTSecret  string
	SessionTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AllowedOrigins []string
	RateLimits     map[string]ratelimit.Policy
}

func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = getEnv("HTTP_ADDR", defaultHTTPAddr)
	cfg.DatabaseDSN = getEnv("DATABASE_URL", defaultDatabaseDSN)
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))

	var err error
	cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", defaultSessionTTL)
	if err != nil {
		return nil, err
	}

	cfg.RedisAddr = getEnv("REDIS_ADDR", defaultRedisAddr)
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cfg.AllowedOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	cfg.RateLimits, err = loadRateLimits()
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRateLimits() (map[string]ratelimit.Policy, error) {
	policies := make(map[string]ratelimit.Policy, 3)

	specs := []struct {
		action      string
		prefix      string
		maxAttempts int
		window      string
		block       string
	}{
		{ratelimit.ActionLogin, "RATE_LIMIT_LOGIN", defaultLoginMaxAttempts, defaultLoginWindow, defaultLoginBlock},
		{ratelimit.ActionRegister, "RATE_LIMIT_REGISTER", defaultRegisterMaxAttempts, defaultRegisterWindow, defaultRegisterBlock},
		{ratelimit.ActionAPI, "RATE_LIMIT_API", defaultAPIMaxAttempts, defaultAPIWindow, defaultAPIBlock},
	}

	for _, s := range specs {
		maxAttempts, err := parseIntEnv(s.prefix+"_MAX_ATTEMPTS", s.maxAttempts)
		if err != nil {
			return nil, err
		}
		window, err := parseDurationEnv(s.prefix+"_WINDOW", s.window)
		if err != nil {
			return nil, err
		}
		block, err := parseDurationEnv(s.prefix+"_BLOCK", s.block)
		if err != nil {
			return nil, err
		}
		policies[s.action] = ratelimit.Policy{
			MaxAttempts:   maxAttempts,
			Window:        window,
			BlockDuration: block,
		}
	}
	return policies, nil
}

func validateConfig(cfg *Config) error {
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	// The store refuses expirations below its minimum TTL; a session shorter
	// than that could never be persisted correctly.
	if cfg.SessionTTL < kv.MinTTL {
		return fmt.Errorf("session configuration error: SESSION_TTL %s is below the store minimum %s", cfg.SessionTTL, kv.MinTTL)
	}

	for action, p := range cfg.RateLimits {
		if p.MaxAttempts <= 0 {
			return fmt.Errorf("rate limit for %q: max attempts must be > 0", action)
		}
		if p.Window <= 0 || p.BlockDuration <= 0 {
			return fmt.Errorf("rate limit for %q: window and block duration must be > 0", action)
		}
	}

	if isProdLike(cfg.AppEnv) {
		if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
