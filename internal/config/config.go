// Package config loads the portal client configuration from a dotenv file
// and the process environment. Environment variables win over the file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults mirror the development setup of the portal backend.
const (
	DefaultAPIBaseURL     = "http://localhost:8080"
	DefaultRequestTimeout = 10 * time.Second

	// Post-success redirect delays are display affordances, not retry or
	// confirmation mechanisms. The login delay is shorter than the
	// recovery/change delay because there is no message worth reading.
	DefaultLoginRedirectDelay   = 600 * time.Millisecond
	DefaultSuccessRedirectDelay = 1200 * time.Millisecond
)

// Routes names the navigation targets the orchestration core redirects to.
// The front-end decides what each route renders.
type Routes struct {
	Landing   string // authenticated landing page
	Login     string // login entry point
	Forgot    string // password-recovery overlay entry
	Reset     string // reset-token consumption page
	Register  string // public registration form
	Dashboard string // alias kept distinct from Landing for future splits
}

// Config is the resolved client configuration.
type Config struct {
	APIBaseURL           string
	RequestTimeout       time.Duration
	LoginRedirectDelay   time.Duration
	SuccessRedirectDelay time.Duration
	LogLevel             string
	Routes               Routes
}

// DefaultRoutes returns the route table used by the portal front-end.
func DefaultRoutes() Routes {
	return Routes{
		Landing:   "/dashboard",
		Login:     "/login",
		Forgot:    "/forgot",
		Reset:     "/reset",
		Register:  "/register",
		Dashboard: "/dashboard",
	}
}

// Load reads envPath (when it exists) and the process environment into a
// Config. A missing dotenv file is not an error; a malformed one is.
func Load(envPath string) (Config, error) {
	k := koanf.New(".")

	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := k.Load(file.Provider(envPath), dotenv.Parser()); err != nil {
				return Config{}, fmt.Errorf("loading %s: %w", envPath, err)
			}
		}
	}
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	cfg := Config{
		APIBaseURL:           DefaultAPIBaseURL,
		RequestTimeout:       DefaultRequestTimeout,
		LoginRedirectDelay:   DefaultLoginRedirectDelay,
		SuccessRedirectDelay: DefaultSuccessRedirectDelay,
		LogLevel:             k.String("LOG_LEVEL"),
		Routes:               DefaultRoutes(),
	}

	if v := k.String("PORTAL_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	var err error
	if cfg.RequestTimeout, err = duration(k, "PORTAL_TIMEOUT", cfg.RequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.LoginRedirectDelay, err = duration(k, "PORTAL_LOGIN_REDIRECT_DELAY", cfg.LoginRedirectDelay); err != nil {
		return Config{}, err
	}
	if cfg.SuccessRedirectDelay, err = duration(k, "PORTAL_REDIRECT_DELAY", cfg.SuccessRedirectDelay); err != nil {
		return Config{}, err
	}

	if err := Validate(&cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func duration(k *koanf.Koanf, key string, def time.Duration) (time.Duration, error) {
	v := k.String(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}

// Validate checks the invariants the rest of the client relies on.
func Validate(cfg *Config) error {
	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid API base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API base URL must be http or https, got %q", cfg.APIBaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("API base URL missing host: %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", cfg.RequestTimeout)
	}
	if cfg.LoginRedirectDelay < 0 || cfg.SuccessRedirectDelay < 0 {
		return fmt.Errorf("redirect delays must not be negative")
	}
	return nil
}
