package config

import (
	"fmt"
	"os"
	"time"
)

// Default values for optional configuration fields.
const (
	DefaultPort           = "8080"
	DefaultSessionMaxIdle = 30 * time.Minute
	DefaultSweepInterval  = 2 * time.Minute
	DefaultSendTimeout    = 5 * time.Second
)

// Config holds the engine's runtime knobs, all overridable from the
// environment.
type Config struct {
	Port           string        // HTTP listen port (PORT)
	SessionMaxIdle time.Duration // idle session expiry (SESSION_MAX_IDLE)
	SweepInterval  time.Duration // lifecycle sweep period (SWEEP_INTERVAL)
	SendTimeout    time.Duration // per-handle broadcast send timeout (SEND_TIMEOUT)
}

// Load reads configuration from the environment, falling back to
// defaults for anything unset.
func Load() (Config, error) {
	cfg := Config{
		Port:           DefaultPort,
		SessionMaxIdle: DefaultSessionMaxIdle,
		SweepInterval:  DefaultSweepInterval,
		SendTimeout:    DefaultSendTimeout,
	}

	if p := os.Getenv("PORT"); p != "" {
		cfg.Port = p
	}

	var err error
	if cfg.SessionMaxIdle, err = durationEnv("SESSION_MAX_IDLE", cfg.SessionMaxIdle); err != nil {
		return Config{}, err
	}
	if cfg.SweepInterval, err = durationEnv("SWEEP_INTERVAL", cfg.SweepInterval); err != nil {
		return Config{}, err
	}
	if cfg.SendTimeout, err = durationEnv("SEND_TIMEOUT", cfg.SendTimeout); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", name, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %q", name, raw)
	}
	return d, nil
}
