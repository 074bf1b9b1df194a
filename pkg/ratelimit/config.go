package ratelimit

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the settings for a single Rule.
type Config struct {
	Limit   int    `toml:"limit"`
	Window  string `toml:"window"`
	Message string `toml:"message"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Limit   string
	Window  string
	Message string
}

// WindowDuration returns Window as a time.Duration.
func (c *Config) WindowDuration() time.Duration {
	d, _ := time.ParseDuration(c.Window)
	return d
}

// Rule converts the config into a Rule.
func (c *Config) Rule() Rule {
	return Rule{
		Limit:   c.Limit,
		Window:  c.WindowDuration(),
		Message: c.Message,
	}
}

// Finalize fills unset fields from defaults, applies environment overrides, and validates.
func (c *Config) Finalize(env *Env, defaults Config) error {
	c.loadDefaults(defaults)
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Limit != 0 {
		c.Limit = overlay.Limit
	}
	if overlay.Window != "" {
		c.Window = overlay.Window
	}
	if overlay.Message != "" {
		c.Message = overlay.Message
	}
}

func (c *Config) loadDefaults(defaults Config) {
	if c.Limit == 0 {
		c.Limit = defaults.Limit
	}
	if c.Window == "" {
		c.Window = defaults.Window
	}
	if c.Message == "" {
		c.Message = defaults.Message
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Limit != "" {
		if v := os.Getenv(env.Limit); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Limit = n
			}
		}
	}
	if env.Window != "" {
		if v := os.Getenv(env.Window); v != "" {
			c.Window = v
		}
	}
	if env.Message != "" {
		if v := os.Getenv(env.Message); v != "" {
			c.Message = v
		}
	}
}

func (c *Config) validate() error {
	if c.Limit < 1 {
		return fmt.Errorf("limit must be positive")
	}
	d, err := time.ParseDuration(c.Window)
	if err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("window must be positive")
	}
	return nil
}
