package config

import (
	"fmt"
	"os"
	"time"

	"github.com/JaimeStill/intake/pkg/ratelimit"
)

var submissionLimitDefaults = ratelimit.Config{
	Limit:   10,
	Window:  "1h",
	Message: "Too many submissions. Please try again later.",
}

var generalLimitDefaults = ratelimit.Config{
	Limit:   100,
	Window:  "15m",
	Message: "Too many requests. Please try again later.",
}

var submissionLimitEnv = &ratelimit.Env{
	Limit:   "INTAKE_RATE_LIMIT_SUBMISSIONS_LIMIT",
	Window:  "INTAKE_RATE_LIMIT_SUBMISSIONS_WINDOW",
	Message: "INTAKE_RATE_LIMIT_SUBMISSIONS_MESSAGE",
}

var generalLimitEnv = &ratelimit.Env{
	Limit:   "INTAKE_RATE_LIMIT_GENERAL_LIMIT",
	Window:  "INTAKE_RATE_LIMIT_GENERAL_WINDOW",
	Message: "INTAKE_RATE_LIMIT_GENERAL_MESSAGE",
}

// RateLimitConfig holds the per-client request limits. Submissions applies to
// the create route only; General applies to every API route.
type RateLimitConfig struct {
	Submissions   ratelimit.Config `toml:"submissions"`
	General       ratelimit.Config `toml:"general"`
	SweepInterval string           `toml:"sweep_interval"`
}

// SweepIntervalDuration returns SweepInterval as a time.Duration.
func (c *RateLimitConfig) SweepIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.SweepInterval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *RateLimitConfig) Finalize() error {
	if c.SweepInterval == "" {
		c.SweepInterval = "1h"
	}
	if v := os.Getenv("INTAKE_RATE_LIMIT_SWEEP_INTERVAL"); v != "" {
		c.SweepInterval = v
	}
	if d, err := time.ParseDuration(c.SweepInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid sweep_interval: %q", c.SweepInterval)
	}

	if err := c.Submissions.Finalize(submissionLimitEnv, submissionLimitDefaults); err != nil {
		return fmt.Errorf("submissions: %w", err)
	}
	if err := c.General.Finalize(generalLimitEnv, generalLimitDefaults); err != nil {
		return fmt.Errorf("general: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *RateLimitConfig) Merge(overlay *RateLimitConfig) {
	if overlay.SweepInterval != "" {
		c.SweepInterval = overlay.SweepInterval
	}
	c.Submissions.Merge(&overlay.Submissions)
	c.General.Merge(&overlay.General)
}
