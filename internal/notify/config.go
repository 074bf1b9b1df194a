package notify

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// TLS policies accepted by Config.TLSPolicy.
const (
	TLSOpportunistic = "opportunistic"
	TLSMandatory     = "mandatory"
	TLSImplicit      = "ssl"
	TLSNone          = "none"
)

// Config holds SMTP delivery settings. An empty Host disables delivery and
// notifications are logged instead.
type Config struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	From         string `toml:"from"`
	FromName     string `toml:"from_name"`
	AdminName    string `toml:"admin_name"`
	AdminEmail   string `toml:"admin_email"`
	Organization string `toml:"organization"`
	TLSPolicy    string `toml:"tls_policy"`
	Timeout      string `toml:"timeout"`

	Contact Contact `toml:"contact"`
}

// Contact is the organization contact block rendered in submitter emails.
type Contact struct {
	Address string `toml:"address"`
	Phone   string `toml:"phone"`
	Email   string `toml:"email"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Host         string
	Port         string
	Username     string
	Password     string
	From         string
	FromName     string
	AdminName    string
	AdminEmail   string
	Organization string
	TLSPolicy    string
	Timeout      string
}

// Enabled reports whether an SMTP host is configured.
func (c *Config) Enabled() bool {
	return c.Host != ""
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.Username != "" {
		c.Username = overlay.Username
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.From != "" {
		c.From = overlay.From
	}
	if overlay.FromName != "" {
		c.FromName = overlay.FromName
	}
	if overlay.AdminName != "" {
		c.AdminName = overlay.AdminName
	}
	if overlay.AdminEmail != "" {
		c.AdminEmail = overlay.AdminEmail
	}
	if overlay.Organization != "" {
		c.Organization = overlay.Organization
	}
	if overlay.TLSPolicy != "" {
		c.TLSPolicy = overlay.TLSPolicy
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.Contact.Address != "" {
		c.Contact.Address = overlay.Contact.Address
	}
	if overlay.Contact.Phone != "" {
		c.Contact.Phone = overlay.Contact.Phone
	}
	if overlay.Contact.Email != "" {
		c.Contact.Email = overlay.Contact.Email
	}
}

func (c *Config) loadDefaults() {
	if c.Port == 0 {
		c.Port = 587
	}
	if c.FromName == "" {
		c.FromName = "NTCOG Kenya"
	}
	if c.AdminName == "" {
		c.AdminName = "NTCOG Submissions"
	}
	if c.AdminEmail == "" {
		c.AdminEmail = "info@ntcogk.org"
	}
	if c.Organization == "" {
		c.Organization = "NTCOG Kenya"
	}
	if c.TLSPolicy == "" {
		c.TLSPolicy = TLSOpportunistic
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.Contact.Address == "" {
		c.Contact.Address = "P.O. Box 75, 00502 Karen, Nairobi, Kenya"
	}
	if c.Contact.Phone == "" {
		c.Contact.Phone = "+254 759 120 222"
	}
	if c.Contact.Email == "" {
		c.Contact.Email = c.AdminEmail
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Host != "" {
		if v := os.Getenv(env.Host); v != "" {
			c.Host = v
		}
	}
	if env.Port != "" {
		if v := os.Getenv(env.Port); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				c.Port = port
			}
		}
	}
	if env.Username != "" {
		if v := os.Getenv(env.Username); v != "" {
			c.Username = v
		}
	}
	if env.Password != "" {
		if v := os.Getenv(env.Password); v != "" {
			c.Password = v
		}
	}
	if env.From != "" {
		if v := os.Getenv(env.From); v != "" {
			c.From = v
		}
	}
	if env.FromName != "" {
		if v := os.Getenv(env.FromName); v != "" {
			c.FromName = v
		}
	}
	if env.AdminName != "" {
		if v := os.Getenv(env.AdminName); v != "" {
			c.AdminName = v
		}
	}
	if env.AdminEmail != "" {
		if v := os.Getenv(env.AdminEmail); v != "" {
			c.AdminEmail = v
		}
	}
	if env.Organization != "" {
		if v := os.Getenv(env.Organization); v != "" {
			c.Organization = v
		}
	}
	if env.TLSPolicy != "" {
		if v := os.Getenv(env.TLSPolicy); v != "" {
			c.TLSPolicy = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.From == "" {
		c.From = c.Username
	}
	if c.Enabled() && c.From == "" {
		return fmt.Errorf("from address required when host is set")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	switch c.TLSPolicy {
	case TLSOpportunistic, TLSMandatory, TLSImplicit, TLSNone:
	default:
		return fmt.Errorf("unsupported tls_policy: %s", c.TLSPolicy)
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
