package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/JaimeStill/intake/internal/submissions"
	"github.com/JaimeStill/intake/pkg/formatting"
)

// DefaultAllowedTypes are the attachment content types accepted out of the box:
// PDF, Word, Excel, JPEG, and PNG.
var DefaultAllowedTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"image/jpeg",
	"image/jpg",
	"image/png",
}

// UploadConfig bounds the attachments a single submission may carry.
type UploadConfig struct {
	MaxFiles     int      `toml:"max_files"`
	MaxFileSize  string   `toml:"max_file_size"`
	AllowedTypes []string `toml:"allowed_types"`
	Concurrency  int      `toml:"concurrency"`
}

// MaxFileSizeBytes returns MaxFileSize in bytes.
func (c *UploadConfig) MaxFileSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxFileSize)
	if err != nil {
		return 10 * 1024 * 1024
	}
	return size
}

// Limits converts the config into the limits enforced on create.
func (c *UploadConfig) Limits() submissions.UploadLimits {
	return submissions.UploadLimits{
		MaxFiles:     c.MaxFiles,
		MaxFileSize:  c.MaxFileSizeBytes(),
		AllowedTypes: c.AllowedTypes,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *UploadConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *UploadConfig) Merge(overlay *UploadConfig) {
	if overlay.MaxFiles != 0 {
		c.MaxFiles = overlay.MaxFiles
	}
	if overlay.MaxFileSize != "" {
		c.MaxFileSize = overlay.MaxFileSize
	}
	if len(overlay.AllowedTypes) > 0 {
		c.AllowedTypes = overlay.AllowedTypes
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
}

func (c *UploadConfig) loadDefaults() {
	if c.MaxFiles == 0 {
		c.MaxFiles = 10
	}
	if c.MaxFileSize == "" {
		c.MaxFileSize = "10MB"
	}
	if len(c.AllowedTypes) == 0 {
		c.AllowedTypes = append([]string(nil), DefaultAllowedTypes...)
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
}

func (c *UploadConfig) loadEnv() {
	if v := os.Getenv("INTAKE_UPLOAD_MAX_FILES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxFiles = n
		}
	}
	if v := os.Getenv("INTAKE_UPLOAD_MAX_FILE_SIZE"); v != "" {
		c.MaxFileSize = v
	}
	if v := os.Getenv("INTAKE_UPLOAD_ALLOWED_TYPES"); v != "" {
		var types []string
		for t := range strings.SplitSeq(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
		c.AllowedTypes = types
	}
	if v := os.Getenv("INTAKE_UPLOAD_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency = n
		}
	}
}

func (c *UploadConfig) validate() error {
	if c.MaxFiles < 1 {
		return fmt.Errorf("max_files must be positive")
	}
	size, err := formatting.ParseBytes(c.MaxFileSize)
	if err != nil {
		return fmt.Errorf("invalid max_file_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}
	if len(c.AllowedTypes) == 0 {
		return fmt.Errorf("allowed_types required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive")
	}
	return nil
}
