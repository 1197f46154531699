package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// Validate checks all config values. It returns nil if valid, or joined
// errors for every failure.
func (c *Config) Validate() error {
	var errs []error

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, &ValidationError{
			Field:   "log_level",
			Value:   c.LogLevel,
			Message: "must be one of debug, info, warn, error",
		})
	}

	if c.StagingDir == "" {
		errs = append(errs, &ValidationError{
			Field:   "staging_dir",
			Value:   c.StagingDir,
			Message: "must not be empty",
		})
	}

	if c.Audit && c.DBPath == "" {
		errs = append(errs, &ValidationError{
			Field:   "db_path",
			Value:   c.DBPath,
			Message: "must be set when audit is enabled",
		})
	}

	if c.HTTPAddr == "" {
		errs = append(errs, &ValidationError{
			Field:   "http_addr",
			Value:   c.HTTPAddr,
			Message: "must not be empty",
		})
	}

	if u, err := url.Parse(c.Pip.IndexURL); err != nil || u.Host == "" ||
		(u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, &ValidationError{
			Field:   "pip.index_url",
			Value:   c.Pip.IndexURL,
			Message: "must be an absolute http(s) URL",
		})
	}

	if c.Pip.Timeout < 1 {
		errs = append(errs, &ValidationError{
			Field:   "pip.timeout",
			Value:   c.Pip.Timeout,
			Message: "must be at least 1",
		})
	}

	return errors.Join(errs...)
}

// ParseLogLevel maps a configured level name onto slog.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
