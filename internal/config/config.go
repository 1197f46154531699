// Package config loads vegadock configuration from YAML with environment
// overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/everydev1618/vegadock"
	"github.com/everydev1618/vegadock/container"
)

const (
	DefaultLogLevel    = "info"
	DefaultHTTPAddr    = ":8080"
	DefaultPipIndexURL = "https://pypi.tuna.tsinghua.edu.cn/simple"
	DefaultPipTimeout  = 100
)

// Config is the complete vegadock configuration.
type Config struct {
	// DockerHost overrides DOCKER_HOST and the well-known socket probes.
	DockerHost string `yaml:"docker_host"`

	// ToolsDir holds extension manifests.
	ToolsDir string `yaml:"tools_dir"`

	// StagingDir receives files copied out of containers.
	StagingDir string `yaml:"staging_dir"`

	// DBPath is the SQLite audit database.
	DBPath string `yaml:"db_path"`

	// Audit records every tool call in DBPath.
	Audit bool `yaml:"audit"`

	LogLevel string `yaml:"log_level"`

	// HTTPAddr is the listen address for `vegadock http`.
	HTTPAddr string `yaml:"http_addr"`

	Pip PipConfig `yaml:"pip"`
}

// PipConfig configures the package installer used by docker_pip_install.
type PipConfig struct {
	IndexURL string `yaml:"index_url"`

	// TrustedHost defaults to the host of IndexURL.
	TrustedHost string `yaml:"trusted_host,omitempty"`

	// Timeout is the per-request socket timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// Options converts the pip section into installer options.
func (p PipConfig) Options() container.PipOptions {
	return container.PipOptions{
		IndexURL:    p.IndexURL,
		TrustedHost: p.TrustedHost,
		Timeout:     p.Timeout,
	}
}

// DefaultConfig returns a Config with all default values applied.
func DefaultConfig() *Config {
	return &Config{
		ToolsDir:   vegadock.ToolsPath(),
		StagingDir: vegadock.StagingPath(),
		DBPath:     vegadock.DefaultDBPath(),
		Audit:      true,
		LogLevel:   DefaultLogLevel,
		HTTPAddr:   DefaultHTTPAddr,
		Pip: PipConfig{
			IndexURL: DefaultPipIndexURL,
			Timeout:  DefaultPipTimeout,
		},
	}
}

// Load reads the config file at path on top of the defaults, applies
// environment overrides and validates the result. An empty path means
// ~/.vegadock/config.yaml. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = vegadock.ConfigPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
