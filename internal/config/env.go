package config

import (
	"os"
	"strconv"
)

// envOverrides maps environment variables to config field setters.
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "VEGADOCK_DOCKER_HOST",
		apply: func(c *Config, v string) {
			c.DockerHost = v
		},
	},
	{
		envVar: "VEGADOCK_TOOLS_DIR",
		apply: func(c *Config, v string) {
			c.ToolsDir = v
		},
	},
	{
		envVar: "VEGADOCK_STAGING_DIR",
		apply: func(c *Config, v string) {
			c.StagingDir = v
		},
	},
	{
		envVar: "VEGADOCK_DB",
		apply: func(c *Config, v string) {
			c.DBPath = v
		},
	},
	{
		envVar: "VEGADOCK_AUDIT",
		apply: func(c *Config, v string) {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Audit = b
			}
		},
	},
	{
		envVar: "VEGADOCK_LOG_LEVEL",
		apply: func(c *Config, v string) {
			c.LogLevel = v
		},
	},
	{
		envVar: "VEGADOCK_HTTP_ADDR",
		apply: func(c *Config, v string) {
			c.HTTPAddr = v
		},
	},
	{
		envVar: "VEGADOCK_PIP_INDEX",
		apply: func(c *Config, v string) {
			c.Pip.IndexURL = v
			c.Pip.TrustedHost = ""
		},
	},
}

// applyEnvOverrides modifies config in place with environment variable values.
func applyEnvOverrides(cfg *Config) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}
