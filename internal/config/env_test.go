package config

import "testing"

func TestEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pip.TrustedHost = "stale.example.com"

	t.Setenv("VEGADOCK_DOCKER_HOST", "unix:///tmp/docker.sock")
	t.Setenv("VEGADOCK_TOOLS_DIR", "/opt/tools")
	t.Setenv("VEGADOCK_STAGING_DIR", "/opt/staging")
	t.Setenv("VEGADOCK_DB", "/opt/audit.db")
	t.Setenv("VEGADOCK_AUDIT", "false")
	t.Setenv("VEGADOCK_LOG_LEVEL", "debug")
	t.Setenv("VEGADOCK_HTTP_ADDR", ":9999")
	t.Setenv("VEGADOCK_PIP_INDEX", "https://pypi.org/simple")

	applyEnvOverrides(cfg)

	if cfg.DockerHost != "unix:///tmp/docker.sock" {
		t.Errorf("DockerHost = %q", cfg.DockerHost)
	}
	if cfg.ToolsDir != "/opt/tools" || cfg.StagingDir != "/opt/staging" || cfg.DBPath != "/opt/audit.db" {
		t.Errorf("paths = %q %q %q", cfg.ToolsDir, cfg.StagingDir, cfg.DBPath)
	}
	if cfg.Audit {
		t.Error("expected audit disabled")
	}
	if cfg.LogLevel != "debug" || cfg.HTTPAddr != ":9999" {
		t.Errorf("LogLevel = %q, HTTPAddr = %q", cfg.LogLevel, cfg.HTTPAddr)
	}
	if cfg.Pip.IndexURL != "https://pypi.org/simple" || cfg.Pip.TrustedHost != "" {
		t.Errorf("pip = %+v", cfg.Pip)
	}
}

func TestEnvOverrides_EmptyNoChange(t *testing.T) {
	cfg := DefaultConfig()
	want := *cfg
	t.Setenv("VEGADOCK_TOOLS_DIR", "")
	t.Setenv("VEGADOCK_LOG_LEVEL", "")

	applyEnvOverrides(cfg)

	if *cfg != want {
		t.Errorf("config changed: %+v", cfg)
	}
}

func TestEnvOverrides_BadAuditIgnored(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv("VEGADOCK_AUDIT", "sometimes")

	applyEnvOverrides(cfg)

	if !cfg.Audit {
		t.Error("unparseable VEGADOCK_AUDIT should leave audit enabled")
	}
}
