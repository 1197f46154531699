package vegadock

import (
	"os"
	"path/filepath"
)

// Home returns the vegadock home directory.
// It defaults to ~/.vegadock but can be overridden with the VEGADOCK_HOME environment variable.
func Home() string {
	if v := os.Getenv("VEGADOCK_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vegadock")
}

// DefaultDBPath returns the default SQLite audit database path (~/.vegadock/vegadock.db).
func DefaultDBPath() string {
	return filepath.Join(Home(), "vegadock.db")
}

// StagingPath returns the directory files copied out of containers land in.
func StagingPath() string {
	return filepath.Join(Home(), "staging")
}

// ToolsPath returns the default extension manifest directory.
func ToolsPath() string {
	return filepath.Join(Home(), "tools")
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(Home(), "config.yaml")
}
