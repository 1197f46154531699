package vegadock

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHome_Override(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VEGADOCK_HOME", dir)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"home", Home(), dir},
		{"db", DefaultDBPath(), filepath.Join(dir, "vegadock.db")},
		{"staging", StagingPath(), filepath.Join(dir, "staging")},
		{"tools", ToolsPath(), filepath.Join(dir, "tools")},
		{"config", ConfigPath(), filepath.Join(dir, "config.yaml")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}

	// Resolving paths must not touch the filesystem.
	if _, err := os.Stat(StagingPath()); !os.IsNotExist(err) {
		t.Errorf("staging dir created as a side effect: %v", err)
	}
}

func TestHome_Default(t *testing.T) {
	t.Setenv("VEGADOCK_HOME", "")
	userHome, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no user home directory")
	}
	if got, want := Home(), filepath.Join(userHome, ".vegadock"); got != want {
		t.Errorf("Home() = %q, want %q", got, want)
	}
}
