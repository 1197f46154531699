package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/everydev1618/vegadock/container"
	"github.com/everydev1618/vegadock/internal/config"
)

// App represents the CLI application with all wired dependencies.
type App struct {
	rootCmd *cobra.Command

	// Persistent flags
	configPath string
	toolsDir   string
	logLevel   string
	noAudit    bool

	// engine replaces the Docker connection when set.
	engine container.Engine

	versionInfo VersionInfo
}

// VersionInfo holds build metadata.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// New creates a new CLI application.
func New() *App {
	app := &App{}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion sets the version string for the version command.
func (a *App) SetVersion(version, commit, date string) {
	a.versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
}

func (a *App) setupRootCmd() {
	serveCmd := NewServeCmd(a)

	a.rootCmd = &cobra.Command{
		Use:   "vegadock",
		Short: "Docker tools for MCP and HTTP clients",
		Long: `vegadock publishes Docker container and image operations as tools.
Hosts call them over MCP on stdio (the default) or over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}

	pf := a.rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default ~/.vegadock/config.yaml)")
	pf.StringVar(&a.toolsDir, "tools-dir", "", "Extension manifest directory")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&a.noAudit, "no-audit", false, "Do not record tool calls")

	a.rootCmd.AddCommand(
		serveCmd,
		NewHTTPCmd(a),
		NewToolsCmd(a),
		NewCallCmd(a),
		NewVersionCmd(a),
	)
}

// loadConfig reads the config file and applies persistent flag overrides.
func (a *App) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.toolsDir != "" {
		cfg.ToolsDir = a.toolsDir
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.noAudit {
		cfg.Audit = false
	}
	return cfg, cfg.Validate()
}

// setupLogging installs a text handler on w. stdout is reserved for the
// MCP transport, so callers pass stderr.
func setupLogging(w io.Writer, level string) error {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}
