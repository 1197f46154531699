package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/everydev1618/vegadock/container"
	"github.com/everydev1618/vegadock/internal/config"
	"github.com/everydev1618/vegadock/store"
	"github.com/everydev1618/vegadock/tools"
)

// runtime is the wired object graph shared by every command.
type runtime struct {
	cfg     *config.Config
	manager *container.Manager
	tools   *tools.Tools
	store   store.Store // nil when auditing is disabled
}

// wire builds the engine facade, the registry and the audit store. Module
// and extension load failures are logged and do not abort startup.
func (a *App) wire(ctx context.Context, cfg *config.Config) (*runtime, error) {
	opts := []container.ManagerOption{
		container.WithStagingDir(cfg.StagingDir),
		container.WithPipOptions(cfg.Pip.Options()),
	}

	var mgr *container.Manager
	if a.engine != nil {
		mgr = container.NewManager(a.engine, opts...)
	} else {
		mgr = container.Connect(ctx, cfg.DockerHost, opts...)
	}

	rt := &runtime{
		cfg:     cfg,
		manager: mgr,
		tools:   tools.NewTools(tools.WithContainer(mgr)),
	}
	rt.tools.Use(tools.LogCalls())

	if cfg.Audit {
		st, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open audit store: %w", err)
		}
		if err := st.Init(); err != nil {
			st.Close()
			return nil, fmt.Errorf("init audit store: %w", err)
		}
		rt.store = st
		rt.tools.Use(store.Audit(st))
	}

	if err := rt.tools.LoadModules(tools.DockerModule(mgr)); err != nil {
		slog.Warn("some tool modules failed to load", "error", err)
	}
	if err := rt.tools.LoadDirectory(cfg.ToolsDir); err != nil {
		slog.Warn("some extensions failed to load", "dir", cfg.ToolsDir, "error", err)
	}

	slog.Info("tools ready", "count", len(rt.tools.Names()), "docker", mgr.IsAvailable())
	return rt, nil
}

// Close releases the audit store and the engine handle.
func (rt *runtime) Close() {
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			slog.Warn("close audit store", "error", err)
		}
	}
	if err := rt.manager.Close(); err != nil {
		slog.Warn("close docker client", "error", err)
	}
}

// setup loads config, installs logging and wires the runtime.
func (a *App) setup(ctx context.Context, logOut io.Writer) (*runtime, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := setupLogging(logOut, cfg.LogLevel); err != nil {
		return nil, err
	}
	return a.wire(ctx, cfg)
}
