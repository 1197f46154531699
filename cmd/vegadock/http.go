package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/everydev1618/vegadock/serve"
)

// NewHTTPCmd creates the HTTP dispatcher command.
func NewHTTPCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve tools and the audit log over HTTP",
		Example: `  vegadock http
  vegadock http --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := app.setup(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if addr == "" {
				addr = rt.cfg.HTTPAddr
			}
			srv := serve.New(rt.tools, rt.store, serve.Config{
				Addr:       addr,
				DockerPing: rt.manager.Ping,
			})
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config, :8080)")
	return cmd
}
