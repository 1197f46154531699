package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/everydev1618/vegadock/mcp"
)

// NewServeCmd creates the stdio MCP command.
func NewServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve tools over MCP on stdin/stdout",
		Long: `Serve reads newline-delimited JSON-RPC 2.0 from stdin and writes
responses to stdout. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := app.setup(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			srv := mcp.NewServer("vegadock", app.version(), rt.tools)
			err = srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
