package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) version() string {
	if a.versionInfo.Version == "" {
		return "dev"
	}
	return a.versionInfo.Version
}

// NewVersionCmd creates the version command.
func NewVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			commit := app.versionInfo.Commit
			date := app.versionInfo.Date
			if commit == "" {
				commit = "unknown"
			}
			if date == "" {
				date = "unknown"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "vegadock version %s\n", app.version())
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "built: %s\n", date)
			return nil
		},
	}
}
