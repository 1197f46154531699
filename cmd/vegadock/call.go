package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewCallCmd creates the command that invokes one tool from the shell.
func NewCallCmd(app *App) *cobra.Command {
	var rawArgs string

	cmd := &cobra.Command{
		Use:   "call <tool> [key=value...]",
		Short: "Invoke a tool and print its text result",
		Long: `Call invokes a single tool. Each key=value pair becomes an argument;
numbers and booleans keep their type, everything else is passed as a
string.`,
		Example: `  vegadock call docker_list_containers all=false
  vegadock call docker_run_container image=nginx:latest name=web1 "ports={'80/tcp': 8080}"
  vegadock call docker_exec_run --args '{"container_name":"web1","command":"ls /"}'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseCallArgs(rawArgs, args[1:])
			if err != nil {
				return err
			}

			rt, err := app.setup(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.tools.Invoke(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			if res.IsError {
				return fmt.Errorf("tool %s failed", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rawArgs, "args", "", "Arguments as one JSON object")
	return cmd
}

// parseCallArgs merges a JSON object with key=value pairs; pairs win.
func parseCallArgs(raw string, pairs []string) (map[string]any, error) {
	params := map[string]any{}
	if raw != "" {
		if err := decodeJSON(raw, &params); err != nil {
			return nil, fmt.Errorf("--args must be a JSON object: %w", err)
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", pair)
		}
		params[key] = scalarValue(value)
	}
	return params, nil
}

// scalarValue returns value as a JSON number or bool when it parses as
// one, otherwise the raw string.
func scalarValue(value string) any {
	var v any
	if err := decodeJSON(value, &v); err != nil {
		return value
	}
	switch v.(type) {
	case json.Number, bool:
		return v
	}
	return value
}

// decodeJSON keeps numbers as json.Number so large integers survive.
func decodeJSON(s string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}
