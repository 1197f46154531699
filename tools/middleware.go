package tools

import (
	"context"
	"log/slog"
	"time"
)

// LogCalls logs every call at debug level with its duration.
func LogCalls() ToolMiddleware {
	return func(name string, next ToolFunc) ToolFunc {
		return func(ctx context.Context, params map[string]any) (string, error) {
			start := time.Now()
			out, err := next(ctx, params)
			if err != nil {
				slog.Debug("tool call failed", "tool", name, "duration", time.Since(start), "error", err)
			} else {
				slog.Debug("tool call", "tool", name, "duration", time.Since(start), "bytes", len(out))
			}
			return out, err
		}
	}
}
