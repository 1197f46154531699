package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/everydev1618/vegadock/tools"
)

// Audit returns a middleware that records every call in s. A failed insert
// is logged and never fails the call.
func Audit(s Store) tools.ToolMiddleware {
	return func(name string, next tools.ToolFunc) tools.ToolFunc {
		return func(ctx context.Context, params map[string]any) (string, error) {
			start := time.Now()
			out, err := next(ctx, params)

			c := Call{
				ID:         uuid.NewString(),
				Tool:       name,
				Args:       encodeArgs(params),
				Result:     out,
				DurationMS: time.Since(start).Milliseconds(),
				CreatedAt:  start,
			}
			if err != nil {
				c.Result = err.Error()
				c.IsError = true
			}
			if insertErr := s.InsertCall(c); insertErr != nil {
				slog.Warn("failed to record tool call", "tool", name, "error", insertErr)
			}
			return out, err
		}
	}
}

func encodeArgs(params map[string]any) string {
	if len(params) == 0 {
		return "{}"
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "{}"
	}
	return string(data)
}
