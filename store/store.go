// Package store keeps an append-only audit log of tool invocations.
package store

import "time"

// DefaultListLimit is used when a non-positive limit is requested.
const DefaultListLimit = 50

// Store persists tool invocations for historical queries.
type Store interface {
	// Init creates tables if they don't exist.
	Init() error

	// Close closes the store.
	Close() error

	// InsertCall records a tool invocation.
	InsertCall(c Call) error

	// ListCalls returns recent invocations, newest first. An empty tool
	// matches every tool.
	ListCalls(tool string, limit int) ([]Call, error)
}

// Call is one recorded tool invocation.
type Call struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	Args       string    `json:"args"`
	Result     string    `json:"result"`
	IsError    bool      `json:"is_error"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
