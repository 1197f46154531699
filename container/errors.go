package container

import (
	"errors"
	"fmt"

	"github.com/docker/docker/errdefs"
)

// Standard errors
var (
	// ErrNotConnected is returned by every operation when no engine handle exists.
	ErrNotConnected = errors.New("docker not available")

	// ErrNotFound is returned when a container, image or path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for malformed input, before any engine call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotRunning is returned by Exec when the target container is not running.
	ErrNotRunning = errors.New("container not running")
)

// EngineError wraps a failure reported by the container engine.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is lets engine not-found failures match ErrNotFound.
func (e *EngineError) Is(target error) bool {
	return target == ErrNotFound && errdefs.IsNotFound(e.Err)
}

// ExecError reports a command that ran but exited non-zero.
type ExecError struct {
	ExitCode int
	Result   *ExecResult
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.ExitCode)
}

func engineErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Op: op, Err: err}
}

func invalidArg(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// PathError reports a path that does not exist inside a container.
type PathError struct {
	Container string
	Path      string
}

func (e *PathError) Error() string {
	return e.Path + " not found in container " + e.Container
}

// Is matches ErrNotFound.
func (e *PathError) Is(target error) bool {
	return target == ErrNotFound
}
