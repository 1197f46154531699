package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/distribution/reference"
	"github.com/docker/docker/pkg/archive"
	"github.com/google/uuid"
)

const (
	// DefaultLogTail is the number of log lines returned when none is given.
	DefaultLogTail = 50

	// InspectEnvLimit bounds the environment entries reported by Inspect.
	InspectEnvLimit = 5
)

// Action is a lifecycle verb accepted by Manager.Action.
type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
	ActionRemove  Action = "remove"
)

// Manager is the container and image facade over a single engine handle.
// A Manager without an engine answers every call with ErrNotConnected.
type Manager struct {
	engine     Engine
	stagingDir string
	pip        PipOptions
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithStagingDir sets the local directory files are copied into.
func WithStagingDir(dir string) ManagerOption {
	return func(m *Manager) {
		m.stagingDir = dir
	}
}

// WithPipOptions sets the package index used by InstallPackages.
func WithPipOptions(opts PipOptions) ManagerOption {
	return func(m *Manager) {
		m.pip = opts
	}
}

// NewManager creates a Manager over engine, which may be nil.
func NewManager(engine Engine, opts ...ManagerOption) *Manager {
	m := &Manager{
		engine:     engine,
		stagingDir: filepath.Join(os.TempDir(), "vegadock-staging"),
		pip:        DefaultPipOptions(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsAvailable returns whether an engine handle exists.
func (m *Manager) IsAvailable() bool {
	return m != nil && m.engine != nil
}

// Close releases the engine handle.
func (m *Manager) Close() error {
	if !m.IsAvailable() {
		return nil
	}
	return m.engine.Close()
}

// Ping checks that the engine answers.
func (m *Manager) Ping(ctx context.Context) error {
	if err := m.check(); err != nil {
		return err
	}
	if err := m.engine.Ping(ctx); err != nil {
		return engineErr("ping", err)
	}
	return nil
}

func (m *Manager) check() error {
	if !m.IsAvailable() {
		return ErrNotConnected
	}
	return nil
}

// resolve looks ref up on the engine. Nothing is cached between calls.
func (m *Manager) resolve(ctx context.Context, ref string) (*Details, error) {
	if ref == "" {
		return nil, invalidArg("container name is required")
	}
	d, err := m.engine.InspectContainer(ctx, ref)
	if err != nil {
		return nil, engineErr("inspect "+ref, err)
	}
	return d, nil
}

// ListContainers lists containers, including stopped ones when all is set.
func (m *Manager) ListContainers(ctx context.Context, all bool) ([]Summary, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	containers, err := m.engine.ListContainers(ctx, all)
	if err != nil {
		return nil, engineErr("list containers", err)
	}
	return containers, nil
}

// Action applies a lifecycle verb to ref and returns the resolved container.
// Remove stops the container first and ignores a failed stop, so removing an
// already stopped container succeeds.
func (m *Manager) Action(ctx context.Context, ref string, action Action) (*Details, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	switch action {
	case ActionStart, ActionStop, ActionRestart, ActionRemove:
	default:
		return nil, invalidArg("unknown action %q", action)
	}

	d, err := m.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionStart:
		err = engineErr("start "+d.Name, m.engine.StartContainer(ctx, d.ID))
	case ActionStop:
		err = engineErr("stop "+d.Name, m.engine.StopContainer(ctx, d.ID))
	case ActionRestart:
		err = engineErr("restart "+d.Name, m.engine.RestartContainer(ctx, d.ID))
	case ActionRemove:
		if stopErr := m.engine.StopContainer(ctx, d.ID); stopErr != nil {
			slog.Debug("stop before remove failed", "container", d.Name, "error", stopErr)
		}
		err = engineErr("remove "+d.Name, m.engine.RemoveContainer(ctx, d.ID))
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// RunSpec describes a container to create and start.
type RunSpec struct {
	Image   string
	Name    string
	Ports   string
	Command string
}

// Created identifies a container started by Run.
type Created struct {
	ID   string
	Name string
}

// ShortID returns the 12-character form of the container ID.
func (c *Created) ShortID() string {
	return shortID(c.ID)
}

// Run creates and starts a detached container. All input is validated before
// the engine is contacted; a container whose start fails is removed again.
func (m *Manager) Run(ctx context.Context, spec RunSpec) (*Created, error) {
	if err := m.check(); err != nil {
		return nil, err
	}

	img, err := NormalizeImage(spec.Image)
	if err != nil {
		return nil, err
	}
	ports, err := ParsePorts(spec.Ports)
	if err != nil {
		return nil, err
	}
	var cmd []string
	if spec.Command != "" {
		if cmd, err = SplitCommand(spec.Command); err != nil {
			return nil, err
		}
	}

	if err := m.ensureImage(ctx, img); err != nil {
		return nil, err
	}

	id, err := m.engine.CreateContainer(ctx, CreateSpec{
		Image: img,
		Name:  spec.Name,
		Cmd:   cmd,
		Ports: ports,
	})
	if err != nil {
		return nil, engineErr("create container", err)
	}

	if err := m.engine.StartContainer(ctx, id); err != nil {
		if rmErr := m.engine.RemoveContainer(ctx, id); rmErr != nil {
			slog.Warn("failed to remove container after failed start", "id", shortID(id), "error", rmErr)
		}
		return nil, engineErr("start container", err)
	}

	created := &Created{ID: id, Name: spec.Name}
	if d, err := m.engine.InspectContainer(ctx, id); err == nil {
		created.Name = d.Name
	}
	return created, nil
}

// ensureImage pulls img if it is not present locally.
func (m *Manager) ensureImage(ctx context.Context, img string) error {
	ok, err := m.engine.HasImage(ctx, img)
	if err != nil {
		return engineErr("inspect image "+img, err)
	}
	if ok {
		return nil
	}
	slog.Info("pulling image", "image", img)
	if err := m.engine.PullImage(ctx, img); err != nil {
		return engineErr("pull "+img, err)
	}
	return nil
}

// Inspect returns the details of ref with the environment cut to the first
// InspectEnvLimit entries.
func (m *Manager) Inspect(ctx context.Context, ref string) (*Details, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	d, err := m.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if len(d.Env) > InspectEnvLimit {
		d.Env = append([]string(nil), d.Env[:InspectEnvLimit]...)
	}
	return d, nil
}

// Logs returns the last tail lines of combined stdout and stderr.
func (m *Manager) Logs(ctx context.Context, ref string, tail int) (*Details, string, error) {
	if err := m.check(); err != nil {
		return nil, "", err
	}
	if tail <= 0 {
		tail = DefaultLogTail
	}
	d, err := m.resolve(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	logs, err := m.engine.ContainerLogs(ctx, d.ID, tail, d.Tty)
	if err != nil {
		return nil, "", engineErr("logs "+d.Name, err)
	}
	return d, logs, nil
}

// Exec runs argv inside a running container and waits for it to finish.
// No timeout is applied beyond ctx.
func (m *Manager) Exec(ctx context.Context, ref string, argv []string, workDir string) (*ExecResult, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, invalidArg("command is empty")
	}
	d, err := m.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !d.Running {
		return nil, fmt.Errorf("%w: %s", ErrNotRunning, d.Name)
	}

	slog.Debug("exec", "container", d.Name, "argv", argv, "workdir", workDir)
	res, err := m.engine.Exec(ctx, d.ID, argv, workDir)
	if err != nil {
		return nil, engineErr("exec in "+d.Name, err)
	}
	return res, nil
}

// InstallPackages pip-installs the whitespace separated requirements inside
// ref. A non-zero exit is returned as *ExecError alongside the result.
func (m *Manager) InstallPackages(ctx context.Context, ref, packages string) (*ExecResult, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	argv, err := PipInstallArgs(packages, m.pip)
	if err != nil {
		return nil, err
	}
	res, err := m.Exec(ctx, ref, argv, "")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return res, &ExecError{ExitCode: res.ExitCode, Result: res}
	}
	return res, nil
}

// CopyFrom copies srcPath out of ref into a fresh directory under the staging
// directory and returns the local path. Nothing is written when the path does
// not exist in the container.
func (m *Manager) CopyFrom(ctx context.Context, ref, srcPath string) (string, error) {
	if err := m.check(); err != nil {
		return "", err
	}
	if srcPath == "" {
		return "", invalidArg("source path is required")
	}
	d, err := m.resolve(ctx, ref)
	if err != nil {
		return "", err
	}

	rc, err := m.engine.CopyFromContainer(ctx, d.ID, srcPath)
	if err != nil {
		err = engineErr("copy from "+d.Name, err)
		if errors.Is(err, ErrNotFound) {
			return "", &PathError{Container: d.Name, Path: srcPath}
		}
		return "", err
	}
	var buf bytes.Buffer
	_, err = io.Copy(&buf, rc)
	rc.Close()
	if err != nil {
		return "", engineErr("read archive", err)
	}

	dest := filepath.Join(m.stagingDir, uuid.NewString())
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	if err := archive.Untar(&buf, dest, &archive.TarOptions{NoLchown: true}); err != nil {
		os.RemoveAll(dest)
		return "", fmt.Errorf("extract archive: %w", err)
	}

	base := path.Base(path.Clean("/" + srcPath))
	if base == "/" {
		return dest, nil
	}
	return filepath.Join(dest, base), nil
}

// ListImages lists local images.
func (m *Manager) ListImages(ctx context.Context) ([]Image, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	images, err := m.engine.ListImages(ctx)
	if err != nil {
		return nil, engineErr("list images", err)
	}
	return images, nil
}

// PullImage pulls ref and returns its normalized name.
func (m *Manager) PullImage(ctx context.Context, ref string) (string, error) {
	if err := m.check(); err != nil {
		return "", err
	}
	img, err := NormalizeImage(ref)
	if err != nil {
		return "", err
	}
	if err := m.engine.PullImage(ctx, img); err != nil {
		return "", engineErr("pull "+img, err)
	}
	return img, nil
}

// DeleteImage removes ref, forcibly if requested.
func (m *Manager) DeleteImage(ctx context.Context, ref string, force bool) error {
	if err := m.check(); err != nil {
		return err
	}
	if ref == "" {
		return invalidArg("image name is required")
	}
	return engineErr("remove image "+ref, m.engine.RemoveImage(ctx, ref, force))
}

// ResetImage pulls the latest ref and then prunes dangling images. Prune
// failures are logged and do not fail the reset.
func (m *Manager) ResetImage(ctx context.Context, ref string) (string, error) {
	img, err := m.PullImage(ctx, ref)
	if err != nil {
		return "", err
	}
	reclaimed, err := m.engine.PruneDanglingImages(ctx)
	if err != nil {
		slog.Warn("prune dangling images failed", "image", img, "error", err)
	} else {
		slog.Debug("pruned dangling images", "image", img, "reclaimed_bytes", reclaimed)
	}
	return img, nil
}

// NormalizeImage validates an image reference and returns it in familiar
// form with the default tag applied, e.g. "nginx" -> "nginx:latest".
func NormalizeImage(ref string) (string, error) {
	if ref == "" {
		return "", invalidArg("image name is required")
	}
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return "", invalidArg("image %q: %v", ref, err)
	}
	return reference.FamiliarString(reference.TagNameOnly(named)), nil
}
