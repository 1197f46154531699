// Package containertest provides an in-memory container engine for tests.
package containertest

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/docker/docker/errdefs"

	"github.com/everydev1618/vegadock/container"
)

// Engine is an in-memory container.Engine. Containers are matched by name,
// full ID or an ID prefix of at least three characters.
type Engine struct {
	mu         sync.Mutex
	containers map[string]*Container
	Images     []container.Image
	calls      []string
	nextID     int

	ExecResult *container.ExecResult
	LastExec   []string
	StartErr   error
	PullErr    error
	PingErr    error
	PruneErr   error
	Tail       int
}

// Container is a seeded or created container. Files maps in-container paths
// to content served by CopyFromContainer.
type Container struct {
	Details container.Details
	Ports   []container.PortBinding
	Logs    string
	Files   map[string]string
}

var _ container.Engine = (*Engine)(nil)

// NewEngine returns an empty engine.
func NewEngine() *Engine {
	return &Engine{containers: make(map[string]*Container)}
}

// AddContainer seeds a container and returns it.
func (f *Engine) AddContainer(name string, status container.Status, env ...string) *Container {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("%064x", f.nextID)
	c := &Container{
		Details: container.Details{
			ID:      id,
			Name:    name,
			Image:   "busybox:latest",
			Status:  status,
			Running: status == container.StatusRunning,
			Created: "2024-01-01T00:00:00Z",
			Env:     env,
		},
		Files: make(map[string]string),
	}
	f.containers[id] = c
	return c
}

func (f *Engine) record(call string) {
	f.calls = append(f.calls, call)
}

// Called returns how many times the named engine call was made.
func (f *Engine) Called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *Engine) find(ref string) (*Container, error) {
	for id, c := range f.containers {
		if c.Details.Name == ref || id == ref || (len(ref) >= 3 && strings.HasPrefix(id, ref)) {
			return c, nil
		}
	}
	return nil, errdefs.NotFound(fmt.Errorf("No such container: %s", ref))
}

func (f *Engine) Ping(ctx context.Context) error { return f.PingErr }
func (f *Engine) Close() error                   { return nil }

// AddImage seeds a local image tagged ref.
func (f *Engine) AddImage(ref string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addImage(ref)
}

func (f *Engine) addImage(ref string) {
	if !f.hasImage(ref) {
		f.Images = append(f.Images, container.Image{ID: "sha256:" + ref, Tags: []string{ref}, Size: 1 << 20})
	}
}

func (f *Engine) hasImage(ref string) bool {
	for _, img := range f.Images {
		for _, tag := range img.Tags {
			if tag == ref {
				return true
			}
		}
	}
	return false
}

func (f *Engine) ListContainers(ctx context.Context, all bool) ([]container.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list")
	var out []container.Summary
	for _, c := range f.containers {
		if !all && !c.Details.Running {
			continue
		}
		out = append(out, container.Summary{
			ID:     c.Details.ID,
			Name:   c.Details.Name,
			Status: c.Details.Status,
			Image:  c.Details.Image,
			Ports:  c.Ports,
		})
	}
	return out, nil
}

func (f *Engine) InspectContainer(ctx context.Context, ref string) (*container.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("inspect")
	c, err := f.find(ref)
	if err != nil {
		return nil, err
	}
	d := c.Details
	d.Env = append([]string(nil), c.Details.Env...)
	return &d, nil
}

func (f *Engine) CreateContainer(ctx context.Context, spec container.CreateSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create")
	if !f.hasImage(spec.Image) {
		return "", errdefs.NotFound(fmt.Errorf("No such image: %s", spec.Image))
	}
	if spec.Name != "" {
		if _, err := f.find(spec.Name); err == nil {
			return "", errdefs.Conflict(fmt.Errorf("container name %q is already in use", spec.Name))
		}
	}
	f.nextID++
	id := fmt.Sprintf("%064x", f.nextID)
	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("generated_%d", f.nextID)
	}
	c := &Container{
		Details: container.Details{ID: id, Name: name, Image: spec.Image, Status: container.StatusCreated},
		Files:   make(map[string]string),
	}
	for port, bindings := range spec.Ports {
		for _, b := range bindings {
			c.Ports = append(c.Ports, container.PortBinding{ContainerPort: port, HostIP: b.HostIP, HostPort: b.HostPort})
		}
	}
	f.containers[id] = c
	return id, nil
}

func (f *Engine) StartContainer(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("start")
	if f.StartErr != nil {
		return f.StartErr
	}
	c, err := f.find(id)
	if err != nil {
		return err
	}
	c.Details.Status, c.Details.Running = container.StatusRunning, true
	return nil
}

func (f *Engine) StopContainer(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("stop")
	c, err := f.find(id)
	if err != nil {
		return err
	}
	c.Details.Status, c.Details.Running = container.StatusExited, false
	return nil
}

func (f *Engine) RestartContainer(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("restart")
	c, err := f.find(id)
	if err != nil {
		return err
	}
	c.Details.Status, c.Details.Running = container.StatusRunning, true
	return nil
}

func (f *Engine) RemoveContainer(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("remove")
	c, err := f.find(id)
	if err != nil {
		return err
	}
	if c.Details.Running {
		return errdefs.Conflict(fmt.Errorf("cannot remove running container %s", c.Details.Name))
	}
	delete(f.containers, c.Details.ID)
	return nil
}

func (f *Engine) ContainerLogs(ctx context.Context, id string, tail int, tty bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("logs")
	f.Tail = tail
	c, err := f.find(id)
	if err != nil {
		return "", err
	}
	return c.Logs, nil
}

func (f *Engine) Exec(ctx context.Context, id string, argv []string, workDir string) (*container.ExecResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("exec")
	f.LastExec = argv
	if f.ExecResult != nil {
		return f.ExecResult, nil
	}
	return &container.ExecResult{Stdout: []byte(strings.Join(argv[1:], " ") + "\n")}, nil
}

func (f *Engine) CopyFromContainer(ctx context.Context, id, srcPath string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("copy")
	c, err := f.find(id)
	if err != nil {
		return nil, err
	}
	content, ok := c.Files[srcPath]
	if !ok {
		return nil, errdefs.NotFound(fmt.Errorf("Could not find the file %s in container %s", srcPath, c.Details.Name))
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{
		Name:     path.Base(srcPath),
		Mode:     0o644,
		Size:     int64(len(content)),
		Typeflag: tar.TypeReg,
	}); err != nil {
		return nil, err
	}
	if _, err := tw.Write([]byte(content)); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return io.NopCloser(&buf), nil
}

func (f *Engine) HasImage(ctx context.Context, ref string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("image")
	return f.hasImage(ref), nil
}

func (f *Engine) ListImages(ctx context.Context) ([]container.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("images")
	return f.Images, nil
}

func (f *Engine) PullImage(ctx context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("pull")
	if f.PullErr != nil {
		return f.PullErr
	}
	f.addImage(ref)
	return nil
}

func (f *Engine) RemoveImage(ctx context.Context, ref string, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("rmi")
	for i, img := range f.Images {
		for _, tag := range img.Tags {
			if tag == ref {
				f.Images = append(f.Images[:i], f.Images[i+1:]...)
				return nil
			}
		}
	}
	return errdefs.NotFound(fmt.Errorf("No such image: %s", ref))
}

func (f *Engine) PruneDanglingImages(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("prune")
	return 0, f.PruneErr
}
