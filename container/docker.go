package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
)

// DefaultStopTimeout is the grace period, in seconds, given to stop and restart.
const DefaultStopTimeout = 10

// DockerEngine implements Engine using the Docker SDK.
type DockerEngine struct {
	client      *client.Client
	stopTimeout int
}

// NewDockerEngine connects to the Docker daemon. An explicit host is tried
// first, then the environment (DOCKER_HOST, etc.), then the usual socket paths.
func NewDockerEngine(ctx context.Context, host string) (*DockerEngine, error) {
	cli, err := createDockerClient(ctx, host)
	if err != nil {
		return nil, err
	}
	return &DockerEngine{client: cli, stopTimeout: DefaultStopTimeout}, nil
}

// Connect builds a Manager over a Docker engine. If the daemon cannot be
// reached the Manager is returned without a handle and every operation
// reports ErrNotConnected.
func Connect(ctx context.Context, host string, opts ...ManagerOption) *Manager {
	eng, err := NewDockerEngine(ctx, host)
	if err != nil {
		slog.Warn("docker unavailable, container tools will report not connected", "error", err)
		return NewManager(nil, opts...)
	}
	return NewManager(eng, opts...)
}

// createDockerClient creates a Docker client, trying multiple socket locations
// for compatibility with Docker Desktop and Colima.
func createDockerClient(ctx context.Context, host string) (*client.Client, error) {
	var attempts [][]client.Opt
	if host != "" {
		attempts = append(attempts, []client.Opt{client.WithHost(host), client.WithAPIVersionNegotiation()})
	}
	attempts = append(attempts, []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()})

	home := os.Getenv("HOME")
	for _, socketPath := range []string{
		"unix://" + home + "/.docker/run/docker.sock", // Docker Desktop macOS
		"unix:///var/run/docker.sock",                 // Linux default
		"unix://" + home + "/.colima/docker.sock",     // Colima
	} {
		attempts = append(attempts, []client.Opt{client.WithHost(socketPath), client.WithAPIVersionNegotiation()})
	}

	for _, opts := range attempts {
		cli, err := client.NewClientWithOpts(opts...)
		if err != nil {
			continue
		}

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err = cli.Ping(pingCtx)
		cancel()

		if err == nil {
			slog.Debug("connected to docker", "host", cli.DaemonHost())
			return cli, nil
		}
		cli.Close()
	}

	return nil, fmt.Errorf("could not connect to Docker daemon")
}

func (e *DockerEngine) Ping(ctx context.Context) error {
	_, err := e.client.Ping(ctx)
	return err
}

func (e *DockerEngine) Close() error {
	return e.client.Close()
}

func (e *DockerEngine) ListContainers(ctx context.Context, all bool) ([]Summary, error) {
	containers, err := e.client.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, err
	}

	result := make([]Summary, 0, len(containers))
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}

		// The daemon reports one entry per address family; keep the first.
		var ports []PortBinding
		seen := make(map[string]bool)
		for _, p := range c.Ports {
			if p.PublicPort == 0 {
				continue
			}
			pb := PortBinding{
				ContainerPort: nat.Port(fmt.Sprintf("%d/%s", p.PrivatePort, p.Type)),
				HostIP:        p.IP,
				HostPort:      strconv.Itoa(int(p.PublicPort)),
			}
			if seen[pb.String()] {
				continue
			}
			seen[pb.String()] = true
			ports = append(ports, pb)
		}

		result = append(result, Summary{
			ID:     c.ID,
			Name:   name,
			Status: Status(c.State),
			Image:  c.Image,
			Ports:  ports,
		})
	}
	return result, nil
}

func (e *DockerEngine) InspectContainer(ctx context.Context, ref string) (*Details, error) {
	info, err := e.client.ContainerInspect(ctx, ref)
	if err != nil {
		return nil, err
	}
	if info.ContainerJSONBase == nil {
		return nil, fmt.Errorf("empty inspect response for %s", ref)
	}

	d := &Details{
		ID:      info.ID,
		Name:    strings.TrimPrefix(info.Name, "/"),
		Created: info.Created,
	}
	if info.State != nil {
		d.Status = Status(info.State.Status)
		d.Running = info.State.Running
	}
	if info.Config != nil {
		d.Image = info.Config.Image
		d.Tty = info.Config.Tty
		d.Env = info.Config.Env
	}
	if info.NetworkSettings != nil {
		d.IPAddress = info.NetworkSettings.IPAddress
		d.MacAddress = info.NetworkSettings.MacAddress
	}
	for _, m := range info.Mounts {
		d.Mounts = append(d.Mounts, Mount{Source: m.Source, Destination: m.Destination})
	}
	return d, nil
}

func (e *DockerEngine) CreateContainer(ctx context.Context, spec CreateSpec) (string, error) {
	exposed := make(nat.PortSet, len(spec.Ports))
	for port := range spec.Ports {
		exposed[port] = struct{}{}
	}

	cfg := &container.Config{
		Image:        spec.Image,
		Cmd:          spec.Cmd,
		ExposedPorts: exposed,
	}
	hostCfg := &container.HostConfig{
		PortBindings: spec.Ports,
	}

	resp, err := e.client.ContainerCreate(ctx, cfg, hostCfg, nil, nil, spec.Name)
	if err != nil {
		return "", err
	}
	for _, w := range resp.Warnings {
		slog.Warn("container create warning", "image", spec.Image, "warning", w)
	}
	return resp.ID, nil
}

func (e *DockerEngine) StartContainer(ctx context.Context, id string) error {
	return e.client.ContainerStart(ctx, id, container.StartOptions{})
}

func (e *DockerEngine) StopContainer(ctx context.Context, id string) error {
	timeout := e.stopTimeout
	return e.client.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout})
}

func (e *DockerEngine) RestartContainer(ctx context.Context, id string) error {
	timeout := e.stopTimeout
	return e.client.ContainerRestart(ctx, id, container.StopOptions{Timeout: &timeout})
}

func (e *DockerEngine) RemoveContainer(ctx context.Context, id string) error {
	return e.client.ContainerRemove(ctx, id, container.RemoveOptions{})
}

func (e *DockerEngine) ContainerLogs(ctx context.Context, id string, tail int, tty bool) (string, error) {
	reader, err := e.client.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       strconv.Itoa(tail),
	})
	if err != nil {
		return "", err
	}
	defer reader.Close()

	var output bytes.Buffer
	if tty {
		_, err = io.Copy(&output, reader)
	} else {
		_, err = stdcopy.StdCopy(&output, &output, reader)
	}
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.ToValidUTF8(output.String(), ""), nil
}

func (e *DockerEngine) Exec(ctx context.Context, id string, argv []string, workDir string) (*ExecResult, error) {
	execResp, err := e.client.ContainerExecCreate(ctx, id, container.ExecOptions{
		Cmd:          argv,
		WorkingDir:   workDir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create exec: %w", err)
	}

	attachResp, err := e.client.ContainerExecAttach(ctx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("attach exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader); err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	inspectResp, err := e.client.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return nil, fmt.Errorf("inspect exec: %w", err)
	}

	return &ExecResult{
		ExitCode: inspectResp.ExitCode,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}, nil
}

func (e *DockerEngine) CopyFromContainer(ctx context.Context, id, srcPath string) (io.ReadCloser, error) {
	rc, _, err := e.client.CopyFromContainer(ctx, id, srcPath)
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// HasImage reports whether ref is present locally.
func (e *DockerEngine) HasImage(ctx context.Context, ref string) (bool, error) {
	_, _, err := e.client.ImageInspectWithRaw(ctx, ref)
	if errdefs.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (e *DockerEngine) ListImages(ctx context.Context) ([]Image, error) {
	images, err := e.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, err
	}
	result := make([]Image, 0, len(images))
	for _, img := range images {
		result = append(result, Image{ID: img.ID, Tags: img.RepoTags, Size: img.Size})
	}
	return result, nil
}

// PullImage pulls ref and drains the progress stream, surfacing errors the
// daemon reports inside the stream.
func (e *DockerEngine) PullImage(ctx context.Context, ref string) error {
	reader, err := e.client.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()

	return jsonmessage.DisplayJSONMessagesStream(reader, io.Discard, 0, false, nil)
}

func (e *DockerEngine) RemoveImage(ctx context.Context, ref string, force bool) error {
	_, err := e.client.ImageRemove(ctx, ref, image.RemoveOptions{Force: force, PruneChildren: true})
	return err
}

func (e *DockerEngine) PruneDanglingImages(ctx context.Context) (uint64, error) {
	report, err := e.client.ImagesPrune(ctx, filters.NewArgs(filters.Arg("dangling", "true")))
	if err != nil {
		return 0, err
	}
	return report.SpaceReclaimed, nil
}
