package container

import (
	"context"
	"io"

	"github.com/docker/go-connections/nat"
)

// Engine is the subset of the container engine the Manager drives.
// DockerEngine implements it over the Docker SDK; tests use fakes.
type Engine interface {
	Ping(ctx context.Context) error
	Close() error

	ListContainers(ctx context.Context, all bool) ([]Summary, error)
	InspectContainer(ctx context.Context, ref string) (*Details, error)
	CreateContainer(ctx context.Context, spec CreateSpec) (string, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string) error
	RestartContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string) error
	ContainerLogs(ctx context.Context, id string, tail int, tty bool) (string, error)
	Exec(ctx context.Context, id string, argv []string, workDir string) (*ExecResult, error)
	CopyFromContainer(ctx context.Context, id, srcPath string) (io.ReadCloser, error)

	HasImage(ctx context.Context, ref string) (bool, error)
	ListImages(ctx context.Context) ([]Image, error)
	PullImage(ctx context.Context, ref string) error
	RemoveImage(ctx context.Context, ref string, force bool) error
	PruneDanglingImages(ctx context.Context) (uint64, error)
}

// Status is an engine-reported container state.
type Status string

const (
	StatusRunning Status = "running"
	StatusExited  Status = "exited"
	StatusCreated Status = "created"
	StatusPaused  Status = "paused"
)

// PortBinding maps a container port (e.g. "80/tcp") to a host port.
type PortBinding struct {
	ContainerPort nat.Port
	HostIP        string
	HostPort      string
}

// String renders "80/tcp->8080". A binding without a host port is
// daemon-assigned and renders as "80/tcp->(auto)".
func (p PortBinding) String() string {
	host := p.HostPort
	if host == "" {
		host = "(auto)"
	}
	return string(p.ContainerPort) + "->" + host
}

// Summary is one entry of a container listing.
type Summary struct {
	ID     string
	Name   string
	Status Status
	Image  string
	Ports  []PortBinding
}

// ShortID returns the 12-character form of the container ID.
func (s Summary) ShortID() string {
	return shortID(s.ID)
}

// Mount is a source:destination pair of a container mount.
type Mount struct {
	Source      string
	Destination string
}

func (m Mount) String() string {
	return m.Source + ":" + m.Destination
}

// Details is the resolved state of a single container.
type Details struct {
	ID         string
	Name       string
	Image      string
	Status     Status
	Running    bool
	Tty        bool
	Created    string
	IPAddress  string
	MacAddress string
	Mounts     []Mount
	Env        []string
}

// ShortID returns the 12-character form of the container ID.
func (d *Details) ShortID() string {
	return shortID(d.ID)
}

// CreateSpec describes a container to create.
type CreateSpec struct {
	Image string
	Name  string
	Cmd   []string
	Ports nat.PortMap
}

// ExecResult holds the result of a command execution.
type ExecResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Image is one entry of an image listing.
type Image struct {
	ID   string
	Tags []string
	Size int64
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
