package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDockerEngine points a DockerEngine at an httptest daemon.
func newTestDockerEngine(t *testing.T, handler http.HandlerFunc) *DockerEngine {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cli, err := client.NewClientWithOpts(client.WithHost(srv.URL), client.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	t.Cleanup(func() { cli.Close() })
	return &DockerEngine{client: cli, stopTimeout: DefaultStopTimeout}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

const containerListResponse = `[{
	"Id": "4f1c2b3a9d8e7f6a5b4c3d2e1f0a9b8c7d6e5f4a3b2c1d0e9f8a7b6c5d4e3f2a",
	"Names": ["/web1"],
	"Image": "nginx:latest",
	"State": "running",
	"Ports": [
		{"IP": "0.0.0.0", "PrivatePort": 80, "PublicPort": 8080, "Type": "tcp"},
		{"IP": "::", "PrivatePort": 80, "PublicPort": 8080, "Type": "tcp"},
		{"PrivatePort": 443, "Type": "tcp"}
	]
}, {
	"Id": "0000000000aa",
	"Names": [],
	"Image": "busybox",
	"State": "exited"
}]`

func TestDockerEngine_ListContainers(t *testing.T) {
	var gotAll string
	eng := newTestDockerEngine(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/containers/json") {
			writeJSON(w, http.StatusNotFound, `{"message":"unexpected path"}`)
			return
		}
		gotAll = r.URL.Query().Get("all")
		writeJSON(w, http.StatusOK, containerListResponse)
	})

	list, err := eng.ListContainers(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "1", gotAll)
	require.Len(t, list, 2)

	web := list[0]
	assert.Equal(t, "web1", web.Name)
	assert.Equal(t, StatusRunning, web.Status)
	assert.Equal(t, "4f1c2b3a9d8e", web.ShortID())
	require.Len(t, web.Ports, 1, "address families collapse and unpublished ports are skipped")
	assert.Equal(t, "80/tcp->8080", web.Ports[0].String())
	assert.Equal(t, "0.0.0.0", web.Ports[0].HostIP)

	assert.Equal(t, "", list[1].Name)
	assert.Equal(t, StatusExited, list[1].Status)
	assert.Empty(t, list[1].Ports)
}

func TestDockerEngine_InspectContainer(t *testing.T) {
	eng := newTestDockerEngine(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/containers/full/json"):
			writeJSON(w, http.StatusOK, `{
				"Id": "full",
				"Name": "/db",
				"Created": "2024-05-01T12:00:00Z",
				"State": {"Status": "running", "Running": true},
				"Config": {"Image": "postgres:16", "Tty": true, "Env": ["A=1", "B=2"]},
				"NetworkSettings": {"IPAddress": "172.17.0.2", "MacAddress": "02:42:ac:11:00:02"},
				"Mounts": [{"Source": "/srv/pg", "Destination": "/var/lib/postgresql/data"}]
			}`)
		case strings.HasSuffix(r.URL.Path, "/containers/sparse/json"):
			writeJSON(w, http.StatusOK, `{"Id": "sparse", "Name": "/bare", "Created": "2024-05-01T12:00:00Z"}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"message":"No such container: ghost"}`)
		}
	})
	ctx := context.Background()

	t.Run("full", func(t *testing.T) {
		d, err := eng.InspectContainer(ctx, "full")
		require.NoError(t, err)
		assert.Equal(t, "db", d.Name)
		assert.Equal(t, StatusRunning, d.Status)
		assert.True(t, d.Running)
		assert.True(t, d.Tty)
		assert.Equal(t, "postgres:16", d.Image)
		assert.Equal(t, []string{"A=1", "B=2"}, d.Env)
		assert.Equal(t, "172.17.0.2", d.IPAddress)
		assert.Equal(t, "02:42:ac:11:00:02", d.MacAddress)
		require.Len(t, d.Mounts, 1)
		assert.Equal(t, "/srv/pg:/var/lib/postgresql/data", d.Mounts[0].String())
	})

	t.Run("sparse", func(t *testing.T) {
		d, err := eng.InspectContainer(ctx, "sparse")
		require.NoError(t, err)
		assert.Equal(t, "bare", d.Name)
		assert.Equal(t, Status(""), d.Status)
		assert.False(t, d.Running)
		assert.Empty(t, d.Image)
		assert.Empty(t, d.Env)
		assert.Empty(t, d.IPAddress)
		assert.Empty(t, d.Mounts)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := eng.InspectContainer(ctx, "ghost")
		require.Error(t, err)
		assert.True(t, errdefs.IsNotFound(err))
		assert.ErrorIs(t, engineErr("inspect", err), ErrNotFound)
	})
}

func TestDockerEngine_HasImage(t *testing.T) {
	eng := newTestDockerEngine(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/images/nginx:latest/json"):
			writeJSON(w, http.StatusOK, `{"Id": "sha256:abc", "RepoTags": ["nginx:latest"]}`)
		case strings.HasSuffix(r.URL.Path, "/images/broken:1/json"):
			writeJSON(w, http.StatusInternalServerError, `{"message":"storage driver failure"}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"message":"No such image"}`)
		}
	})
	ctx := context.Background()

	ok, err := eng.HasImage(ctx, "nginx:latest")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = eng.HasImage(ctx, "redis:7")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = eng.HasImage(ctx, "broken:1")
	assert.Error(t, err)
}
