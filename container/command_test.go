package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everydev1618/vegadock/container"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		command string
		want    []string
	}{
		{"ls -la /tmp", []string{"ls", "-la", "/tmp"}},
		{`sh -c "echo hello && sleep 1"`, []string{"sh", "-c", "echo hello && sleep 1"}},
		{`python -c 'print(1)'`, []string{"python", "-c", "print(1)"}},
		{`echo a\ b`, []string{"echo", "a b"}},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			got, err := container.SplitCommand(tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := container.SplitCommand("   ")
	assert.ErrorIs(t, err, container.ErrInvalidArgument)
}

func TestPipInstallArgs(t *testing.T) {
	t.Run("valid requirements", func(t *testing.T) {
		for _, pkgs := range []string{
			"pandas",
			"requests[socks]>=2.31,<3",
			"numpy==1.26.4 scipy~=1.11",
			"typing_extensions",
		} {
			_, err := container.PipInstallArgs(pkgs, container.DefaultPipOptions())
			assert.NoError(t, err, pkgs)
		}
	})

	t.Run("rejected requirements", func(t *testing.T) {
		for _, pkgs := range []string{
			"",
			"pandas;ls",
			"pandas && rm -rf /",
			"--index-url=http://evil",
			"$(whoami)",
			"`id`",
			"pkg|cat",
		} {
			_, err := container.PipInstallArgs(pkgs, container.DefaultPipOptions())
			assert.ErrorIs(t, err, container.ErrInvalidArgument, pkgs)
		}
	})

	t.Run("trusted host derived from index", func(t *testing.T) {
		argv, err := container.PipInstallArgs("flask", container.PipOptions{
			IndexURL: "https://pypi.example.com/simple",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"pip", "install", "flask",
			"-i", "https://pypi.example.com/simple",
			"--trusted-host", "pypi.example.com",
		}, argv)
	})

	t.Run("no index", func(t *testing.T) {
		argv, err := container.PipInstallArgs("flask", container.PipOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"pip", "install", "flask"}, argv)
	})
}
