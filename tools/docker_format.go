package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/everydev1618/vegadock/container"
)

// NotConnectedText is returned by every container tool when no engine
// connection could be established at startup.
const NotConnectedText = "❌ Docker is not connected. Check that /var/run/docker.sock is mounted."

// failure renders "❌ <action> failed: <error>".
func failure(action string) ErrorRenderer {
	return func(err error, _ map[string]any) string {
		if errors.Is(err, container.ErrNotConnected) {
			return NotConnectedText
		}
		return fmt.Sprintf("❌ %s failed: %v", action, err)
	}
}

func copyFailure(err error, params map[string]any) string {
	var pathErr *container.PathError
	if errors.As(err, &pathErr) {
		return "❌ File not found in container: " + pathErr.Path
	}
	return failure("Copy from container")(err, params)
}

// execFailure reports a stopped container or a non-zero exit with the
// command output.
func execFailure(action string) ErrorRenderer {
	return func(err error, params map[string]any) string {
		if errors.Is(err, container.ErrNotRunning) {
			return fmt.Sprintf("❌ Container `%s` is not running; cannot execute command.", String(params, "container_name"))
		}
		var execErr *container.ExecError
		if errors.As(err, &execErr) && execErr.Result != nil {
			return fmt.Sprintf("❌ %s failed (exit code %d):\n%s", action, execErr.ExitCode, execOutput(execErr.Result))
		}
		return failure(action)(err, params)
	}
}

func formatContainers(list []container.Summary) string {
	if len(list) == 0 {
		return "📭 No containers."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📦 **Containers (%d)**:\n", len(list))
	for _, c := range list {
		icon := "🔴"
		if c.Status == container.StatusRunning {
			icon = "🟢"
		}
		image := c.Image
		if image == "" {
			image = "none"
		}
		ports := "-"
		if len(c.Ports) > 0 {
			parts := make([]string, len(c.Ports))
			for i, p := range c.Ports {
				parts[i] = p.String()
			}
			ports = strings.Join(parts, ", ")
		}
		fmt.Fprintf(&b, "%s **%s**\n   ID: %s | Status: %s | Image: %s | Ports: %s\n",
			icon, c.Name, c.ShortID(), c.Status, image, ports)
	}
	return b.String()
}

func formatAction(action container.Action, name string) string {
	switch action {
	case container.ActionStart:
		return fmt.Sprintf("▶️ Container `%s` started.", name)
	case container.ActionStop:
		return fmt.Sprintf("⏹️ Container `%s` stopped.", name)
	case container.ActionRestart:
		return fmt.Sprintf("🔄 Container `%s` restarted.", name)
	default:
		return fmt.Sprintf("🗑️ Container `%s` removed.", name)
	}
}

// detailsView fixes the key order of the inspect report.
type detailsView struct {
	ID         string   `json:"ID"`
	Image      string   `json:"Image"`
	Status     string   `json:"Status"`
	Created    string   `json:"Created"`
	IP         string   `json:"IP"`
	MacAddress string   `json:"MacAddress"`
	Mounts     []string `json:"Mounts"`
	Env        []string `json:"Env"`
}

func formatDetails(c *container.Details) (string, error) {
	view := detailsView{
		ID:         c.ShortID(),
		Image:      c.Image,
		Status:     string(c.Status),
		Created:    c.Created,
		IP:         c.IPAddress,
		MacAddress: c.MacAddress,
		Mounts:     make([]string, 0, len(c.Mounts)),
		Env:        c.Env,
	}
	for _, m := range c.Mounts {
		view.Mounts = append(view.Mounts, m.String())
	}
	if view.Env == nil {
		view.Env = []string{}
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("🔍 **Container details (%s)**:\n```json\n%s\n```", c.Name, data), nil
}

func formatImages(images []container.Image) string {
	if len(images) == 0 {
		return "📭 No local images."
	}

	var b strings.Builder
	b.WriteString("💿 **Images**:\n")
	for _, img := range images {
		tag := "<none>"
		if len(img.Tags) > 0 {
			tag = img.Tags[0]
		}
		fmt.Fprintf(&b, "- %s (%.1fMB)\n", tag, float64(img.Size)/(1024*1024))
	}
	return b.String()
}

func formatExec(res *container.ExecResult) string {
	return strings.TrimSpace(fmt.Sprintf("💻 **Exit code: %d**:\n%s", res.ExitCode, execOutput(res)))
}

func execOutput(res *container.ExecResult) string {
	var b strings.Builder
	if len(res.Stdout) > 0 {
		fmt.Fprintf(&b, "--- stdout ---\n%s\n", res.Stdout)
	}
	if len(res.Stderr) > 0 {
		fmt.Fprintf(&b, "--- stderr ---\n%s\n", res.Stderr)
	}
	if b.Len() == 0 {
		return "(no output)"
	}
	return strings.TrimSpace(b.String())
}
