package tools

import (
	"context"
	"fmt"

	"github.com/everydev1618/vegadock/container"
)

// DockerModuleName is the module name of the container tools.
const DockerModuleName = "docker"

// DockerModule exposes the container facade as tools. The module loads even
// when m has no engine; every call then answers with NotConnectedText.
func DockerModule(m *container.Manager) Module {
	d := &dockerTools{m: m}
	return Module{
		Name:    DockerModuleName,
		Exports: d.exports,
	}
}

type dockerTools struct {
	m *container.Manager
}

func (d *dockerTools) exports() []Export {
	return []Export{
		{Name: "docker_list_containers", Def: ToolDef{
			Description: "List containers. Stopped containers are included unless all is false.",
			Fn:          d.listContainers,
			Params: map[string]ParamDef{
				"all": {Type: "boolean", Description: "Include stopped containers", Default: true},
			},
			OnError: failure("List containers"),
		}},
		{Name: "docker_container_action", Def: ToolDef{
			Description: "Start, stop, restart or remove a container.",
			Fn:          d.containerAction,
			Params: map[string]ParamDef{
				"container_name": {Type: "string", Description: "Container name or ID", Required: true},
				"action": {
					Type:        "string",
					Description: "Action to apply",
					Required:    true,
					Enum:        []string{"start", "stop", "restart", "remove"},
				},
			},
			OnError: failure("Container action"),
		}},
		{Name: "docker_run_container", Def: ToolDef{
			Description: "Create and start a detached container (docker run -d).",
			Fn:          d.runContainer,
			Params: map[string]ParamDef{
				"image": {Type: "string", Description: "Image reference, e.g. nginx:latest", Required: true},
				"name":  {Type: "string", Description: "Container name"},
				"ports": {
					Type:        "string",
					Description: `Port mapping, e.g. {"80/tcp": 8080} publishes container port 80 on host port 8080`,
				},
				"command": {Type: "string", Description: "Command to run instead of the image default"},
			},
			OnError: failure("Create container"),
		}},
		{Name: "docker_inspect_container", Def: ToolDef{
			Description: "Show container details: image, status, network addresses, mounts and environment.",
			Fn:          d.inspectContainer,
			Params: map[string]ParamDef{
				"container_name": {Type: "string", Description: "Container name or ID", Required: true},
			},
			OnError: failure("Inspect container"),
		}},
		{Name: "docker_get_logs", Def: ToolDef{
			Description: "Get the last lines of a container's logs.",
			Fn:          d.getLogs,
			Params: map[string]ParamDef{
				"container_name": {Type: "string", Description: "Container name or ID", Required: true},
				"lines":          {Type: "integer", Description: "Number of lines", Default: container.DefaultLogTail},
			},
			OnError: failure("Get logs"),
		}},
		{Name: "docker_list_images", Def: ToolDef{
			Description: "List local images.",
			Fn:          d.listImages,
			OnError:     failure("List images"),
		}},
		{Name: "docker_pull_image", Def: ToolDef{
			Description: "Pull an image from its registry.",
			Fn:          d.pullImage,
			Params: map[string]ParamDef{
				"image_name": {Type: "string", Description: "Image reference", Required: true},
			},
			OnError: failure("Pull image"),
		}},
		{Name: "docker_delete_image", Def: ToolDef{
			Description: "Delete a local image.",
			Fn:          d.deleteImage,
			Params: map[string]ParamDef{
				"image_name": {Type: "string", Description: "Image reference or ID", Required: true},
				"force":      {Type: "boolean", Description: "Remove even if in use", Default: false},
			},
			OnError: failure("Delete image"),
		}},
		{Name: "docker_reset_image", Def: ToolDef{
			Description: "Pull the latest version of an image and prune dangling images.",
			Fn:          d.resetImage,
			Params: map[string]ParamDef{
				"image_name": {Type: "string", Description: "Image reference", Required: true},
			},
			OnError: failure("Reset image"),
		}},
		{Name: "docker_copy_from_container", Def: ToolDef{
			Description: "Copy a file or directory out of a container into local storage.",
			Fn:          d.copyFromContainer,
			Params: map[string]ParamDef{
				"container_name": {Type: "string", Description: "Container name or ID", Required: true},
				"src_path":       {Type: "string", Description: "Absolute path inside the container, e.g. /workspace/plot.png", Required: true},
			},
			OnError: copyFailure,
		}},
		{Name: "docker_exec_run", Def: ToolDef{
			Description: "Run a command inside a running container (docker exec).",
			Fn:          d.execRun,
			Params: map[string]ParamDef{
				"container_name": {Type: "string", Description: "Container name or ID", Required: true},
				"command":        {Type: "string", Description: "Command line, e.g. ls -la /app", Required: true},
				"workdir":        {Type: "string", Description: "Working directory"},
			},
			OnError: execFailure("Exec"),
		}},
		{Name: "docker_pip_install", Def: ToolDef{
			Description: "Install Python packages inside a running container.",
			Fn:          d.pipInstall,
			Params: map[string]ParamDef{
				"container_name": {Type: "string", Description: "Container name or ID", Required: true},
				"packages":       {Type: "string", Description: "Space separated requirements, e.g. pandas numpy>=1.26", Required: true},
			},
			OnError: execFailure("Package installation"),
		}},
	}
}

func (d *dockerTools) listContainers(ctx context.Context, params map[string]any) (string, error) {
	list, err := d.m.ListContainers(ctx, Bool(params, "all"))
	if err != nil {
		return "", err
	}
	return formatContainers(list), nil
}

func (d *dockerTools) containerAction(ctx context.Context, params map[string]any) (string, error) {
	action := container.Action(String(params, "action"))
	c, err := d.m.Action(ctx, String(params, "container_name"), action)
	if err != nil {
		return "", err
	}
	return formatAction(action, c.Name), nil
}

func (d *dockerTools) runContainer(ctx context.Context, params map[string]any) (string, error) {
	created, err := d.m.Run(ctx, container.RunSpec{
		Image:   String(params, "image"),
		Name:    String(params, "name"),
		Ports:   String(params, "ports"),
		Command: String(params, "command"),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Container created and started.\nName: %s\nID: %s", created.Name, created.ShortID()), nil
}

func (d *dockerTools) inspectContainer(ctx context.Context, params map[string]any) (string, error) {
	c, err := d.m.Inspect(ctx, String(params, "container_name"))
	if err != nil {
		return "", err
	}
	return formatDetails(c)
}

func (d *dockerTools) getLogs(ctx context.Context, params map[string]any) (string, error) {
	c, logs, err := d.m.Logs(ctx, String(params, "container_name"), Int(params, "lines"))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📜 **%s logs**:\n```\n%s\n```", c.Name, logs), nil
}

func (d *dockerTools) listImages(ctx context.Context, _ map[string]any) (string, error) {
	images, err := d.m.ListImages(ctx)
	if err != nil {
		return "", err
	}
	return formatImages(images), nil
}

func (d *dockerTools) pullImage(ctx context.Context, params map[string]any) (string, error) {
	ref, err := d.m.PullImage(ctx, String(params, "image_name"))
	if err != nil {
		return "", err
	}
	return "✅ Pulled: " + ref, nil
}

func (d *dockerTools) deleteImage(ctx context.Context, params map[string]any) (string, error) {
	ref := String(params, "image_name")
	if err := d.m.DeleteImage(ctx, ref, Bool(params, "force")); err != nil {
		return "", err
	}
	return "🗑️ Image removed: " + ref, nil
}

func (d *dockerTools) resetImage(ctx context.Context, params map[string]any) (string, error) {
	ref, err := d.m.ResetImage(ctx, String(params, "image_name"))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("🔄 Image %s reset to the latest version.", ref), nil
}

func (d *dockerTools) copyFromContainer(ctx context.Context, params map[string]any) (string, error) {
	local, err := d.m.CopyFrom(ctx, String(params, "container_name"), String(params, "src_path"))
	if err != nil {
		return "", err
	}
	return "✅ File extracted to: " + local, nil
}

func (d *dockerTools) execRun(ctx context.Context, params map[string]any) (string, error) {
	argv, err := container.SplitCommand(String(params, "command"))
	if err != nil {
		return "", err
	}
	res, err := d.m.Exec(ctx, String(params, "container_name"), argv, String(params, "workdir"))
	if err != nil {
		return "", err
	}
	return formatExec(res), nil
}

func (d *dockerTools) pipInstall(ctx context.Context, params map[string]any) (string, error) {
	res, err := d.m.InstallPackages(ctx, String(params, "container_name"), String(params, "packages"))
	if err != nil {
		return "", err
	}
	return formatExec(res), nil
}
