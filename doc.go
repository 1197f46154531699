// Package vegadock exposes a Docker engine to tool-calling hosts.
//
// A fixed set of container and image operations is published as named
// tools taking an argument map and returning human-readable text. Hosts
// reach them over MCP on stdio or over HTTP.
//
// # Layout
//
//   - container: the Docker engine port, its adapter, and the Manager facade
//   - tools: the registry, module loader, extension manifests, and the docker module
//   - mcp: the stdio MCP server
//   - serve: the HTTP dispatcher and audit API
//   - store: the SQLite audit log
//
// # Quick Start
//
//	mgr := container.Connect(ctx, "")
//	reg := tools.NewTools(tools.WithContainer(mgr))
//	if err := reg.LoadModules(tools.DockerModule(mgr)); err != nil {
//	    log.Fatal(err)
//	}
//	res, err := reg.Invoke(ctx, "docker_list_containers", nil)
//
// # Extensions
//
// YAML manifests in the tools directory add further tools. Each tool runs
// an argv template either on the host or inside a named container:
//
//	module: python
//	tools:
//	  - name: py_version
//	    description: Print the Python version
//	    implementation:
//	      type: container_exec
//	      container: "{{.container}}"
//	      command: [python, --version]
//	    params:
//	      - name: container
//	        type: string
//	        required: true
//
// This package holds the home directory helpers shared by the CLI.
package vegadock
