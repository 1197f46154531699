package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/everydev1618/vegadock/container"
)

// defaultExecTimeout bounds host commands without an explicit timeout.
const defaultExecTimeout = 30 * time.Second

// ContainerExecutor runs a command inside a named container.
// *container.Manager satisfies it.
type ContainerExecutor interface {
	Exec(ctx context.Context, ref string, argv []string, workDir string) (*container.ExecResult, error)
}

// ExtensionFile is a YAML extension module.
type ExtensionFile struct {
	Module      string           `yaml:"module"`
	Description string           `yaml:"description"`
	Tools       []DynamicToolDef `yaml:"tools"`
}

// DynamicToolDef is a YAML tool definition.
type DynamicToolDef struct {
	Name           string            `yaml:"name"`
	Description    string            `yaml:"description"`
	Params         []DynamicParamDef `yaml:"params"`
	Implementation DynamicToolImpl   `yaml:"implementation"`
}

// DynamicParamDef is a YAML parameter definition.
type DynamicParamDef struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Description string   `yaml:"description"`
	Required    bool     `yaml:"required"`
	Default     any      `yaml:"default"`
	Enum        []string `yaml:"enum"`
}

// DynamicToolImpl is a YAML implementation definition. Every element of
// Command, Container and WorkDir is a text/template over the call arguments.
type DynamicToolImpl struct {
	Type      string   `yaml:"type"` // exec, container_exec
	Command   []string `yaml:"command"`
	Container string   `yaml:"container"`
	WorkDir   string   `yaml:"workdir"`
	Timeout   string   `yaml:"timeout"`
}

// LoadDirectory loads every *.yaml and *.yml file in dir as an extension
// module. A file that fails to load is skipped and reported; the others
// still load. A missing directory is not an error.
func (t *Tools) LoadDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("tools directory not found", "dir", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read tools directory: %w", err)
	}

	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		if err := t.LoadFile(filepath.Join(dir, name)); err != nil {
			slog.Error("failed to load extension", "file", name, "error", err)
			errs = append(errs, fmt.Errorf("load %s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// LoadFile loads a single extension module from YAML. The module name
// defaults to the file name without its extension.
func (t *Tools) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var ext ExtensionFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ext); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty extension file")
		}
		return fmt.Errorf("parse yaml: %w", err)
	}
	if ext.Module == "" {
		ext.Module = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	exports := make([]Export, 0, len(ext.Tools))
	for _, def := range ext.Tools {
		td, err := t.dynamicToolDef(def)
		if err != nil {
			return &ModuleError{Module: ext.Module, Err: fmt.Errorf("tool %q: %w", def.Name, err)}
		}
		exports = append(exports, Export{Name: def.Name, Def: td})
	}

	n, err := t.loadModule(Module{
		Name:    ext.Module,
		Exports: func() []Export { return exports },
	})
	if err != nil {
		return err
	}
	slog.Info("loaded extension module", "module", ext.Module, "tools", n, "file", path)
	return nil
}

// RegisterDynamicTool registers a tool from a DynamicToolDef.
func (t *Tools) RegisterDynamicTool(def DynamicToolDef) error {
	td, err := t.dynamicToolDef(def)
	if err != nil {
		return err
	}
	return t.Register(def.Name, td)
}

func (t *Tools) dynamicToolDef(def DynamicToolDef) (ToolDef, error) {
	params := make(map[string]ParamDef)
	for _, p := range def.Params {
		if p.Name == "" {
			return ToolDef{}, errors.New("parameter name is required")
		}
		typ := p.Type
		if typ == "" {
			typ = "string"
		}
		params[p.Name] = ParamDef{
			Type:        typ,
			Description: p.Description,
			Required:    p.Required,
			Default:     p.Default,
			Enum:        p.Enum,
		}
	}

	impl := def.Implementation
	if len(impl.Command) == 0 {
		return ToolDef{}, errors.New("implementation command is required")
	}
	timeout := defaultExecTimeout
	if impl.Timeout != "" {
		d, err := time.ParseDuration(impl.Timeout)
		if err != nil {
			return ToolDef{}, fmt.Errorf("invalid timeout %q: %w", impl.Timeout, err)
		}
		timeout = d
	}

	command, err := parseTemplates(impl.Command)
	if err != nil {
		return ToolDef{}, err
	}
	workDir, err := parseTemplate(impl.WorkDir)
	if err != nil {
		return ToolDef{}, err
	}

	var fn ToolFunc
	switch impl.Type {
	case "exec":
		fn = createExecExecutor(command, workDir, params, timeout)
	case "container_exec":
		if impl.Container == "" {
			return ToolDef{}, errors.New("container_exec requires a container")
		}
		target, err := parseTemplate(impl.Container)
		if err != nil {
			return ToolDef{}, err
		}
		fn = t.createContainerExecutor(target, command, workDir, params, timeout)
	default:
		return ToolDef{}, fmt.Errorf("unknown implementation type: %s", impl.Type)
	}

	return ToolDef{
		Description: def.Description,
		Fn:          fn,
		Params:      params,
	}, nil
}

// Exec executor for host commands. The command is never passed to a shell.
func createExecExecutor(command []*template.Template, workDir *template.Template, params map[string]ParamDef, timeout time.Duration) ToolFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		vars := templateVars(params, args)
		argv, err := renderAll(command, vars)
		if err != nil {
			return "", err
		}
		dir, err := render(workDir, vars)
		if err != nil {
			return "", err
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = dir

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		err = cmd.Run()
		output := joinOutput(stdout.String(), stderr.String())
		if err != nil {
			if output != "" {
				return "", fmt.Errorf("command failed: %w\n%s", err, output)
			}
			return "", fmt.Errorf("command failed: %w", err)
		}

		return output, nil
	}
}

// Container executor: runs the command in the configured container.
func (t *Tools) createContainerExecutor(target *template.Template, command []*template.Template, workDir *template.Template, params map[string]ParamDef, timeout time.Duration) ToolFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		t.mu.RLock()
		ce := t.container
		t.mu.RUnlock()
		if ce == nil {
			return "", container.ErrNotConnected
		}

		vars := templateVars(params, args)
		ref, err := render(target, vars)
		if err != nil {
			return "", err
		}
		argv, err := renderAll(command, vars)
		if err != nil {
			return "", err
		}
		dir, err := render(workDir, vars)
		if err != nil {
			return "", err
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		res, err := ce.Exec(ctx, ref, argv, dir)
		if err != nil {
			return "", err
		}
		output := joinOutput(string(res.Stdout), string(res.Stderr))
		if res.ExitCode != 0 {
			return "", fmt.Errorf("%w\n%s", &container.ExecError{ExitCode: res.ExitCode, Result: res}, output)
		}
		return output, nil
	}
}

func joinOutput(stdout, stderr string) string {
	if stderr == "" {
		return stdout
	}
	if stdout == "" {
		return stderr
	}
	return stdout + "\n" + stderr
}

// templateVars gives every declared parameter a value so that templates
// never print "<no value>" for omitted optional arguments.
func templateVars(params map[string]ParamDef, args map[string]any) map[string]any {
	vars := make(map[string]any, len(params)+len(args))
	for name := range params {
		vars[name] = ""
	}
	for k, v := range args {
		if v != nil {
			vars[k] = v
		}
	}
	return vars
}

func parseTemplates(elems []string) ([]*template.Template, error) {
	out := make([]*template.Template, len(elems))
	for i, s := range elems {
		tmpl, err := parseTemplate(s)
		if err != nil {
			return nil, err
		}
		out[i] = tmpl
	}
	return out, nil
}

func parseTemplate(s string) (*template.Template, error) {
	tmpl, err := template.New("").Option("missingkey=error").Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", s, err)
	}
	return tmpl, nil
}

func renderAll(tmpls []*template.Template, vars map[string]any) ([]string, error) {
	argv := make([]string, 0, len(tmpls))
	for _, tmpl := range tmpls {
		s, err := render(tmpl, vars)
		if err != nil {
			return nil, err
		}
		argv = append(argv, s)
	}
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("empty command")
	}
	return argv, nil
}

func render(tmpl *template.Template, vars map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("interpolate: %w", err)
	}
	return buf.String(), nil
}
