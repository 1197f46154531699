package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/everydev1618/vegadock/container"
	"github.com/everydev1618/vegadock/container/containertest"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// --- RegisterDynamicTool ---

func TestRegisterDynamicTool(t *testing.T) {
	t.Run("exec type registers and executes", func(t *testing.T) {
		ts := NewTools()
		err := ts.RegisterDynamicTool(DynamicToolDef{
			Name:        "say_hello",
			Description: "Says hello",
			Params:      []DynamicParamDef{{Name: "name", Type: "string", Required: true}},
			Implementation: DynamicToolImpl{
				Type:    "exec",
				Command: []string{"echo", "hello {{.name}}"},
			},
		})
		if err != nil {
			t.Fatalf("RegisterDynamicTool: %v", err)
		}

		result, err := ts.Execute(context.Background(), "say_hello", map[string]any{"name": "world"})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if strings.TrimSpace(result) != "hello world" {
			t.Errorf("result = %q, want %q", result, "hello world")
		}
	})

	t.Run("unknown implementation type returns error", func(t *testing.T) {
		ts := NewTools()
		err := ts.RegisterDynamicTool(DynamicToolDef{
			Name:           "bad_tool",
			Implementation: DynamicToolImpl{Type: "magic", Command: []string{"true"}},
		})
		if err == nil {
			t.Fatal("expected error for unknown type, got nil")
		}
	})

	t.Run("missing command returns error", func(t *testing.T) {
		ts := NewTools()
		err := ts.RegisterDynamicTool(DynamicToolDef{
			Name:           "no_cmd",
			Implementation: DynamicToolImpl{Type: "exec"},
		})
		if err == nil {
			t.Fatal("expected error for missing command, got nil")
		}
	})

	t.Run("duplicate name returns error", func(t *testing.T) {
		ts := NewTools()
		def := DynamicToolDef{
			Name:           "dup",
			Implementation: DynamicToolImpl{Type: "exec", Command: []string{"echo", "ok"}},
		}
		if err := ts.RegisterDynamicTool(def); err != nil {
			t.Fatalf("first register: %v", err)
		}
		if err := ts.RegisterDynamicTool(def); !errors.Is(err, ErrToolAlreadyRegistered) {
			t.Fatalf("err = %v, want ErrToolAlreadyRegistered", err)
		}
	})

	t.Run("params are reflected in schema", func(t *testing.T) {
		ts := NewTools()
		ts.RegisterDynamicTool(DynamicToolDef{
			Name:        "parameterised",
			Description: "Has params",
			Params: []DynamicParamDef{
				{Name: "city", Type: "string", Required: true, Description: "The city"},
				{Name: "units", Enum: []string{"metric", "imperial"}},
			},
			Implementation: DynamicToolImpl{Type: "exec", Command: []string{"echo", "ok"}},
		})

		schemas := ts.Schema()
		if len(schemas) != 1 {
			t.Fatalf("expected 1 schema, got %d", len(schemas))
		}
		props := schemas[0].InputSchema["properties"].(map[string]any)
		if _, ok := props["city"]; !ok {
			t.Error("city should be in schema properties")
		}
		units, ok := props["units"].(map[string]any)
		if !ok {
			t.Fatal("units should be in schema properties")
		}
		if units["type"] != "string" {
			t.Errorf("units type = %v, want string default", units["type"])
		}
	})
}

// --- LoadFile ---

func TestLoadFile(t *testing.T) {
	t.Run("loads a module and registers its tools", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "greetings.yaml", `
module: greetings
tools:
  - name: greet
    description: Greets someone
    params:
      - name: name
        type: string
        required: true
    implementation:
      type: exec
      command: [echo, "hi {{.name}}"]
  - name: wave
    implementation:
      type: exec
      command: [echo, wave]
`)

		ts := NewTools()
		if err := ts.LoadFile(path); err != nil {
			t.Fatalf("LoadFile: %v", err)
		}

		result, err := ts.Execute(context.Background(), "greet", map[string]any{"name": "Alice"})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !strings.Contains(result, "hi Alice") {
			t.Errorf("result = %q, want to contain 'hi Alice'", result)
		}

		for _, info := range ts.List() {
			if info.Module != "greetings" {
				t.Errorf("tool %s module = %q, want greetings", info.Name, info.Module)
			}
		}
	})

	t.Run("module name defaults to file name", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "misc.yml", "tools:\n  - name: noop\n    implementation:\n      type: exec\n      command: [\"true\"]\n")

		ts := NewTools()
		if err := ts.LoadFile(path); err != nil {
			t.Fatalf("LoadFile: %v", err)
		}
		if got := ts.List()[0].Module; got != "misc" {
			t.Errorf("module = %q, want misc", got)
		}
	})

	t.Run("argument with shell syntax is one argument", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "echo.yaml", `
tools:
  - name: say
    params:
      - name: text
    implementation:
      type: exec
      command: [echo, "{{.text}}"]
`)
		ts := NewTools()
		if err := ts.LoadFile(path); err != nil {
			t.Fatalf("LoadFile: %v", err)
		}
		result, err := ts.Execute(context.Background(), "say", map[string]any{"text": "a; echo injected"})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if strings.TrimSpace(result) != "a; echo injected" {
			t.Errorf("result = %q", result)
		}
	})

	t.Run("file not found returns error", func(t *testing.T) {
		ts := NewTools()
		if err := ts.LoadFile("/nonexistent/path.yaml"); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("invalid YAML returns error", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "bad.yaml", ":\t invalid: [yaml")
		ts := NewTools()
		if err := ts.LoadFile(path); err == nil {
			t.Fatal("expected error for invalid YAML")
		}
	})

	t.Run("unknown field returns error", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "typo.yaml", "tool:\n  - name: x\n")
		ts := NewTools()
		if err := ts.LoadFile(path); err == nil {
			t.Fatal("expected error for unknown field")
		}
	})

	t.Run("one bad tool loads nothing from the file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "mixed.yaml", `
tools:
  - name: fine
    implementation:
      type: exec
      command: [echo, ok]
  - name: broken
    implementation:
      type: unknown
      command: [echo, ok]
`)
		ts := NewTools()
		if err := ts.LoadFile(path); err == nil {
			t.Fatal("expected error for unknown implementation type")
		}
		if ts.Has("fine") {
			t.Error("fine should not be registered when its module fails")
		}
	})
}

// --- LoadDirectory ---

func TestLoadDirectory(t *testing.T) {
	t.Run("loads .yaml and .yml files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "alpha.yaml", "tools:\n  - name: alpha\n    implementation:\n      type: exec\n      command: [echo, alpha]\n")
		writeFile(t, dir, "beta.yml", "tools:\n  - name: beta\n    implementation:\n      type: exec\n      command: [echo, beta]\n")

		ts := NewTools()
		if err := ts.LoadDirectory(dir); err != nil {
			t.Fatalf("LoadDirectory: %v", err)
		}
		if !ts.Has("alpha") || !ts.Has("beta") {
			t.Errorf("names = %v, want alpha and beta", ts.Names())
		}
	})

	t.Run("malformed file does not block the others", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "broken.yaml", "tools: [this is: not valid")
		writeFile(t, dir, "good.yaml", "tools:\n  - name: good\n    implementation:\n      type: exec\n      command: [echo, good]\n")

		ts := NewTools()
		err := ts.LoadDirectory(dir)
		if err == nil {
			t.Fatal("expected the broken file to be reported")
		}
		if !strings.Contains(err.Error(), "broken.yaml") {
			t.Errorf("error = %v, want it to name broken.yaml", err)
		}
		if !ts.Has("good") {
			t.Error("good should be registered")
		}
	})

	t.Run("skips non-YAML and private files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "readme.txt", "not yaml")
		writeFile(t, dir, "_draft.yaml", "tools:\n  - name: draft\n    implementation:\n      type: exec\n      command: [echo]\n")

		ts := NewTools()
		if err := ts.LoadDirectory(dir); err != nil {
			t.Fatalf("LoadDirectory: %v", err)
		}
		if len(ts.Names()) != 0 {
			t.Errorf("expected 0 tools, got %v", ts.Names())
		}
	})

	t.Run("skips subdirectories", func(t *testing.T) {
		dir := t.TempDir()
		subdir := filepath.Join(dir, "sub")
		os.Mkdir(subdir, 0755)
		writeFile(t, subdir, "nested.yaml", "tools:\n  - name: nested\n    implementation:\n      type: exec\n      command: [echo]\n")

		ts := NewTools()
		if err := ts.LoadDirectory(dir); err != nil {
			t.Fatalf("LoadDirectory: %v", err)
		}
		if len(ts.Names()) != 0 {
			t.Errorf("expected 0 tools (subdirs skipped), got %v", ts.Names())
		}
	})

	t.Run("missing directory is not an error", func(t *testing.T) {
		ts := NewTools()
		if err := ts.LoadDirectory(filepath.Join(t.TempDir(), "absent")); err != nil {
			t.Fatalf("LoadDirectory: %v", err)
		}
	})
}

// --- Exec executor ---

func TestExecExecutor(t *testing.T) {
	t.Run("returns error with output on non-zero exit code", func(t *testing.T) {
		ts := NewTools()
		ts.RegisterDynamicTool(DynamicToolDef{
			Name:           "fail_cmd",
			Implementation: DynamicToolImpl{Type: "exec", Command: []string{"sh", "-c", "echo oops >&2; exit 3"}},
		})
		_, err := ts.Execute(context.Background(), "fail_cmd", map[string]any{})
		if err == nil {
			t.Fatal("expected error for non-zero exit, got nil")
		}
		if !strings.Contains(err.Error(), "oops") {
			t.Errorf("error = %v, want stderr included", err)
		}
	})

	t.Run("omitted optional param renders empty", func(t *testing.T) {
		ts := NewTools()
		ts.RegisterDynamicTool(DynamicToolDef{
			Name:           "opt",
			Params:         []DynamicParamDef{{Name: "suffix"}},
			Implementation: DynamicToolImpl{Type: "exec", Command: []string{"echo", "x{{.suffix}}"}},
		})
		result, err := ts.Execute(context.Background(), "opt", nil)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if strings.TrimSpace(result) != "x" {
			t.Errorf("result = %q, want x", result)
		}
	})

	t.Run("default param value is used", func(t *testing.T) {
		ts := NewTools()
		ts.RegisterDynamicTool(DynamicToolDef{
			Name:           "def",
			Params:         []DynamicParamDef{{Name: "who", Default: "nobody"}},
			Implementation: DynamicToolImpl{Type: "exec", Command: []string{"echo", "{{.who}}"}},
		})
		result, err := ts.Execute(context.Background(), "def", nil)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if strings.TrimSpace(result) != "nobody" {
			t.Errorf("result = %q, want nobody", result)
		}
	})

	t.Run("timeout cancels the command", func(t *testing.T) {
		ts := NewTools()
		ts.RegisterDynamicTool(DynamicToolDef{
			Name:           "slow",
			Implementation: DynamicToolImpl{Type: "exec", Command: []string{"sleep", "5"}, Timeout: "50ms"},
		})
		if _, err := ts.Execute(context.Background(), "slow", nil); err == nil {
			t.Fatal("expected timeout error")
		}
	})

	t.Run("invalid timeout is rejected at registration", func(t *testing.T) {
		ts := NewTools()
		err := ts.RegisterDynamicTool(DynamicToolDef{
			Name:           "bad_timeout",
			Implementation: DynamicToolImpl{Type: "exec", Command: []string{"true"}, Timeout: "soon"},
		})
		if err == nil {
			t.Fatal("expected error for invalid timeout")
		}
	})
}

// --- Container executor ---

func TestContainerExecExecutor(t *testing.T) {
	def := DynamicToolDef{
		Name: "py_version",
		Params: []DynamicParamDef{
			{Name: "box", Required: true},
		},
		Implementation: DynamicToolImpl{
			Type:      "container_exec",
			Container: "{{.box}}",
			Command:   []string{"python", "--version"},
			WorkDir:   "/workspace",
		},
	}

	t.Run("runs inside the named container", func(t *testing.T) {
		eng := containertest.NewEngine()
		eng.AddContainer("sandbox", container.StatusRunning)
		eng.ExecResult = &container.ExecResult{Stdout: []byte("Python 3.12.1\n")}
		ts := NewTools(WithContainer(container.NewManager(eng)))
		if err := ts.RegisterDynamicTool(def); err != nil {
			t.Fatalf("RegisterDynamicTool: %v", err)
		}

		result, err := ts.Execute(context.Background(), "py_version", map[string]any{"box": "sandbox"})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !strings.Contains(result, "Python 3.12.1") {
			t.Errorf("result = %q", result)
		}
		if got := strings.Join(eng.LastExec, " "); got != "python --version" {
			t.Errorf("argv = %q", got)
		}
	})

	t.Run("non-zero exit is an ExecError", func(t *testing.T) {
		eng := containertest.NewEngine()
		eng.AddContainer("sandbox", container.StatusRunning)
		eng.ExecResult = &container.ExecResult{ExitCode: 127, Stderr: []byte("python: not found")}
		ts := NewTools(WithContainer(container.NewManager(eng)))
		ts.RegisterDynamicTool(def)

		_, err := ts.Execute(context.Background(), "py_version", map[string]any{"box": "sandbox"})
		var execErr *container.ExecError
		if !errors.As(err, &execErr) || execErr.ExitCode != 127 {
			t.Fatalf("err = %v, want ExecError with code 127", err)
		}
	})

	t.Run("without a container executor", func(t *testing.T) {
		ts := NewTools()
		ts.RegisterDynamicTool(def)

		_, err := ts.Execute(context.Background(), "py_version", map[string]any{"box": "sandbox"})
		if !errors.Is(err, container.ErrNotConnected) {
			t.Fatalf("err = %v, want ErrNotConnected", err)
		}
	})

	t.Run("container is required", func(t *testing.T) {
		ts := NewTools()
		bad := def
		bad.Implementation.Container = ""
		if err := ts.RegisterDynamicTool(bad); err == nil {
			t.Fatal("expected error for missing container")
		}
	})
}
