package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Standard errors
var (
	// ErrToolNotFound is returned when a tool is not registered
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolAlreadyRegistered is returned when trying to register a duplicate tool name.
	ErrToolAlreadyRegistered = errors.New("tool already registered")

	// ErrInvalidParams is returned when call arguments do not match the tool's parameters.
	ErrInvalidParams = errors.New("invalid parameters")
)

// ToolError wraps errors with tool context.
type ToolError struct {
	ToolName string
	Err      error
}

func (e *ToolError) Error() string {
	return "tool " + e.ToolName + ": " + e.Err.Error()
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Tools is a collection of callable tools.
type Tools struct {
	tools      map[string]*tool
	middleware []ToolMiddleware
	container  ContainerExecutor
	mu         sync.RWMutex
}

// tool is an internal representation of a registered tool.
type tool struct {
	name        string
	module      string
	description string
	fn          ToolFunc
	params      map[string]ParamDef
	schema      Schema
	onError     ErrorRenderer
}

// ParamDef defines a tool parameter.
type ParamDef struct {
	Type        string   `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
	Required    bool     `json:"required" yaml:"required"`
	Default     any      `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []string `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// ToolDef is an explicit tool definition.
type ToolDef struct {
	Description string
	Fn          ToolFunc
	Params      map[string]ParamDef

	// OnError renders a failed call as result text. Nil uses DefaultErrorText.
	OnError ErrorRenderer
}

// ToolFunc is the signature for tool execution.
type ToolFunc func(ctx context.Context, params map[string]any) (string, error)

// ToolMiddleware wraps tool execution. name is the tool being called.
type ToolMiddleware func(name string, next ToolFunc) ToolFunc

// ErrorRenderer turns a tool failure into the text handed back to the caller.
type ErrorRenderer func(err error, params map[string]any) string

// DefaultErrorText renders err with the failure glyph.
func DefaultErrorText(err error, _ map[string]any) string {
	return "❌ " + err.Error()
}

// Schema describes a tool to a dispatcher.
type Schema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Info is a registered tool as listed by Tools.List.
type Info struct {
	Name        string
	Module      string
	Description string
	Params      map[string]ParamDef
}

// Result is the text outcome of Invoke.
type Result struct {
	Text    string `json:"text"`
	IsError bool   `json:"isError"`
}

// ToolsOption configures Tools.
type ToolsOption func(*Tools)

// NewTools creates a new Tools collection.
func NewTools(opts ...ToolsOption) *Tools {
	t := &Tools{
		tools: make(map[string]*tool),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithContainer enables container_exec extension tools.
func WithContainer(ce ContainerExecutor) ToolsOption {
	return func(t *Tools) {
		t.container = ce
	}
}

// Register adds a single tool outside of any module.
func (t *Tools) Register(name string, def ToolDef) error {
	return t.registerAll("", []Export{{Name: name, Def: def}})
}

// registerAll validates every export and then adds all of them, or none.
func (t *Tools) registerAll(module string, exports []Export) error {
	built := make([]*tool, 0, len(exports))
	seen := make(map[string]bool, len(exports))
	for _, e := range exports {
		if e.Name == "" {
			return errors.New("tool name is required")
		}
		if e.Def.Fn == nil {
			return fmt.Errorf("tool %s: no function", e.Name)
		}
		if seen[e.Name] {
			return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, e.Name)
		}
		seen[e.Name] = true
		built = append(built, newTool(module, e.Name, e.Def))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, tl := range built {
		if existing, exists := t.tools[tl.name]; exists {
			if existing.module != "" {
				return fmt.Errorf("%w: %s (module %s)", ErrToolAlreadyRegistered, tl.name, existing.module)
			}
			return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tl.name)
		}
	}
	for _, tl := range built {
		t.tools[tl.name] = tl
	}
	return nil
}

func newTool(module, name string, def ToolDef) *tool {
	onError := def.OnError
	if onError == nil {
		onError = DefaultErrorText
	}
	return &tool{
		name:        name,
		module:      module,
		description: def.Description,
		fn:          def.Fn,
		params:      def.Params,
		schema:      buildSchema(name, def.Description, def.Params),
		onError:     onError,
	}
}

// Use adds middleware to the tool chain. The first middleware added is the
// outermost.
func (t *Tools) Use(mw ToolMiddleware) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.middleware = append(t.middleware, mw)
}

// Execute calls a tool by name. Defaults are applied and required
// parameters checked before the tool runs.
func (t *Tools) Execute(ctx context.Context, name string, params map[string]any) (string, error) {
	t.mu.RLock()
	tl, ok := t.tools[name]
	middleware := t.middleware
	t.mu.RUnlock()

	if !ok {
		return "", &ToolError{ToolName: name, Err: ErrToolNotFound}
	}

	params, err := prepareParams(tl.params, params)
	if err != nil {
		return "", &ToolError{ToolName: name, Err: err}
	}

	exec := tl.fn
	for i := len(middleware) - 1; i >= 0; i-- {
		exec = middleware[i](name, exec)
	}

	result, err := exec(ctx, params)
	if err != nil {
		return "", &ToolError{ToolName: name, Err: err}
	}

	return result, nil
}

// Invoke calls a tool and renders any failure as text with the tool's
// error renderer. The returned error is non-nil only for unknown tools.
func (t *Tools) Invoke(ctx context.Context, name string, params map[string]any) (Result, error) {
	t.mu.RLock()
	tl, ok := t.tools[name]
	t.mu.RUnlock()
	if !ok {
		return Result{}, &ToolError{ToolName: name, Err: ErrToolNotFound}
	}

	text, err := t.Execute(ctx, name, params)
	if err != nil {
		var te *ToolError
		if errors.As(err, &te) && te.ToolName == name {
			err = te.Err
		}
		return Result{Text: tl.onError(err, params), IsError: true}, nil
	}
	return Result{Text: text}, nil
}

// Has reports whether name is registered.
func (t *Tools) Has(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.tools[name]
	return ok
}

// Names returns the registered tool names in sorted order.
func (t *Tools) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.tools))
	for name := range t.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema returns the schemas for all tools, sorted by name.
func (t *Tools) Schema() []Schema {
	t.mu.RLock()
	defer t.mu.RUnlock()
	schemas := make([]Schema, 0, len(t.tools))
	for _, tl := range t.tools {
		schemas = append(schemas, tl.schema)
	}
	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
	return schemas
}

// List returns every registered tool sorted by module and name.
func (t *Tools) List() []Info {
	t.mu.RLock()
	defer t.mu.RUnlock()
	infos := make([]Info, 0, len(t.tools))
	for _, tl := range t.tools {
		infos = append(infos, Info{
			Name:        tl.name,
			Module:      tl.module,
			Description: tl.description,
			Params:      tl.params,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Module != infos[j].Module {
			return infos[i].Module < infos[j].Module
		}
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// buildSchema builds a JSON schema from explicit definitions.
func buildSchema(name, description string, params map[string]ParamDef) Schema {
	props := make(map[string]any)
	required := []string{}

	for pname, pdef := range params {
		prop := map[string]any{
			"type": pdef.Type,
		}
		if pdef.Description != "" {
			prop["description"] = pdef.Description
		}
		if len(pdef.Enum) > 0 {
			prop["enum"] = pdef.Enum
		}
		if pdef.Default != nil {
			prop["default"] = pdef.Default
		}
		props[pname] = prop

		if pdef.Required {
			required = append(required, pname)
		}
	}
	sort.Strings(required)

	return Schema{
		Name:        name,
		Description: description,
		InputSchema: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		},
	}
}

// prepareParams copies params, fills in defaults and checks required and
// enumerated values. Unknown arguments are passed through.
func prepareParams(defs map[string]ParamDef, params map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(params)+len(defs))
	for k, v := range params {
		out[k] = v
	}

	var missing []string
	for name, def := range defs {
		v, ok := out[name]
		if !ok || v == nil {
			if def.Default != nil {
				out[name] = def.Default
				continue
			}
			if def.Required {
				missing = append(missing, name)
			}
			continue
		}
		if len(def.Enum) > 0 {
			s := fmt.Sprint(v)
			if !contains(def.Enum, s) {
				return nil, fmt.Errorf("%w: %s must be one of %s, got %q",
					ErrInvalidParams, name, strings.Join(def.Enum, ", "), s)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing required parameter(s): %s",
			ErrInvalidParams, strings.Join(missing, ", "))
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
