package tools

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Export is one named entry of a module's export list.
type Export struct {
	Name string
	Def  ToolDef
}

// Module is a named set of tools. Exports is called once at load time.
type Module struct {
	Name    string
	Exports func() []Export
}

// ModuleError reports a module that could not be loaded.
type ModuleError struct {
	Module string
	Err    error
}

func (e *ModuleError) Error() string {
	return "module " + e.Module + ": " + e.Err.Error()
}

func (e *ModuleError) Unwrap() error {
	return e.Err
}

// LoadModules registers the exports of each module. Names starting with "_"
// are private and skipped. A module that panics or fails to register loads
// nothing; the remaining modules still load and all failures are returned
// joined.
func (t *Tools) LoadModules(mods ...Module) error {
	var errs []error
	for _, m := range mods {
		n, err := t.loadModule(m)
		if err != nil {
			slog.Error("failed to load tool module", "module", m.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		slog.Info("loaded tool module", "module", m.Name, "tools", n)
	}
	return errors.Join(errs...)
}

func (t *Tools) loadModule(m Module) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ModuleError{Module: m.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if m.Exports == nil {
		return 0, &ModuleError{Module: m.Name, Err: errors.New("no export list")}
	}

	var public []Export
	for _, e := range m.Exports() {
		if strings.HasPrefix(e.Name, "_") {
			continue
		}
		public = append(public, e)
	}

	if err := t.registerAll(m.Name, public); err != nil {
		return 0, &ModuleError{Module: m.Name, Err: err}
	}
	return len(public), nil
}
