package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func constTool(out string) ToolDef {
	return ToolDef{Fn: func(ctx context.Context, params map[string]any) (string, error) { return out, nil }}
}

func TestLoadModules(t *testing.T) {
	t.Run("registers public exports", func(t *testing.T) {
		ts := NewTools()
		err := ts.LoadModules(Module{
			Name: "greetings",
			Exports: func() []Export {
				return []Export{
					{Name: "hello", Def: constTool("hello")},
					{Name: "_helper", Def: constTool("private")},
				}
			},
		})
		if err != nil {
			t.Fatalf("LoadModules: %v", err)
		}
		if !ts.Has("hello") {
			t.Error("hello should be registered")
		}
		if ts.Has("_helper") {
			t.Error("_helper should be skipped")
		}
	})

	t.Run("panicking module does not block others", func(t *testing.T) {
		ts := NewTools()
		err := ts.LoadModules(
			Module{Name: "broken", Exports: func() []Export { panic("import failed") }},
			Module{Name: "good", Exports: func() []Export {
				return []Export{{Name: "ok", Def: constTool("ok")}}
			}},
		)
		if err == nil {
			t.Fatal("expected broken module to be reported")
		}
		var me *ModuleError
		if !errors.As(err, &me) || me.Module != "broken" {
			t.Errorf("err = %v, want ModuleError for broken", err)
		}
		if !strings.Contains(err.Error(), "import failed") {
			t.Errorf("err = %v, want panic value", err)
		}
		if !ts.Has("ok") {
			t.Error("ok should be registered")
		}
	})

	t.Run("duplicate skips the whole module", func(t *testing.T) {
		ts := NewTools()
		err := ts.LoadModules(
			Module{Name: "first", Exports: func() []Export {
				return []Export{{Name: "shared", Def: constTool("first")}}
			}},
			Module{Name: "second", Exports: func() []Export {
				return []Export{
					{Name: "unique", Def: constTool("unique")},
					{Name: "shared", Def: constTool("second")},
				}
			}},
		)
		if !errors.Is(err, ErrToolAlreadyRegistered) {
			t.Fatalf("err = %v, want ErrToolAlreadyRegistered", err)
		}
		if !strings.Contains(err.Error(), "module first") {
			t.Errorf("err = %v, want owning module named", err)
		}
		if ts.Has("unique") {
			t.Error("unique should not be registered when its module fails")
		}
		out, _ := ts.Execute(context.Background(), "shared", nil)
		if out != "first" {
			t.Errorf("shared = %q, want first", out)
		}
	})

	t.Run("nil export list", func(t *testing.T) {
		ts := NewTools()
		if err := ts.LoadModules(Module{Name: "empty"}); err == nil {
			t.Fatal("expected error for module without exports")
		}
	})
}
