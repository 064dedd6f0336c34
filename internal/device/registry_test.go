package device

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeDevices(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("writing devices file: %v", err)
	}
	return path
}

func testDeps() Deps {
	return Deps{
		Logger:   zap.NewNop(),
		Backoff:  time.Millisecond,
		Deadline: 100 * time.Millisecond,
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("empty path serves the builtin test device", func(t *testing.T) {
		reg, err := Load(ctx, "", testDeps())
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		dev, ok := reg.Lookup("test")
		if !ok {
			t.Fatal("builtin test device missing")
		}
		if dev.Content.Href() != "/content/test" {
			t.Errorf("got content address %q", dev.Content.Href())
		}
		if _, ok := dev.Screen.Remote(); ok {
			t.Error("builtin device must render locally")
		}
	})

	t.Run("loads single and side-by-side devices", func(t *testing.T) {
		path := writeDevices(t, `
sources:
  quotes:
    plugin: static
  more-quotes:
    plugin: static
devices:
  kitchen:
    single: quotes
  hallway:
    left: quotes
    right: more-quotes
`)
		reg, err := Load(ctx, path, testDeps())
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		for _, id := range []string{"kitchen", "hallway", "test"} {
			if _, ok := reg.Lookup(id); !ok {
				t.Errorf("device %q missing", id)
			}
		}
		if got := len(reg.IDs()); got != 3 {
			t.Errorf("got %d devices, want 3", got)
		}
	})

	t.Run("shared source serves several devices", func(t *testing.T) {
		path := writeDevices(t, `
sources:
  quotes:
    plugin: static
devices:
  a:
    single: quotes
  b:
    left: quotes
    right: quotes
`)
		if _, err := Load(ctx, path, testDeps()); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	})

	t.Run("remote device keeps its upstream address", func(t *testing.T) {
		path := writeDevices(t, `
devices:
  lobby:
    remote: https://screens.example.com/lobby
`)
		reg, err := Load(ctx, path, testDeps())
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		dev, ok := reg.Lookup("lobby")
		if !ok {
			t.Fatal("device missing")
		}
		if dev.Content.Href() != "https://screens.example.com/lobby" {
			t.Errorf("got content address %q", dev.Content.Href())
		}
		if _, ok := dev.Screen.Remote(); !ok {
			t.Error("expected a pass-through screen")
		}
	})

	t.Run("relative remote fails startup", func(t *testing.T) {
		path := writeDevices(t, `
devices:
  lobby:
    remote: /screen/elsewhere
`)
		_, err := Load(ctx, path, testDeps())
		if err == nil || !strings.Contains(err.Error(), "absolute") {
			t.Errorf("got %v, want absolute-address error", err)
		}
	})

	t.Run("unknown plugin fails startup", func(t *testing.T) {
		path := writeDevices(t, `
sources:
  mystery:
    plugin: crystal-ball
devices:
  kitchen:
    single: mystery
`)
		if _, err := Load(ctx, path, testDeps()); err == nil {
			t.Error("expected failure for unknown plugin")
		}
	})

	t.Run("unknown source reference fails startup", func(t *testing.T) {
		path := writeDevices(t, `
devices:
  kitchen:
    single: nothing-here
`)
		if _, err := Load(ctx, path, testDeps()); err == nil {
			t.Error("expected failure for dangling source reference")
		}
	})

	t.Run("misconfigured ticktick source fails startup", func(t *testing.T) {
		path := writeDevices(t, `
sources:
  todos:
    plugin: ticktick
devices:
  kitchen:
    single: todos
`)
		if _, err := Load(ctx, path, testDeps()); err == nil {
			t.Error("expected failure for ticktick source without credentials")
		}
	})

	t.Run("device without composition fails startup", func(t *testing.T) {
		path := writeDevices(t, `
devices:
  kitchen: {}
`)
		if _, err := Load(ctx, path, testDeps()); err == nil {
			t.Error("expected failure for empty device spec")
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		if _, err := Load(ctx, filepath.Join(t.TempDir(), "nope.yaml"), testDeps()); err == nil {
			t.Error("expected failure for missing file")
		}
	})
}
