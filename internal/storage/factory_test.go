package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/BANCS-Norway/session-coordinator/internal/errors"
)

func TestFactory_CreateLocal(t *testing.T) {
	factory := NewFactory()

	adapter, err := factory.Create(Config{
		Adapter: "local",
		Config:  map[string]any{"base_path": t.TempDir()},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer adapter.Close()

	ctx := context.Background()
	if err := adapter.Store(ctx, "laptop:org/repo:issue:1", "status", "open"); err != nil {
		t.Fatalf("created adapter does not work: %v", err)
	}
}

func TestFactory_MissingKind(t *testing.T) {
	factory := NewFactory()

	_, err := factory.Create(Config{Adapter: ""})
	if err == nil {
		t.Fatal("Create with empty kind should fail")
	}
	if !errors.Is(err, errors.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestFactory_UnknownKind(t *testing.T) {
	factory := NewFactory()

	_, err := factory.Create(Config{Adapter: "redis"})
	if err == nil {
		t.Fatal("Create with unknown kind should fail")
	}
	if !errors.Is(err, errors.ErrUnknownAdapter) {
		t.Errorf("error = %v, want ErrUnknownAdapter", err)
	}
	// The message enumerates the registered kinds.
	if !strings.Contains(err.Error(), "local") {
		t.Errorf("error message %q does not list registered kinds", err.Error())
	}
}

func TestFactory_ConstructorFailureWrapped(t *testing.T) {
	factory := NewFactory()
	factory.Register("broken", func(cfg map[string]any) (Adapter, error) {
		return nil, errors.New("backend unreachable")
	})

	_, err := factory.Create(Config{Adapter: "broken"})
	if err == nil {
		t.Fatal("Create with failing constructor should fail")
	}
	if !errors.Is(err, errors.ErrAdapterConstruction) {
		t.Errorf("error = %v, want ErrAdapterConstruction", err)
	}
	if !strings.Contains(err.Error(), "backend unreachable") {
		t.Errorf("error %q does not carry underlying cause", err.Error())
	}
}

func TestFactory_RegisterOverwrites(t *testing.T) {
	factory := NewFactory()

	called := false
	factory.Register("local", func(cfg map[string]any) (Adapter, error) {
		called = true
		return NewLocalAdapter(t.TempDir())
	})

	adapter, err := factory.Create(Config{Adapter: "local"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer adapter.Close()

	if !called {
		t.Error("re-registered constructor was not used; last registration should win")
	}
}

func TestFactory_Kinds(t *testing.T) {
	factory := NewFactory()
	factory.Register("zz-custom", func(cfg map[string]any) (Adapter, error) {
		return NewLocalAdapter(t.TempDir())
	})

	kinds := factory.Kinds()
	if len(kinds) != 2 || kinds[0] != "local" || kinds[1] != "zz-custom" {
		t.Errorf("Kinds = %v, want sorted [local zz-custom]", kinds)
	}
}

func TestFactory_NilBackendConfigDefaults(t *testing.T) {
	factory := NewFactory()
	factory.Register("probe", func(cfg map[string]any) (Adapter, error) {
		if cfg == nil {
			t.Error("constructor received nil config, want empty map")
		}
		return NewLocalAdapter(t.TempDir())
	})

	adapter, err := factory.Create(Config{Adapter: "probe"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	adapter.Close()
}
