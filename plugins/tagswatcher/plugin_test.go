package tagswatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/wiresplit/pkg/log"
	"github.com/bft-labs/wiresplit/pkg/tags"
	"github.com/bft-labs/wiresplit/pkg/wiresplit"
)

func TestPlugin_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.toml")
	if err := os.WriteFile(path, []byte("[tags]\n1 = \"OLD\"\n"), 0644); err != nil {
		t.Fatalf("write tags: %v", err)
	}

	registry, err := tags.LoadFile(path)
	if err != nil {
		t.Fatalf("load tags: %v", err)
	}

	plugin := New(Config{DebounceDelay: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = plugin.Initialize(ctx, wiresplit.PluginConfig{
		TagsFile: path,
		Tags:     registry,
		Logger:   log.NewNoopLogger(),
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer plugin.Shutdown(context.Background())

	if err := os.WriteFile(path, []byte("[tags]\n1 = \"NEW\"\n2 = \"EXTRA\"\n"), 0644); err != nil {
		t.Fatalf("rewrite tags: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for registry.Name(2) != "EXTRA" {
		if time.Now().After(deadline) {
			t.Fatalf("tags not reloaded, name(2) = %q", registry.Name(2))
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := registry.Name(1); got != "NEW" {
		t.Errorf("Name(1) = %q, want NEW", got)
	}
	if plugin.Reloads() < 1 {
		t.Errorf("Reloads() = %d, want at least 1", plugin.Reloads())
	}
}

func TestPlugin_KeepsTagsOnInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.toml")
	if err := os.WriteFile(path, []byte("[tags]\n1 = \"KEEP\"\n"), 0644); err != nil {
		t.Fatalf("write tags: %v", err)
	}
	registry, err := tags.LoadFile(path)
	if err != nil {
		t.Fatalf("load tags: %v", err)
	}

	plugin := New(Config{DebounceDelay: time.Millisecond})
	plugin.path = path
	plugin.registry = registry
	plugin.logger = log.NewNoopLogger()

	if err := os.WriteFile(path, []byte("not toml ["), 0644); err != nil {
		t.Fatalf("rewrite tags: %v", err)
	}
	plugin.reload()

	if got := registry.Name(1); got != "KEEP" {
		t.Errorf("Name(1) = %q, want KEEP", got)
	}
	if plugin.Reloads() != 0 {
		t.Errorf("Reloads() = %d, want 0", plugin.Reloads())
	}
}

func TestPlugin_DisabledWithoutFile(t *testing.T) {
	plugin := New(DefaultConfig())
	err := plugin.Initialize(context.Background(), wiresplit.PluginConfig{
		Logger: log.NewNoopLogger(),
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := plugin.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if plugin.Name() != "tagswatcher" {
		t.Errorf("Name() = %q", plugin.Name())
	}
}
