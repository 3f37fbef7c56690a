package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/mapnotes/internal/core/config"
	"github.com/mohammed-shakir/mapnotes/internal/events"
	"github.com/mohammed-shakir/mapnotes/internal/markers"
	"github.com/mohammed-shakir/mapnotes/internal/workspace"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("MAPNOTES_STORAGE_SQLITE_PATH", filepath.Join(t.TempDir(), "maps.db"))
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNew_SQLitePersistsAcrossRestarts(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := New(ctx, cfg, quiet())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := a.Publisher.(events.Nop); !ok {
		t.Fatalf("expected no-op publisher, got %T", a.Publisher)
	}
	if _, _, err := a.Workspace.PlaceMarker(ctx, workspace.Click{Lat: 59.3, Lng: 18.0}); err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := New(ctx, cfg, quiet())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = b.Close() }()
	if got := len(b.Workspace.Markers()); got != 1 {
		t.Fatalf("expected 1 marker after restart, got %d", got)
	}
}

func TestNew_RedisBackendWithoutH3(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Storage.Backend = "redis"
	cfg.Storage.RedisAddr = mr.Addr()
	cfg.Markers.H3Index = false

	a, err := New(context.Background(), cfg, quiet())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	c := markers.Candidate{Lat: 1, Lng: 1}
	if _, err := a.Workspace.AddMarker(context.Background(), c); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("expected one stored key, got %v", mr.Keys())
	}
}

func TestNew_StorageFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "redis"
	cfg.Storage.RedisAddr = "127.0.0.1:1"

	if _, err := New(context.Background(), cfg, quiet()); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}
