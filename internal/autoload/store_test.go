package autoload

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/dshills/modkernel/internal/storage"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestStoreRoundTripAcrossRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	kv, err := storage.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	s := NewStore(kv, quietLogger())
	if err := s.Add(ctx, "example-mod", `return { id = "example-mod" }`); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	kv.Close()

	// Simulate a process restart with a fresh KV over the same file.
	kv, err = storage.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() reopen error = %v", err)
	}
	s = NewStore(kv, quietLogger())

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	want := []Entry{{ID: "example-mod", Source: `return { id = "example-mod" }`}}
	if diff := cmp.Diff(want, all); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}

	if err := s.Remove(ctx, "example-mod"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	all, _ = s.All(ctx)
	if len(all) != 0 {
		t.Errorf("All() after Remove = %v, want empty", all)
	}
}

func TestStorePreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), quietLogger())

	for _, id := range []string{"zeta", "alpha", "mid.dle"} {
		if err := s.Add(ctx, id, "src-"+id); err != nil {
			t.Fatalf("Add(%q) error = %v", id, err)
		}
	}
	// Replacing an existing id keeps its position.
	if err := s.Add(ctx, "zeta", "src-zeta-2"); err != nil {
		t.Fatalf("Add() replace error = %v", err)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	want := []Entry{
		{ID: "zeta", Source: "src-zeta-2"},
		{ID: "alpha", Source: "src-alpha"},
		{ID: "mid.dle", Source: "src-mid.dle"},
	}
	if diff := cmp.Diff(want, all); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreIsAutoloaded(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), quietLogger())

	if ok, _ := s.IsAutoloaded(ctx, "m"); ok {
		t.Error("IsAutoloaded() = true before Add")
	}
	s.Add(ctx, "m", "src")
	if ok, _ := s.IsAutoloaded(ctx, "m"); !ok {
		t.Error("IsAutoloaded() = false after Add")
	}
	if src, ok, _ := s.Source(ctx, "m"); !ok || src != "src" {
		t.Errorf("Source() = %q, %v", src, ok)
	}
	if err := s.Remove(ctx, "absent"); err != nil {
		t.Errorf("Remove(absent) error = %v", err)
	}
}

func TestStoreCorruptBlobIsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	kv.Set(ctx, ModsKey, "[not, an object")

	s := NewStore(kv, quietLogger())
	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("All() = %v, want empty for corrupt blob", all)
	}

	if err := s.Add(ctx, "m", "src"); err != nil {
		t.Fatalf("Add() over corrupt blob error = %v", err)
	}
	all, _ = s.All(ctx)
	if len(all) != 1 || all[0].ID != "m" {
		t.Errorf("All() after Add = %v", all)
	}
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	got, err := LoadSettings(ctx, kv, quietLogger())
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got != DefaultSettings() {
		t.Errorf("LoadSettings() = %+v, want defaults", got)
	}

	if err := SaveSettings(ctx, kv, Settings{AutoloadOnStartup: false}); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	got, _ = LoadSettings(ctx, kv, quietLogger())
	if got.AutoloadOnStartup {
		t.Error("AutoloadOnStartup = true after saving false")
	}

	kv.Set(ctx, SettingsKey, "{{{")
	got, err = LoadSettings(ctx, kv, quietLogger())
	if err != nil {
		t.Fatalf("LoadSettings() corrupt error = %v", err)
	}
	if got != DefaultSettings() {
		t.Errorf("LoadSettings() corrupt = %+v, want defaults", got)
	}
}

func TestStoreSpecialIDs(t *testing.T) {
	ids := []string{":c", "::x", "a:b", "a.b", "#", "@mod", "a|b", "*", `"q"`, "42"}

	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			ctx := context.Background()
			s := NewStore(storage.NewMemory(), quietLogger())

			if err := s.Add(ctx, id, "src-"+id); err != nil {
				t.Fatalf("Add() error = %v", err)
			}
			if ok, _ := s.IsAutoloaded(ctx, id); !ok {
				t.Errorf("IsAutoloaded(%q) = false after Add", id)
			}
			all, err := s.All(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]Entry{{ID: id, Source: "src-" + id}}, all); diff != "" {
				t.Errorf("All() mismatch (-want +got):\n%s", diff)
			}

			if err := s.Remove(ctx, id); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
			if all, _ := s.All(ctx); len(all) != 0 {
				t.Errorf("All() after Remove = %v", all)
			}
		})
	}
}
