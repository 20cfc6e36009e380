package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeRunFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write run file: %v", err)
	}
	return p
}

func TestLocalStorage_UploadExists(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	ctx := context.Background()
	src := writeRunFile(t, "run.json", `{"driver":"sqlite3"}`)

	key := "runs/2024/run.json"
	if err := storage.Upload(ctx, src, key); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	exists, err := storage.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected object to exist")
	}

	data, err := os.ReadFile(storage.fullPath(key))
	if err != nil {
		t.Fatalf("failed to read archived object: %v", err)
	}
	if string(data) != `{"driver":"sqlite3"}` {
		t.Errorf("content mismatch: got %q", data)
	}

	exists, err = storage.Exists(ctx, "runs/2024/other.json")
	if err != nil {
		t.Fatalf("Exists of missing key failed: %v", err)
	}
	if exists {
		t.Error("expected missing object to be reported absent")
	}
}

func TestLocalStorage_UploadOverwrites(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	ctx := context.Background()

	if err := storage.Upload(ctx, writeRunFile(t, "a.json", "first"), "run.json"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if err := storage.Upload(ctx, writeRunFile(t, "b.json", "second"), "run.json"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	data, err := os.ReadFile(storage.fullPath("run.json"))
	if err != nil {
		t.Fatalf("failed to read archived object: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected overwritten content, got %q", data)
	}

	entries, err := os.ReadDir(storage.basePath)
	if err != nil {
		t.Fatalf("failed to read archive directory: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestLocalStorage_UploadMissingSource(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	err = storage.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.json"), "x.json")
	if err == nil {
		t.Fatal("expected error for missing source file")
	}
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := storage.Upload(ctx, "ignored", "x"); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestArchive(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	src := writeRunFile(t, "run.json.sz", "payload")
	started := time.Date(2024, 3, 1, 12, 4, 5, 0, time.UTC)

	key, err := Archive(context.Background(), storage, "fetchbench", started, src)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if key != "fetchbench/2024/03/01/120405-run.json.sz" {
		t.Errorf("unexpected key %q", key)
	}
	exists, err := storage.Exists(context.Background(), key)
	if err != nil || !exists {
		t.Errorf("archived object missing: exists=%v err=%v", exists, err)
	}
}

func TestArchive_KeepsExistingRun(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	ctx := context.Background()
	started := time.Date(2024, 3, 1, 12, 4, 5, 0, time.UTC)

	first, err := Archive(ctx, storage, "fetchbench", started, writeRunFile(t, "run.json", "first"))
	if err != nil {
		t.Fatalf("first Archive failed: %v", err)
	}
	second, err := Archive(ctx, storage, "fetchbench", started, writeRunFile(t, "run.json", "second"))
	if err != nil {
		t.Fatalf("second Archive failed: %v", err)
	}

	if first != "fetchbench/2024/03/01/120405-run.json" {
		t.Errorf("unexpected first key %q", first)
	}
	if second != "fetchbench/2024/03/01/120405-2-run.json" {
		t.Errorf("unexpected second key %q", second)
	}

	for key, want := range map[string]string{first: "first", second: "second"} {
		data, err := os.ReadFile(storage.fullPath(key))
		if err != nil {
			t.Fatalf("failed to read %s: %v", key, err)
		}
		if string(data) != want {
			t.Errorf("%s: got %q, want %q", key, data, want)
		}
	}
}

func TestRunKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	started := time.Date(2024, 3, 1, 1, 0, 0, 0, loc)
	if got := RunKey("", started, "/tmp/run.json"); got != "2024/02/29/230000-run.json" {
		t.Errorf("unexpected key %q", got)
	}
}
