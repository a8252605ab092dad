package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"larder/internal/config"
	"larder/internal/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCaptureCopiesSourceTrees(t *testing.T) {
	base := t.TempDir()
	docs := filepath.Join(base, "docs")
	code := filepath.Join(base, "code")
	writeFile(t, filepath.Join(docs, "a.txt"), "alpha")
	writeFile(t, filepath.Join(docs, "sub", "b.txt"), "beta")
	writeFile(t, filepath.Join(code, "main.go"), "package main")

	staging := filepath.Join(base, "staging")
	capturer := NewCapturer(logging.NewNop())
	err := capturer.Capture(context.Background(), []config.Source{
		{Path: docs, MaxFileSizeBytes: 1 << 20},
		{Path: code, MaxFileSizeBytes: 1 << 20},
	}, staging)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	for _, rel := range []string{
		"docs/a.txt",
		"docs/sub/b.txt",
		"code/main.go",
	} {
		if _, err := os.Stat(filepath.Join(staging, rel)); err != nil {
			t.Errorf("missing staged file %s: %v", rel, err)
		}
	}
}

func TestCaptureSkipsOversizedFiles(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	writeFile(t, filepath.Join(src, "small.txt"), "ok")
	writeFile(t, filepath.Join(src, "big.bin"), "this file exceeds the cap")

	staging := filepath.Join(base, "staging")
	capturer := NewCapturer(logging.NewNop())
	err := capturer.Capture(context.Background(), []config.Source{
		{Path: src, MaxFileSizeBytes: 10},
	}, staging)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(staging, "src", "small.txt")); err != nil {
		t.Errorf("small file should be staged: %v", err)
	}
	if _, err := os.Stat(filepath.Join(staging, "src", "big.bin")); !os.IsNotExist(err) {
		t.Errorf("oversized file should be skipped, stat err = %v", err)
	}
}

func TestCaptureMissingSourceDoesNotFailCycle(t *testing.T) {
	base := t.TempDir()
	good := filepath.Join(base, "good")
	writeFile(t, filepath.Join(good, "keep.txt"), "data")

	staging := filepath.Join(base, "staging")
	capturer := NewCapturer(logging.NewNop())
	err := capturer.Capture(context.Background(), []config.Source{
		{Path: filepath.Join(base, "vanished"), MaxFileSizeBytes: 1 << 20},
		{Path: good, MaxFileSizeBytes: 1 << 20},
	}, staging)
	if err != nil {
		t.Fatalf("Capture must stay best-effort, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(staging, "good", "keep.txt")); err != nil {
		t.Errorf("surviving source should still be staged: %v", err)
	}
}

func TestSubdirNamesDeduplicates(t *testing.T) {
	names := subdirNames([]config.Source{
		{Path: "/home/alice/docs"},
		{Path: "/mnt/shared/docs"},
		{Path: "/etc"},
	})
	want := []string{"docs", "docs_2", "etc"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestSubdirNamesRootSource(t *testing.T) {
	names := subdirNames([]config.Source{{Path: "/"}})
	if names[0] != "root" {
		t.Fatalf("root source mapped to %q", names[0])
	}
}
