package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFilesystemWriteAndRead(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	provider := NewFilesystem(root)

	if err := WriteFile(ctx, provider, "de/reviews/index.html", []byte("<html></html>")); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, ok, err := ReadFile(ctx, provider, "de/reviews/index.html")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !ok {
		t.Fatal("expected file to exist")
	}
	if string(data) != "<html></html>" {
		t.Fatalf("expected written content, got %q", string(data))
	}

	entries, err := os.ReadDir(filepath.Join(root, "de", "reviews"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("expected temp file to be renamed, found %s", entry.Name())
		}
	}
}

func TestFilesystemReadMissingFile(t *testing.T) {
	provider := NewFilesystem(t.TempDir())

	data, ok, err := ReadFile(context.Background(), provider, "missing.json")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if ok || data != nil {
		t.Fatalf("expected missing result, got ok=%v data=%q", ok, data)
	}
}

func TestFilesystemPathsStayInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	provider := NewFilesystem(root)

	if err := WriteFile(ctx, provider, "../escape.txt", []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); err != nil {
		t.Fatalf("expected write to be confined to root: %v", err)
	}
}

func TestFilesystemOverwriteReplacesContent(t *testing.T) {
	ctx := context.Background()
	provider := NewFilesystem(t.TempDir())

	for _, content := range []string{`{"a":"1"}`, `{"a":"2"}`} {
		if err := WriteFile(ctx, provider, "locales/de.json", []byte(content)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	data, _, err := ReadFile(ctx, provider, "locales/de.json")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"a":"2"}` {
		t.Fatalf("expected latest snapshot, got %s", data)
	}
}

func TestFilesystemRemove(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	provider := NewFilesystem(root)

	if err := WriteFile(ctx, provider, "dist/index.html", []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := provider.Exec(ctx, OpRemove, "dist"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "dist")); !os.IsNotExist(err) {
		t.Fatalf("expected dist to be removed, got %v", err)
	}
}
