package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "a.png", want: "a.png"},
		{in: "/nested/./b.png", want: "nested/b.png"},
		{in: `dir\c.png`, want: "dir/c.png"},
		{in: "../escape.png", wantErr: true},
		{in: "a/../../escape.png", wantErr: true},
		{in: "..", wantErr: true},
		{in: "  ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := sanitizeKey(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("sanitizeKey(%q) expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("sanitizeKey(%q) = (%q, %v), want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestFileStoreSaveAndPublicURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "http://localhost:3001/uploads/")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	key, err := store.Save(context.Background(), "ad_", "png", []byte("data"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(key, "ad_") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected key %q", key)
	}
	raw, err := os.ReadFile(filepath.Join(dir, key))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(raw) != "data" {
		t.Fatalf("content = %q", raw)
	}
	if got := store.PublicURL(key); got != "http://localhost:3001/uploads/"+key {
		t.Fatalf("PublicURL = %q", got)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://h/uploads")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Write(context.Background(), "../../etc/passwd", nil); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
	if _, err := store.Save(context.Background(), "x/", ".png", nil); err == nil {
		t.Fatal("expected prefix with separator to be rejected")
	}
}

func TestFileStoreCanceledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Write(ctx, "a.png", nil); err == nil {
		t.Fatal("expected canceled context error")
	}
}
