package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorage_UploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir, "/uploads/")
	ctx := context.Background()

	asset, err := s.Upload(ctx, "projects/abc.png", strings.NewReader("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if asset.URL != "/uploads/projects/abc.png" {
		t.Errorf("unexpected url %q", asset.URL)
	}
	if asset.PublicID != "projects/abc.png" {
		t.Errorf("unexpected public id %q", asset.PublicID)
	}

	b, err := os.ReadFile(filepath.Join(dir, "projects", "abc.png"))
	if err != nil || string(b) != "png-bytes" {
		t.Fatalf("file not written: %v %q", err, b)
	}

	if err := s.Delete(ctx, asset.PublicID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "projects", "abc.png")); !os.IsNotExist(err) {
		t.Error("expected file to be removed")
	}
	// deleting again is not an error
	if err := s.Delete(ctx, asset.PublicID); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), "/uploads")
	for _, key := range []string{"../escape.png", "/etc/passwd", ""} {
		if _, err := s.Upload(context.Background(), key, strings.NewReader("x"), "image/png"); err == nil {
			t.Errorf("expected error for key %q", key)
		}
		if err := s.Delete(context.Background(), key); err == nil {
			t.Errorf("expected delete error for key %q", key)
		}
	}
}

func TestNewKey(t *testing.T) {
	key, ok := NewKey("projects", "image/jpeg")
	if !ok {
		t.Fatal("expected jpeg to be accepted")
	}
	if !strings.HasPrefix(key, "projects/") || !strings.HasSuffix(key, ".jpg") {
		t.Errorf("unexpected key %q", key)
	}
	other, _ := NewKey("projects", "image/jpeg")
	if key == other {
		t.Error("expected unique keys")
	}
	if _, ok := NewKey("projects", "application/pdf"); ok {
		t.Error("expected pdf to be rejected")
	}
}

func TestDisabled(t *testing.T) {
	var s Storage = Disabled{}
	if _, err := s.Upload(context.Background(), "k", strings.NewReader(""), "image/png"); err != ErrNotConfigured {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
	if err := s.Delete(context.Background(), "k"); err != ErrNotConfigured {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
