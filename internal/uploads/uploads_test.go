package uploads

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndRemove(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	url, err := store.Save("items", "photo.jpg", strings.NewReader("fake image bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(url, URLPrefix+"items/") {
		t.Fatalf("url = %q", url)
	}
	if !strings.HasSuffix(url, "_photo.jpg") {
		t.Fatalf("url should keep the sanitized original name, got %q", url)
	}

	rel := strings.TrimPrefix(url, URLPrefix)
	if _, err := os.Stat(filepath.Join(store.Root(), rel)); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}

	if err := store.Remove(url); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), rel)); !os.IsNotExist(err) {
		t.Fatal("file should be gone after remove")
	}
}

func TestRemoveIgnoresExternalURLs(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Remove("https://cdn.example.com/image.jpg"); err != nil {
		t.Fatalf("external url should be ignored: %v", err)
	}
	if err := store.Remove(URLPrefix + "../etc/passwd"); err != nil {
		t.Fatalf("traversal should be ignored: %v", err)
	}
}

func TestSanitizeStripsUnsafeRunes(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	url, err := store.Save("avatars", "../we ird/na:me.png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if strings.Contains(url, "..") || strings.Contains(url, " ") || strings.Contains(url, ":") {
		t.Fatalf("unsafe characters survived: %q", url)
	}
}
