// Package uploads stores user-submitted files on the local filesystem and
// serves them under a public URL prefix.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the public path uploads are served under.
const URLPrefix = "/uploads/"

// Store writes files below a root directory. File names are prefixed with a
// UUID so uploads never collide.
type Store struct {
	root string
}

// New creates the root directory if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the directory files are written to.
func (s *Store) Root() string { return s.root }

// Save writes the content into subdir and returns its public URL path.
func (s *Store) Save(subdir, originalName string, r io.Reader) (string, error) {
	name := uuid.NewString() + "_" + sanitize(originalName)
	dir := filepath.Join(s.root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s dir: %w", subdir, err)
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return URLPrefix + subdir + "/" + name, nil
}

// Remove deletes the file behind a local upload URL. URLs outside the upload
// prefix, such as external catalog images, are left alone.
func (s *Store) Remove(url string) error {
	rel, ok := strings.CutPrefix(url, URLPrefix)
	if !ok || rel == "" {
		return nil
	}
	rel = filepath.Clean(rel)
	if strings.HasPrefix(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, rel))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func sanitize(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		name = "file"
	}
	return name
}
