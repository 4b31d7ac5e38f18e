package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ThumbPrefix is the storage-key prefix for generated thumbnails.
// Originals and thumbnails share the same directory.
const ThumbPrefix = "thumb_"

// Store is a filesystem blob store addressed by sanitized filename.
type Store struct {
	basePath string
}

// New creates a store rooted at basePath, creating the directory if needed.
func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// Path returns the filesystem path for a storage key.
func (s *Store) Path(name string) string {
	return filepath.Join(s.basePath, name)
}

// Save writes the contents of r under the given storage key.
func (s *Store) Save(name string, r io.Reader) error {
	file, err := os.Create(s.Path(name))
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", name, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, r); err != nil {
		return fmt.Errorf("failed to write file %s: %w", name, err)
	}
	return nil
}

// Open opens the file stored under the given key for reading.
func (s *Store) Open(name string) (io.ReadCloser, error) {
	file, err := os.Open(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file %s not found: %w", name, err)
		}
		return nil, err
	}
	return file, nil
}

// Exists reports whether a file is stored under the given key.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Remove deletes the file stored under the given key.
// Removing a missing file is not an error.
func (s *Store) Remove(name string) error {
	err := os.Remove(s.Path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces a client-supplied filename to a safe storage key:
// directory components are stripped and anything outside [A-Za-z0-9_.-]
// becomes an underscore. Returns "" if nothing usable remains.
func SanitizeFilename(name string) string {
	// Strip both unix and windows style directory prefixes.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return ""
	}
	return name
}
