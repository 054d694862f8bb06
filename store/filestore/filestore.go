// Package filestore persists one YAML document on disk.
//
// Writes are atomic: the document is written to a temp file in the target
// directory and renamed into place, so a crash mid-save never leaves a
// truncated document behind.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kvisten/autosave/store"
)

// Store persists snapshots of T as a single YAML file at a fixed path.
type Store[T any] struct {
	path string
}

// document is the on-disk shape: metadata alongside the state itself.
type document[T any] struct {
	Meta  store.Meta `yaml:"meta"`
	State T          `yaml:"state"`
}

// New creates a file store for the given path. The file and its directory
// are created on first Save.
func New[T any](path string) *Store[T] {
	return &Store[T]{path: path}
}

// Path returns the file path used by this store.
func (s *Store[T]) Path() string { return s.path }

// Load implements store.Store. A missing file means no document yet.
func (s *Store[T]) Load(_ context.Context) (T, store.Meta, bool, error) {
	var zero T
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return zero, store.Meta{}, false, nil
	}
	if err != nil {
		return zero, store.Meta{}, false, fmt.Errorf("filestore: read %s: %w", s.path, err)
	}
	var doc document[T]
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return zero, store.Meta{}, false, fmt.Errorf("filestore: decode %s: %w", s.path, err)
	}
	return doc.State, doc.Meta, true, nil
}

// Save implements store.Store with an atomic temp-and-rename write.
func (s *Store[T]) Save(_ context.Context, snapshot T, meta store.Meta) (store.Meta, error) {
	meta = store.Stamp(meta)
	data, err := yaml.Marshal(document[T]{Meta: meta, State: snapshot})
	if err != nil {
		return store.Meta{}, fmt.Errorf("filestore: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return store.Meta{}, fmt.Errorf("filestore: create %s: %w", dir, err)
	}
	// Temp file lives in the target directory so the rename stays on one
	// filesystem.
	tmp, err := os.CreateTemp(dir, ".autosave-*")
	if err != nil {
		return store.Meta{}, fmt.Errorf("filestore: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return store.Meta{}, fmt.Errorf("filestore: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return store.Meta{}, fmt.Errorf("filestore: close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return store.Meta{}, fmt.Errorf("filestore: chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return store.Meta{}, fmt.Errorf("filestore: rename to %s: %w", s.path, err)
	}
	return meta, nil
}

// Exists reports whether a saved document exists.
func (s *Store[T]) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Clear removes the saved document. Removing a document that does not
// exist is not an error.
func (s *Store[T]) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
