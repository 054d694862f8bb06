// Package store defines the persistence contract consumed by the
// synchronizer, plus an in-memory implementation for tests and examples.
//
// A Store instance is bound to exactly one document; the synchronizer's
// whole-snapshot flush model maps onto Save, and startup population maps
// onto Load. Saver and Loader adapt a Store into the callback pair the core
// library expects, keeping the core persistence-agnostic.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/kvisten/autosave"
)

// Meta is storage-owned metadata stamped on every persisted snapshot.
type Meta struct {
	// SnapshotID is a time-sortable UUIDv7 identifying one flush.
	SnapshotID string `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`

	// SavedAt is when the snapshot was handed to the backend.
	SavedAt time.Time `json:"saved_at,omitempty" yaml:"saved_at,omitempty"`

	// Extra carries backend- or caller-specific annotations.
	Extra map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Store loads and saves the single document this instance is bound to.
type Store[T any] interface {
	// Load returns the stored snapshot. ok is false when no document has
	// been saved yet; that is not an error.
	Load(ctx context.Context) (snapshot T, meta Meta, ok bool, err error)

	// Save persists the snapshot wholesale, replacing any prior document,
	// and returns the metadata as stored.
	Save(ctx context.Context, snapshot T, meta Meta) (Meta, error)
}

// NewSnapshotID returns a time-sortable UUIDv7 snapshot identifier.
// Panics if UUID generation fails (should never happen in practice).
func NewSnapshotID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Key canonicalizes a document key: trimmed and NFC-normalized so that
// visually identical keys address the same stored document regardless of
// the Unicode composition the caller happened to use.
func Key(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Stamp fills zero Meta fields with a fresh SnapshotID and SavedAt.
func Stamp(meta Meta) Meta {
	if meta.SnapshotID == "" {
		meta.SnapshotID = NewSnapshotID()
	}
	if meta.SavedAt.IsZero() {
		meta.SavedAt = time.Now().UTC()
	}
	return meta
}

// Saver adapts a Store into the synchronizer's save callback. Each flush is
// stamped with a fresh SnapshotID and SavedAt.
func Saver[T any](s Store[T]) autosave.SaveFunc[T] {
	return func(ctx context.Context, snapshot T) error {
		_, err := s.Save(ctx, snapshot, Stamp(Meta{}))
		return err
	}
}

// Loader adapts a Store into the container's load callback. A missing
// document yields the zero value of T.
func Loader[T any](s Store[T]) autosave.LoadFunc[T] {
	return func(ctx context.Context) (T, error) {
		snapshot, _, ok, err := s.Load(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		if !ok {
			var zero T
			return zero, nil
		}
		return snapshot, nil
	}
}
