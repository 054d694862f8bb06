package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/kvisten/autosave/store"
	"github.com/kvisten/autosave/store/filestore"
	"github.com/kvisten/autosave/store/redistore"
	"github.com/kvisten/autosave/store/sqlitestore"
)

// Document is the settings document the CLI manages: a free-form map
// persisted wholesale on every flush.
type Document = map[string]any

// backend bundles an opened store with the optional capabilities the
// concrete implementation provides.
type backend struct {
	store store.Store[Document]

	// history lists prior snapshots, newest first. Nil when the backend
	// keeps no history.
	history func(ctx context.Context, limit int) ([]store.Meta, error)

	close func() error
}

// openBackend builds the store the profile names. Callers must Close.
func openBackend(p *Profile) (*backend, error) {
	switch p.Backend {
	case "memory":
		return &backend{store: store.NewMemory[Document]()}, nil

	case "file":
		return &backend{store: filestore.New[Document](p.Path)}, nil

	case "sqlite":
		s, err := sqlitestore.Open[Document](p.Path, p.Key)
		if err != nil {
			return nil, err
		}
		return &backend{store: s, history: s.History, close: s.Close}, nil

	case "redis":
		var ttl time.Duration
		if p.Redis.TTL != "" {
			var err error
			if ttl, err = time.ParseDuration(p.Redis.TTL); err != nil {
				return nil, fmt.Errorf("redis ttl: %w", err)
			}
		}
		s, err := redistore.New[Document](redistore.Options{
			Addr:     p.Redis.Addr,
			Password: p.Redis.Password,
			DB:       p.Redis.DB,
			TTL:      ttl,
		}, p.Key)
		if err != nil {
			return nil, err
		}
		return &backend{store: s, close: s.Close}, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", p.Backend)
	}
}

// Close releases backend resources.
func (b *backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// loadProfileOrFail resolves and validates the profile for a command,
// emitting errors through the formatter.
func loadProfileOrFail(opts *RootOptions, formatter *OutputFormatter) (*Profile, error) {
	profile, verrs, err := LoadProfile(opts.Profile)
	if err != nil {
		return nil, fail(formatter, ExitCommandError, ErrCodeProfileRead, err.Error(), nil)
	}
	if len(verrs) > 0 {
		return nil, fail(formatter, ExitCommandError, ErrCodeProfileInvalid,
			fmt.Sprintf("profile %s is invalid: %s", opts.Profile, verrs[0].Message), nil)
	}
	return profile, nil
}
