// Package redistore persists snapshots as a JSON document in Redis.
package redistore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kvisten/autosave/store"
)

// Options configures a redis-backed store.
type Options struct {
	Addr     string
	Password string
	DB       int

	// TTL expires the document after inactivity. Zero keeps it forever.
	TTL time.Duration
}

// Store keeps the document at a single Redis key.
type Store[T any] struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// document is the stored JSON shape.
type document[T any] struct {
	Meta  store.Meta `json:"meta"`
	State T          `json:"state"`
}

// New connects to Redis and binds the store to the given document key.
func New[T any](opts Options, key string) (*Store[T], error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redistore: connect %s: %w", opts.Addr, err)
	}
	s := Wrap[T](client, key, opts.TTL)
	return s, nil
}

// Wrap builds a store on an existing client. The caller keeps ownership of
// the client; Close on a wrapped store still closes it.
func Wrap[T any](client *redis.Client, key string, ttl time.Duration) *Store[T] {
	return &Store[T]{client: client, key: "autosave:" + store.Key(key), ttl: ttl}
}

// Close releases the underlying client.
func (s *Store[T]) Close() error { return s.client.Close() }

// Load implements store.Store.
func (s *Store[T]) Load(ctx context.Context) (T, store.Meta, bool, error) {
	var zero T
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return zero, store.Meta{}, false, nil
	}
	if err != nil {
		return zero, store.Meta{}, false, fmt.Errorf("redistore: get %s: %w", s.key, err)
	}
	var doc document[T]
	if err := json.Unmarshal(data, &doc); err != nil {
		return zero, store.Meta{}, false, fmt.Errorf("redistore: decode %s: %w", s.key, err)
	}
	return doc.State, doc.Meta, true, nil
}

// Save implements store.Store.
func (s *Store[T]) Save(ctx context.Context, snapshot T, meta store.Meta) (store.Meta, error) {
	meta = store.Stamp(meta)
	data, err := json.Marshal(document[T]{Meta: meta, State: snapshot})
	if err != nil {
		return store.Meta{}, fmt.Errorf("redistore: encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return store.Meta{}, fmt.Errorf("redistore: set %s: %w", s.key, err)
	}
	return meta, nil
}
