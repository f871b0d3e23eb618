// Package redis implements ports.EntryStore on Redis, giving entries
// durability across hub restarts and visibility across replicas.
//
// Layout: one JSON value per entry under <prefix><entry_id>, plus a list
// at <prefix>index holding entry IDs in creation order.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/hearthd/hearthd/pkg/domain"
)

// Store implements ports.EntryStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
}

// Option configures the Store.
type Option func(*Store)

// WithPrefix sets the key prefix for entries.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "hearthd:entry:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(entryID string) string {
	return s.prefix + entryID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the entry, registering it in the order index on first
// sight. Both writes travel in one transaction so a crash cannot leave
// an indexed entry without a body.
func (s *Store) Save(ctx context.Context, entry *domain.ConfigEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	exists, err := s.client.Exists(ctx, s.key(entry.EntryID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check entry existence: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(entry.EntryID), data, 0)
	if exists == 0 {
		pipe.RPush(ctx, s.indexKey(), entry.EntryID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist entry: %w", err)
	}
	return nil
}

// Delete removes the entry and its index slot.
func (s *Store) Delete(ctx context.Context, entryID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(entryID))
	pipe.LRem(ctx, s.indexKey(), 0, entryID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// List returns all entries in creation order. Index slots whose body
// vanished (manual cleanup, expiry) are skipped.
func (s *Store) List(ctx context.Context) ([]*domain.ConfigEntry, error) {
	ids, err := s.client.LRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read entry index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}

	out := make([]*domain.ConfigEntry, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var entry domain.ConfigEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry %s: %w", ids[i], err)
		}
		out = append(out, &entry)
	}
	return out, nil
}
