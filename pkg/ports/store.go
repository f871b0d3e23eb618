package ports

import (
	"context"

	"github.com/hearthd/hearthd/pkg/domain"
)

// EntryStore persists config entries. The entry registry writes through
// to the store on every mutation and restores from it at boot, so the
// store is the durable source of truth across restarts.
//
// List must return entries in their original creation order.
type EntryStore interface {
	Save(ctx context.Context, entry *domain.ConfigEntry) error

	Delete(ctx context.Context, entryID string) error

	List(ctx context.Context) ([]*domain.ConfigEntry, error)
}
