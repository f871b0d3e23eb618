package ports

import (
	"context"

	"github.com/hearthd/hearthd/pkg/domain"
)

// SetupPipeline loads and unloads entries against live resources
// (devices, cloud sessions). It lives outside this core; the registry
// notifies it fire-and-forget on create and best-effort on remove.
// Retry policy, if any, belongs to the pipeline itself.
type SetupPipeline interface {
	// Load brings the entry's integration up. Called after the entry is
	// already stored; a failure changes the entry state, not its existence.
	Load(ctx context.Context, entry *domain.ConfigEntry) error

	// Unload tears the entry's integration down before removal. An error
	// does not block deletion; it is reported in the removal outcome.
	Unload(ctx context.Context, entry *domain.ConfigEntry) error
}
