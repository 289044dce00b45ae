package export

import (
	"context"

	"github.com/google/uuid"

	"financas/internal/core"
)

// Exporter mirrors ledger entries to an external destination. The database
// stays the source of truth; the mirror is keyed by entry id so upserts are
// idempotent.
type Exporter interface {
	UpsertEntry(ctx context.Context, e core.LedgerEntry) error
	DeleteEntry(ctx context.Context, id uuid.UUID) error
}
