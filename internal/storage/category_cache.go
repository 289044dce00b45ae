package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"financas/internal/cache"
	"financas/internal/core"
)

// CachedCategoryStore puts an LRU in front of category resolution. Every
// entry write resolves its category, and categories never change after
// seeding, so a short TTL cache removes one query from the hot path.
type CachedCategoryStore struct {
	inner CategoryStore
	byID  *cache.LRUCache[core.Category]
}

// CategoryStore is the category lookup surface of the repository.
type CategoryStore interface {
	GetByIDAndOwner(ctx context.Context, id, owner uuid.UUID) (core.Category, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]core.Category, error)
}

func NewCachedCategoryStore(inner CategoryStore, size int, ttl time.Duration) *CachedCategoryStore {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedCategoryStore{
		inner: inner,
		byID:  cache.NewLRUCache[core.Category](size, ttl),
	}
}

// GetByIDAndOwner serves from the cache when possible. Misses, including
// not-found results, always hit the inner store, so a foreign owner can never
// read another owner's cached row.
func (s *CachedCategoryStore) GetByIDAndOwner(ctx context.Context, id, owner uuid.UUID) (core.Category, error) {
	key := id.String() + "/" + owner.String()
	if c, ok := s.byID.Get(key); ok {
		return c, nil
	}

	c, err := s.inner.GetByIDAndOwner(ctx, id, owner)
	if err != nil {
		return core.Category{}, err
	}
	s.byID.Set(key, c)
	return c, nil
}

// ListByOwner is not cached; listing happens once per page load, not per
// write.
func (s *CachedCategoryStore) ListByOwner(ctx context.Context, owner uuid.UUID) ([]core.Category, error) {
	return s.inner.ListByOwner(ctx, owner)
}
