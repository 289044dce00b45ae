package core

import (
	"time"

	"github.com/google/uuid"
)

// Category is an owner-scoped label with a polarity: an income category
// accepts income entries only, an expense category expense entries only.
type Category struct {
	ID        uuid.UUID
	Name      string
	Kind      Kind
	OwnerID   uuid.UUID
	CreatedAt time.Time
}

// Accepts reports whether entries of kind k may use this category.
func (c Category) Accepts(k Kind) bool {
	return c.Kind == k
}
