package item

import (
	"context"

	"github.com/google/uuid"
)

// ItemLookup resolves the current snapshot of an item.
// FindByID returns a domain NotFound error when the item does not exist.
type ItemLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
}
