package user

import (
	"context"

	"github.com/google/uuid"
)

// UserLookup resolves users by id.
type UserLookup interface {
	// FindByID returns a domain NotFound error when the user does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
}
