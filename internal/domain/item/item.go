package item

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shareit/service-booking/pkg/domain"
)

// Item is the booking engine's read-side view of a catalog item.
// The catalog itself is owned elsewhere; owner and availability may change after a booking is made.
type Item struct {
	id          uuid.UUID
	ownerID     uuid.UUID
	name        string
	description string
	available   bool
	createdAt   time.Time
	updatedAt   time.Time
}

// NewItem creates an item listed by ownerID.
func NewItem(ownerID uuid.UUID, name, description string, available bool) (*Item, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("item name is required")
	}

	now := time.Now().UTC()
	return &Item{
		id:          uuid.New(),
		ownerID:     ownerID,
		name:        name,
		description: description,
		available:   available,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds an Item from persistence data (no validation).
func Reconstruct(
	id, ownerID uuid.UUID,
	name, description string,
	available bool,
	createdAt, updatedAt time.Time,
) *Item {
	return &Item{
		id:          id,
		ownerID:     ownerID,
		name:        name,
		description: description,
		available:   available,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (i *Item) ID() uuid.UUID        { return i.id }
func (i *Item) OwnerID() uuid.UUID   { return i.ownerID }
func (i *Item) Name() string         { return i.name }
func (i *Item) Description() string  { return i.description }
func (i *Item) Available() bool      { return i.available }
func (i *Item) CreatedAt() time.Time { return i.createdAt }
func (i *Item) UpdatedAt() time.Time { return i.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the item currently belongs to userID.
func (i *Item) IsOwnedBy(userID uuid.UUID) bool {
	return i.ownerID == userID
}

// SetAvailable lists or delists the item.
func (i *Item) SetAvailable(available bool) {
	i.available = available
	i.updatedAt = time.Now().UTC()
}

// TransferTo hands the item to a new owner.
func (i *Item) TransferTo(ownerID uuid.UUID) {
	i.ownerID = ownerID
	i.updatedAt = time.Now().UTC()
}
