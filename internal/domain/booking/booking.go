package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shareit/service-booking/pkg/domain"
)

// Booking is the aggregate root for a time-bounded reservation of an item.
// The item's owner is deliberately not part of the aggregate: ownership is resolved at read time.
type Booking struct {
	id       uuid.UUID
	itemID   uuid.UUID
	bookerID uuid.UUID
	start    time.Time
	end      time.Time
	status   BookingStatus

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// ValidatePeriod checks a requested period against now, allowing start to lag now by tolerance.
func ValidatePeriod(start, end, now time.Time, tolerance time.Duration) error {
	if start.Before(now.Add(-tolerance)) {
		return domain.NewConditionsNotMetError("invalid start: booking cannot start in the past")
	}
	if !end.After(start) {
		return domain.NewConditionsNotMetError("invalid end: booking must end after it starts")
	}
	return nil
}

// NewBooking creates a new Booking aggregate with status=WAITING.
func NewBooking(itemID, bookerID uuid.UUID, start, end, now time.Time) (*Booking, error) {
	if itemID == uuid.Nil {
		return nil, domain.NewValidationError("item ID is required")
	}
	if bookerID == uuid.Nil {
		return nil, domain.NewValidationError("booker ID is required")
	}
	if !end.After(start) {
		return nil, domain.NewConditionsNotMetError("invalid end: booking must end after it starts")
	}

	now = now.UTC()
	return &Booking{
		id:        uuid.New(),
		itemID:    itemID,
		bookerID:  bookerID,
		start:     start.UTC(),
		end:       end.UTC(),
		status:    StatusWaiting,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id, itemID, bookerID uuid.UUID,
	start, end time.Time,
	status BookingStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:        id,
		itemID:    itemID,
		bookerID:  bookerID,
		start:     start,
		end:       end,
		status:    status,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// ItemID returns the booked item's identifier.
func (b *Booking) ItemID() uuid.UUID { return b.itemID }

// BookerID returns the requesting user's identifier.
func (b *Booking) BookerID() uuid.UUID { return b.bookerID }

// Start returns the start of the booked period.
func (b *Booking) Start() time.Time { return b.start }

// End returns the end of the booked period.
func (b *Booking) End() time.Time { return b.end }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsBookedBy reports whether userID requested this booking.
func (b *Booking) IsBookedBy(userID uuid.UUID) bool { return b.bookerID == userID }

// --- Behavior ---

// Decide applies the owner's decision: APPROVED when approved, REJECTED otherwise.
func (b *Booking) Decide(approved bool, now time.Time) error {
	target := StatusRejected
	if approved {
		target = StatusApproved
	}
	return b.transition(target, now)
}

// Reject transitions the booking to REJECTED.
func (b *Booking) Reject(now time.Time) error {
	return b.transition(StatusRejected, now)
}

func (b *Booking) transition(target BookingStatus, now time.Time) error {
	if !b.status.CanTransitionTo(target) {
		return domain.NewConditionsNotMetError(
			fmt.Sprintf("booking already decided: status is %s", b.status),
		)
	}
	b.status = target
	b.updatedAt = now.UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}
