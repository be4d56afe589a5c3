package events

import (
	"time"

	"github.com/google/uuid"
)

// TopicBookingEvents carries every booking lifecycle event.
const TopicBookingEvents = "booking.events"

// Source identifies this service in CloudEvent envelopes.
const Source = "service-booking"

// Event types published on TopicBookingEvents.
const (
	BookingCreated  = "booking.created"
	BookingApproved = "booking.approved"
	BookingRejected = "booking.rejected"
)

// BookingCreatedEvent is published after a new booking request commits.
type BookingCreatedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ItemID     uuid.UUID `json:"item_id"`
	BookerID   uuid.UUID `json:"booker_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingDecidedEvent is published after an owner's decision commits.
// Forced is set when the booking was rejected because the item had become unavailable.
type BookingDecidedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ItemID     uuid.UUID `json:"item_id"`
	BookerID   uuid.UUID `json:"booker_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Status     string    `json:"status"`
	Forced     bool      `json:"forced,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
