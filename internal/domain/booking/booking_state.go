package booking

import (
	"strings"

	"github.com/shareit/service-booking/pkg/domain"
)

// BookingState selects a view over a user's bookings. It is never persisted.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

// AllStates lists every state in declaration order.
var AllStates = []BookingState{StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected}

// ParseBookingState parses s case-insensitively. Empty input means ALL.
func ParseBookingState(s string) (BookingState, error) {
	if s == "" {
		return StateAll, nil
	}
	state := BookingState(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllStates {
		if state == known {
			return state, nil
		}
	}
	return "", domain.NewValidationError("Unknown state: " + s)
}

// String returns the string representation of the state.
func (s BookingState) String() string {
	return string(s)
}

// Role is the perspective a list query is asked from.
type Role int

const (
	RoleBooker Role = iota
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleBooker:
		return "booker"
	case RoleOwner:
		return "owner"
	default:
		return "unknown"
	}
}
