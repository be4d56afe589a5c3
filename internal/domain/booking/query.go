package booking

import (
	"time"

	"github.com/google/uuid"
)

// SortField names a sortable booking column.
type SortField string

const (
	SortFieldStart SortField = "start"
	SortFieldEnd   SortField = "end"
)

// Sort orders a list query.
type Sort struct {
	Field      SortField
	Descending bool
}

// SortByStartAsc is the order of every state query.
var SortByStartAsc = Sort{Field: SortFieldStart}

// Filter is a conjunction of optional predicates over bookings.
// Nil fields impose no constraint. OwnerID matches the current owner of the booked item.
type Filter struct {
	BookerID *uuid.UUID
	OwnerID  *uuid.UUID
	ItemID   *uuid.UUID
	Status   *BookingStatus

	StartBefore   *time.Time // start < t
	StartNotAfter *time.Time // start <= t
	StartAfter    *time.Time // start > t
	EndBefore     *time.Time // end < t
	EndAfter      *time.Time // end > t

	Limit int
}
