package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shareit/service-booking/pkg/domain"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newWaitingBooking(t *testing.T) *Booking {
	t.Helper()
	b, err := NewBooking(uuid.New(), uuid.New(), testNow.Add(time.Hour), testNow.Add(2*time.Hour), testNow)
	require.NoError(t, err)
	return b
}

func TestNewBooking_StartsWaiting(t *testing.T) {
	itemID, bookerID := uuid.New(), uuid.New()
	start := testNow.Add(time.Hour)
	end := testNow.Add(3 * time.Hour)

	b, err := NewBooking(itemID, bookerID, start, end, testNow)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, b.ID())
	assert.Equal(t, StatusWaiting, b.Status())
	assert.Equal(t, itemID, b.ItemID())
	assert.Equal(t, bookerID, b.BookerID())
	assert.True(t, b.End().After(b.Start()))
	assert.Equal(t, int64(1), b.Version())
	assert.True(t, b.IsBookedBy(bookerID))
	assert.False(t, b.IsBookedBy(uuid.New()))
}

func TestNewBooking_RejectsEndNotAfterStart(t *testing.T) {
	start := testNow.Add(365 * 24 * time.Hour)

	for name, end := range map[string]time.Time{
		"equal":  start,
		"before": start.Add(-time.Minute),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewBooking(uuid.New(), uuid.New(), start, end, testNow)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConditionsNotMet)
			assert.Contains(t, err.Error(), "invalid end")
		})
	}
}

func TestNewBooking_RequiresIDs(t *testing.T) {
	_, err := NewBooking(uuid.Nil, uuid.New(), testNow, testNow.Add(time.Hour), testNow)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewBooking(uuid.New(), uuid.Nil, testNow, testNow.Add(time.Hour), testNow)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidatePeriod(t *testing.T) {
	tolerance := 3 * time.Second

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantMsg string
	}{
		{name: "future period", start: testNow.Add(time.Hour), end: testNow.Add(2 * time.Hour)},
		{name: "start within tolerance", start: testNow.Add(-2 * time.Second), end: testNow.Add(time.Hour)},
		{name: "start exactly at tolerance", start: testNow.Add(-3 * time.Second), end: testNow.Add(time.Hour)},
		{name: "start past tolerance", start: testNow.Add(-4 * time.Second), end: testNow.Add(time.Hour), wantMsg: "invalid start"},
		{name: "end equals start", start: testNow.Add(time.Hour), end: testNow.Add(time.Hour), wantMsg: "invalid end"},
		{name: "start checked before end", start: testNow.Add(-time.Hour), end: testNow.Add(-2 * time.Hour), wantMsg: "invalid start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePeriod(tt.start, tt.end, testNow, tolerance)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConditionsNotMet)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestBooking_Decide(t *testing.T) {
	approved := newWaitingBooking(t)
	require.NoError(t, approved.Decide(true, testNow))
	assert.Equal(t, StatusApproved, approved.Status())

	rejected := newWaitingBooking(t)
	require.NoError(t, rejected.Decide(false, testNow))
	assert.Equal(t, StatusRejected, rejected.Status())
}

func TestBooking_TerminalStatusCannotChange(t *testing.T) {
	for _, approve := range []bool{true, false} {
		b := newWaitingBooking(t)
		require.NoError(t, b.Decide(approve, testNow))
		decided := b.Status()

		err := b.Decide(!approve, testNow)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConditionsNotMet)
		assert.Contains(t, err.Error(), "booking already decided")
		assert.Equal(t, decided, b.Status())

		assert.ErrorIs(t, b.Reject(testNow), domain.ErrConditionsNotMet)
	}
}

func TestBooking_IncrementVersion(t *testing.T) {
	b := newWaitingBooking(t)
	b.IncrementVersion()
	assert.Equal(t, int64(2), b.Version())
}

func TestBookingStatus_Transitions(t *testing.T) {
	assert.True(t, StatusWaiting.CanTransitionTo(StatusApproved))
	assert.True(t, StatusWaiting.CanTransitionTo(StatusRejected))
	assert.False(t, StatusApproved.CanTransitionTo(StatusRejected))
	assert.False(t, StatusRejected.CanTransitionTo(StatusApproved))
	assert.False(t, StatusWaiting.IsTerminal())
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())

	_, err := ParseBookingStatus("CANCELED")
	assert.Error(t, err)
}

func TestParseBookingState(t *testing.T) {
	for _, in := range []string{"ALL", "all", "Current", "past", "FUTURE", "waiting", "rejected"} {
		_, err := ParseBookingState(in)
		assert.NoError(t, err, in)
	}

	state, err := ParseBookingState("")
	require.NoError(t, err)
	assert.Equal(t, StateAll, state)

	_, err = ParseBookingState("UNSUPPORTED_STATUS")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Unknown state: UNSUPPORTED_STATUS", err.Error())
}
