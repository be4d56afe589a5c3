package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shareit/service-booking/pkg/clock"
)

// StateQuery returns the bookings of userID matching one state, in sort order.
type StateQuery func(ctx context.Context, userID uuid.UUID, sort Sort) ([]*Booking, error)

// StateStrategy binds a (role, state) pair to its query.
type StateStrategy struct {
	Role  Role
	State BookingState
	Query StateQuery
}

// GetBookings executes the strategy for userID.
func (s StateStrategy) GetBookings(ctx context.Context, userID uuid.UUID, sort Sort) ([]*Booking, error) {
	return s.Query(ctx, userID, sort)
}

// statePredicates narrows a filter to one state at instant now.
var statePredicates = map[BookingState]func(f *Filter, now time.Time){
	StateAll: func(*Filter, time.Time) {},
	StateCurrent: func(f *Filter, now time.Time) {
		f.StartNotAfter = &now
		f.EndAfter = &now
	},
	StatePast: func(f *Filter, now time.Time) {
		f.EndBefore = &now
	},
	StateFuture: func(f *Filter, now time.Time) {
		f.StartAfter = &now
	},
	StateWaiting: func(f *Filter, _ time.Time) {
		status := StatusWaiting
		f.Status = &status
	},
	StateRejected: func(f *Filter, _ time.Time) {
		status := StatusRejected
		f.Status = &status
	},
}

// StateFilter builds the repository filter for (role, state) as seen by userID at now.
func StateFilter(role Role, state BookingState, userID uuid.UUID, now time.Time) Filter {
	var f Filter
	switch role {
	case RoleOwner:
		f.OwnerID = &userID
	default:
		f.BookerID = &userID
	}
	if narrow, ok := statePredicates[state]; ok {
		narrow(&f, now)
	}
	return f
}

// DefaultStrategies returns a strategy for every (role, state) pair.
// Each query reads the clock at call time.
func DefaultStrategies(repo BookingRepository, clk clock.Clock) []StateStrategy {
	roles := []Role{RoleBooker, RoleOwner}
	strategies := make([]StateStrategy, 0, len(roles)*len(AllStates))
	for _, role := range roles {
		for _, state := range AllStates {
			strategies = append(strategies, StateStrategy{
				Role:  role,
				State: state,
				Query: func(ctx context.Context, userID uuid.UUID, sort Sort) ([]*Booking, error) {
					return repo.Find(ctx, StateFilter(role, state, userID, clk.Now()), sort)
				},
			})
		}
	}
	return strategies
}

type strategyKey struct {
	role  Role
	state BookingState
}

// StrategyRegistry is an immutable (role, state) -> strategy lookup built once at startup.
type StrategyRegistry struct {
	strategies map[strategyKey]StateStrategy
}

// NewStrategyRegistry indexes strategies by their declared role and state.
// It panics on a duplicate key.
func NewStrategyRegistry(strategies ...StateStrategy) *StrategyRegistry {
	r := &StrategyRegistry{strategies: make(map[strategyKey]StateStrategy, len(strategies))}
	for _, s := range strategies {
		key := strategyKey{role: s.Role, state: s.State}
		if _, dup := r.strategies[key]; dup {
			panic(fmt.Sprintf("booking: duplicate state strategy for %s/%s", s.Role, s.State))
		}
		r.strategies[key] = s
	}
	return r
}

// FindStrategy returns the strategy for (role, state).
// It panics when none is registered.
func (r *StrategyRegistry) FindStrategy(role Role, state BookingState) StateStrategy {
	s, ok := r.strategies[strategyKey{role: role, state: state}]
	if !ok {
		panic(fmt.Sprintf("booking: no state strategy registered for %s/%s", role, state))
	}
	return s
}
