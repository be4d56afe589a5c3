package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
	"github.com/shareit/service-booking/internal/events"
	"github.com/shareit/service-booking/pkg/clock"
	"github.com/shareit/service-booking/pkg/domain"
	"github.com/shareit/service-booking/pkg/kafka"
)

// DefaultStartSkewTolerance is how far a requested start may lag the server clock.
const DefaultStartSkewTolerance = 3 * time.Second

// Transactor runs fn as one unit of work.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventProducer publishes CloudEvents to a topic.
type EventProducer interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ItemID uuid.UUID `json:"itemId" binding:"required"`
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
}

// BookingSlot is a compact booking reference used in item summaries.
type BookingSlot struct {
	ID       uuid.UUID `json:"id"`
	BookerID uuid.UUID `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Status   string    `json:"status"`
}

// ItemBookingSummary holds the last finished and next upcoming booking of an item.
// Both are nil unless the caller owns the item.
type ItemBookingSummary struct {
	ItemID      uuid.UUID    `json:"itemId"`
	LastBooking *BookingSlot `json:"lastBooking"`
	NextBooking *BookingSlot `json:"nextBooking"`
}

// BookingService is the application service orchestrating the booking lifecycle.
type BookingService struct {
	repo       bookingDomain.BookingRepository
	items      itemDomain.ItemLookup
	users      userDomain.UserLookup
	strategies *bookingDomain.StrategyRegistry
	tx         Transactor
	projector  *ViewProjector
	producer   EventProducer
	clock      clock.Clock
	tolerance  time.Duration
	logger     *zap.Logger
}

// NewBookingService creates a new BookingService. producer may be nil, in which case no events are published.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	items itemDomain.ItemLookup,
	users userDomain.UserLookup,
	strategies *bookingDomain.StrategyRegistry,
	tx Transactor,
	producer EventProducer,
	clk clock.Clock,
	startSkewTolerance time.Duration,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:       repo,
		items:      items,
		users:      users,
		strategies: strategies,
		tx:         tx,
		projector:  NewViewProjector(items, users),
		producer:   producer,
		clock:      clk,
		tolerance:  startSkewTolerance,
		logger:     logger,
	}
}

// CreateBooking requests a booking of an item on behalf of bookerID.
func (s *BookingService) CreateBooking(ctx context.Context, bookerID uuid.UUID, req CreateBookingRequest) (*BookingView, error) {
	var bk *bookingDomain.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.FindByID(ctx, bookerID); err != nil {
			return err
		}
		it, err := s.items.FindByID(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if !it.Available() {
			return domain.NewConditionsNotMetError(fmt.Sprintf("item unavailable: item %s cannot be booked", it.ID()))
		}

		now := s.clock.Now()
		if err := bookingDomain.ValidatePeriod(req.Start, req.End, now, s.tolerance); err != nil {
			return err
		}

		bk, err = bookingDomain.NewBooking(it.ID(), bookerID, req.Start, req.End, now)
		if err != nil {
			return err
		}
		if err := s.repo.Save(ctx, bk); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("item_id", bk.ItemID().String()),
		zap.String("booker_id", bookerID.String()),
	)

	s.publishEvent(ctx, events.BookingCreated, bk.ID().String(), events.BookingCreatedEvent{
		BookingID:  bk.ID(),
		ItemID:     bk.ItemID(),
		BookerID:   bk.BookerID(),
		Start:      bk.Start(),
		End:        bk.End(),
		Status:     bk.Status().String(),
		OccurredAt: s.clock.Now(),
	})

	return s.view(ctx, bk)
}

// ApproveBooking records the owner's decision on a waiting booking.
//
// When the item has become unavailable the booking is rejected and that
// rejection is committed, yet the call still fails with ConditionsNotMet.
func (s *BookingService) ApproveBooking(ctx context.Context, actingUserID, bookingID uuid.UUID, approved bool) (*BookingView, error) {
	var (
		bk     *bookingDomain.Booking
		forced bool
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.repo.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		it, err := s.items.FindByID(ctx, bk.ItemID())
		if err != nil {
			return err
		}
		if !it.IsOwnedBy(actingUserID) {
			return domain.NewInvalidOperationError("not owner: only the item owner can approve a booking")
		}
		if bk.Status().IsTerminal() {
			return domain.NewConditionsNotMetError(fmt.Sprintf("booking already decided: status is %s", bk.Status()))
		}

		now := s.clock.Now()
		if !it.Available() {
			forced = true
			err = bk.Reject(now)
		} else {
			err = bk.Decide(approved, now)
		}
		if err != nil {
			return err
		}

		bk.IncrementVersion()
		return s.repo.Update(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking decided",
		zap.String("booking_id", bk.ID().String()),
		zap.String("owner_id", actingUserID.String()),
		zap.String("status", bk.Status().String()),
		zap.Bool("forced", forced),
	)

	eventType := events.BookingRejected
	if bk.Status() == bookingDomain.StatusApproved {
		eventType = events.BookingApproved
	}
	s.publishEvent(ctx, eventType, bk.ID().String(), events.BookingDecidedEvent{
		BookingID:  bk.ID(),
		ItemID:     bk.ItemID(),
		BookerID:   bk.BookerID(),
		OwnerID:    actingUserID,
		Status:     bk.Status().String(),
		Forced:     forced,
		OccurredAt: s.clock.Now(),
	})

	if forced {
		return nil, domain.NewConditionsNotMetError(
			fmt.Sprintf("item no longer available: booking %s was rejected", bk.ID()),
		)
	}
	return s.view(ctx, bk)
}

// GetBooking returns a booking visible to its booker and to the item's current owner.
func (s *BookingService) GetBooking(ctx context.Context, requestingUserID, bookingID uuid.UUID) (*BookingView, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !bk.IsBookedBy(requestingUserID) {
		it, err := s.items.FindByID(ctx, bk.ItemID())
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if it == nil || !it.IsOwnedBy(requestingUserID) {
			return nil, domain.NewInvalidOperationError("not booker or owner: booking is visible only to its booker and the item owner")
		}
	}

	return s.view(ctx, bk)
}

// ListBookerBookings returns the user's own bookings in the given state, ordered by start.
func (s *BookingService) ListBookerBookings(ctx context.Context, userID uuid.UUID, state bookingDomain.BookingState) ([]BookingView, error) {
	return s.listByState(ctx, bookingDomain.RoleBooker, userID, state)
}

// ListOwnerBookings returns bookings of the user's items in the given state, ordered by start.
func (s *BookingService) ListOwnerBookings(ctx context.Context, userID uuid.UUID, state bookingDomain.BookingState) ([]BookingView, error) {
	return s.listByState(ctx, bookingDomain.RoleOwner, userID, state)
}

func (s *BookingService) listByState(ctx context.Context, role bookingDomain.Role, userID uuid.UUID, state bookingDomain.BookingState) ([]BookingView, error) {
	exists, err := s.users.ExistsByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NewNotFoundError("User", userID.String())
	}

	bookings, err := s.strategies.FindStrategy(role, state).GetBookings(ctx, userID, bookingDomain.SortByStartAsc)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s bookings: %w", role, err)
	}
	return s.projector.ProjectAll(ctx, bookings)
}

// GetItemBookingSummary returns the last and next bookings of an item. Only the owner sees them.
func (s *BookingService) GetItemBookingSummary(ctx context.Context, userID, itemID uuid.UUID) (*ItemBookingSummary, error) {
	it, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	summary := &ItemBookingSummary{ItemID: it.ID()}
	if !it.IsOwnedBy(userID) {
		return summary, nil
	}

	now := s.clock.Now()
	id := it.ID()

	last, err := s.repo.Find(ctx,
		bookingDomain.Filter{ItemID: &id, EndBefore: &now, Limit: 1},
		bookingDomain.Sort{Field: bookingDomain.SortFieldEnd, Descending: true},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find last booking: %w", err)
	}
	next, err := s.repo.Find(ctx,
		bookingDomain.Filter{ItemID: &id, StartAfter: &now, Limit: 1},
		bookingDomain.SortByStartAsc,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find next booking: %w", err)
	}

	if len(last) > 0 {
		summary.LastBooking = toBookingSlot(last[0])
	}
	if len(next) > 0 {
		summary.NextBooking = toBookingSlot(next[0])
	}
	return summary, nil
}

// CanReview reports whether userID has an approved booking of itemID that has already started.
func (s *BookingService) CanReview(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	now := s.clock.Now()
	approved := bookingDomain.StatusApproved

	found, err := s.repo.Find(ctx, bookingDomain.Filter{
		BookerID:    &userID,
		ItemID:      &itemID,
		Status:      &approved,
		StartBefore: &now,
		Limit:       1,
	}, bookingDomain.SortByStartAsc)
	if err != nil {
		return false, fmt.Errorf("failed to check review eligibility: %w", err)
	}
	return len(found) > 0, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func (s *BookingService) view(ctx context.Context, bk *bookingDomain.Booking) (*BookingView, error) {
	v, err := s.projector.Project(ctx, bk)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func toBookingSlot(bk *bookingDomain.Booking) *BookingSlot {
	return &BookingSlot{
		ID:       bk.ID(),
		BookerID: bk.BookerID(),
		Start:    bk.Start(),
		End:      bk.End(),
		Status:   bk.Status().String(),
	}
}

func (s *BookingService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	if s.producer == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent(events.Source, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, events.TopicBookingEvents, cloudEvent.WithSubject(key)); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
