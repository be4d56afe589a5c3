package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
	"github.com/shareit/service-booking/pkg/domain"
)

// ItemSummary is the item part of a booking view. Only ID is set when the item no longer exists.
type ItemSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Available   bool      `json:"available"`
}

// BookerSummary is the booker part of a booking view. Only ID is set when the user no longer exists.
type BookerSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
}

// BookingView is the response representation of a booking.
type BookingView struct {
	ID     uuid.UUID     `json:"id"`
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Status string        `json:"status"`
	Item   ItemSummary   `json:"item"`
	Booker BookerSummary `json:"booker"`
}

// ViewProjector assembles booking views from the current item and user snapshots.
type ViewProjector struct {
	items itemDomain.ItemLookup
	users userDomain.UserLookup
}

// NewViewProjector creates a new ViewProjector.
func NewViewProjector(items itemDomain.ItemLookup, users userDomain.UserLookup) *ViewProjector {
	return &ViewProjector{items: items, users: users}
}

// Project builds the view of a single booking.
func (p *ViewProjector) Project(ctx context.Context, bk *bookingDomain.Booking) (BookingView, error) {
	views, err := p.ProjectAll(ctx, []*bookingDomain.Booking{bk})
	if err != nil {
		return BookingView{}, err
	}
	return views[0], nil
}

// ProjectAll builds views preserving input order. Each distinct item and booker
// is looked up once per call.
func (p *ViewProjector) ProjectAll(ctx context.Context, bookings []*bookingDomain.Booking) ([]BookingView, error) {
	itemCache := make(map[uuid.UUID]ItemSummary)
	bookerCache := make(map[uuid.UUID]BookerSummary)

	views := make([]BookingView, 0, len(bookings))
	for _, bk := range bookings {
		item, ok := itemCache[bk.ItemID()]
		if !ok {
			var err error
			if item, err = p.itemSummary(ctx, bk.ItemID()); err != nil {
				return nil, err
			}
			itemCache[bk.ItemID()] = item
		}

		booker, ok := bookerCache[bk.BookerID()]
		if !ok {
			var err error
			if booker, err = p.bookerSummary(ctx, bk.BookerID()); err != nil {
				return nil, err
			}
			bookerCache[bk.BookerID()] = booker
		}

		views = append(views, BookingView{
			ID:     bk.ID(),
			Start:  bk.Start(),
			End:    bk.End(),
			Status: bk.Status().String(),
			Item:   item,
			Booker: booker,
		})
	}
	return views, nil
}

func (p *ViewProjector) itemSummary(ctx context.Context, id uuid.UUID) (ItemSummary, error) {
	it, err := p.items.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ItemSummary{ID: id}, nil
		}
		return ItemSummary{}, err
	}
	return ItemSummary{
		ID:          it.ID(),
		Name:        it.Name(),
		Description: it.Description(),
		Available:   it.Available(),
	}, nil
}

func (p *ViewProjector) bookerSummary(ctx context.Context, id uuid.UUID) (BookerSummary, error) {
	u, err := p.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return BookerSummary{ID: id}, nil
		}
		return BookerSummary{}, err
	}
	return BookerSummary{ID: u.ID(), Name: u.Name(), Email: u.Email()}, nil
}
