package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	"github.com/shareit/service-booking/pkg/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ItemID    uuid.UUID `gorm:"type:uuid;index;not null"`
	BookerID  uuid.UUID `gorm:"type:uuid;index;not null"`
	StartAt   time.Time `gorm:"not null;index"`
	EndAt     time.Time `gorm:"not null"`
	Status    string    `gorm:"not null;size:20;index"`
	Version   int64     `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

var sortColumns = map[bookingDomain.SortField]string{
	bookingDomain.SortFieldStart: "bookings.start_at",
	bookingDomain.SortFieldEnd:   "bookings.end_at",
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// Find returns bookings matching filter. Owner filters join the items table so
// ownership is always the item's current owner.
func (r *GormBookingRepository) Find(ctx context.Context, filter bookingDomain.Filter, sort bookingDomain.Sort) ([]*bookingDomain.Booking, error) {
	q := conn(ctx, r.db).Model(&BookingModel{}).Select("bookings.*")

	if filter.OwnerID != nil {
		q = q.Joins("JOIN items ON items.id = bookings.item_id").
			Where("items.owner_id = ?", *filter.OwnerID)
	}
	if filter.BookerID != nil {
		q = q.Where("bookings.booker_id = ?", *filter.BookerID)
	}
	if filter.ItemID != nil {
		q = q.Where("bookings.item_id = ?", *filter.ItemID)
	}
	if filter.Status != nil {
		q = q.Where("bookings.status = ?", string(*filter.Status))
	}
	if filter.StartBefore != nil {
		q = q.Where("bookings.start_at < ?", filter.StartBefore.UTC())
	}
	if filter.StartNotAfter != nil {
		q = q.Where("bookings.start_at <= ?", filter.StartNotAfter.UTC())
	}
	if filter.StartAfter != nil {
		q = q.Where("bookings.start_at > ?", filter.StartAfter.UTC())
	}
	if filter.EndBefore != nil {
		q = q.Where("bookings.end_at < ?", filter.EndBefore.UTC())
	}
	if filter.EndAfter != nil {
		q = q.Where("bookings.end_at > ?", filter.EndAfter.UTC())
	}

	column, ok := sortColumns[sort.Field]
	if !ok {
		column = sortColumns[bookingDomain.SortFieldStart]
	}
	direction := "ASC"
	if sort.Descending {
		direction = "DESC"
	}
	q = q.Order(column + " " + direction).Order("bookings.id ASC")

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var models []BookingModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
// The caller must have called IncrementVersion, so the stored row is expected at Version()-1.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	expectedVersion := bk.Version() - 1
	result := conn(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     model.Status,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := conn(ctx, r.db).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:        bk.ID(),
		ItemID:    bk.ItemID(),
		BookerID:  bk.BookerID(),
		StartAt:   bk.Start().UTC(),
		EndAt:     bk.End().UTC(),
		Status:    string(bk.Status()),
		Version:   bk.Version(),
		CreatedAt: bk.CreatedAt().UTC(),
		UpdatedAt: bk.UpdatedAt().UTC(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.ItemID,
		m.BookerID,
		m.StartAt.UTC(),
		m.EndAt.UTC(),
		status,
		m.Version,
		m.CreatedAt.UTC(),
		m.UpdatedAt.UTC(),
	), nil
}
