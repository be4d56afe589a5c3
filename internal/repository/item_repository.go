package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	"github.com/shareit/service-booking/pkg/domain"
)

// ItemModel is the GORM model for the items table. The catalog service owns
// writes to this table; the booking engine reads it.
type ItemModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	Available   bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (ItemModel) TableName() string { return "items" }

// GormItemRepository implements ItemLookup using GORM.
type GormItemRepository struct {
	db *gorm.DB
}

func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*itemDomain.Item, error) {
	var model ItemModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Item", id.String())
		}
		return nil, fmt.Errorf("failed to find item by ID: %w", err)
	}
	return toItemDomain(&model), nil
}

// Save inserts an item. Used for seeding and by tests.
func (r *GormItemRepository) Save(ctx context.Context, it *itemDomain.Item) error {
	model := toItemModel(it)
	if err := conn(ctx, r.db).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

// Update overwrites an item's owner and availability.
func (r *GormItemRepository) Update(ctx context.Context, it *itemDomain.Item) error {
	result := conn(ctx, r.db).Model(&ItemModel{}).
		Where("id = ?", it.ID()).
		Updates(map[string]interface{}{
			"owner_id":    it.OwnerID(),
			"name":        it.Name(),
			"description": it.Description(),
			"available":   it.Available(),
			"updated_at":  it.UpdatedAt().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Item", it.ID().String())
	}
	return nil
}

func toItemModel(it *itemDomain.Item) ItemModel {
	return ItemModel{
		ID:          it.ID(),
		OwnerID:     it.OwnerID(),
		Name:        it.Name(),
		Description: it.Description(),
		Available:   it.Available(),
		CreatedAt:   it.CreatedAt().UTC(),
		UpdatedAt:   it.UpdatedAt().UTC(),
	}
}

func toItemDomain(m *ItemModel) *itemDomain.Item {
	return itemDomain.Reconstruct(
		m.ID, m.OwnerID,
		m.Name, m.Description,
		m.Available,
		m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	)
}
