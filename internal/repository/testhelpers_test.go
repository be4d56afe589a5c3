package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
)

// newTestDB opens an in-memory SQLite database with the service schema.
// A single connection keeps the in-memory database alive and shared.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

func seedUser(t *testing.T, repo *GormUserRepository, name string) *userDomain.User {
	t.Helper()
	u, err := userDomain.NewUser(name, fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]))
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), u))
	return u
}

func seedItem(t *testing.T, repo *GormItemRepository, ownerID uuid.UUID, available bool) *itemDomain.Item {
	t.Helper()
	it, err := itemDomain.NewItem(ownerID, "Drill", "Cordless drill", available)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), it))
	return it
}

func seedBooking(
	t *testing.T,
	repo *GormBookingRepository,
	itemID, bookerID uuid.UUID,
	start, end time.Time,
	status bookingDomain.BookingStatus,
) *bookingDomain.Booking {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	bk := bookingDomain.ReconstructBooking(uuid.New(), itemID, bookerID, start, end, status, 1, now, now)
	require.NoError(t, repo.Save(context.Background(), bk))
	return bk
}
