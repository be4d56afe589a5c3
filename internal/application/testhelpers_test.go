package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
	"github.com/shareit/service-booking/internal/repository"
	"github.com/shareit/service-booking/pkg/clock"
	"github.com/shareit/service-booking/pkg/kafka"
)

var baseTime = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type recordingProducer struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *recordingProducer) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingProducer) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	svc      *BookingService
	bookings *repository.GormBookingRepository
	items    *repository.GormItemRepository
	users    *repository.GormUserRepository
	producer *recordingProducer
	clock    *clock.Fixed

	owner    *userDomain.User
	booker   *userDomain.User
	stranger *userDomain.User
	item     *itemDomain.Item
}

func newFixture(t *testing.T) *fixture {
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
	require.NoError(t, db.AutoMigrate(repository.Models()...))

	f := &fixture{
		db:       db,
		bookings: repository.NewGormBookingRepository(db),
		items:    repository.NewGormItemRepository(db),
		users:    repository.NewGormUserRepository(db),
		producer: &recordingProducer{},
		clock:    clock.NewFixed(baseTime),
	}

	registry := bookingDomain.NewStrategyRegistry(bookingDomain.DefaultStrategies(f.bookings, f.clock)...)
	f.svc = NewBookingService(
		f.bookings,
		f.items,
		f.users,
		registry,
		repository.NewTxManager(db),
		f.producer,
		f.clock,
		DefaultStartSkewTolerance,
		zap.NewNop(),
	)

	f.owner = f.addUser(t, "owner")
	f.booker = f.addUser(t, "booker")
	f.stranger = f.addUser(t, "stranger")
	f.item = f.addItem(t, f.owner.ID(), true)
	return f
}

func (f *fixture) addUser(t *testing.T, name string) *userDomain.User {
	t.Helper()
	u, err := userDomain.NewUser(name, fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]))
	require.NoError(t, err)
	require.NoError(t, f.users.Save(context.Background(), u))
	return u
}

func (f *fixture) addItem(t *testing.T, ownerID uuid.UUID, available bool) *itemDomain.Item {
	t.Helper()
	it, err := itemDomain.NewItem(ownerID, "Tent", "Four-person tent", available)
	require.NoError(t, err)
	require.NoError(t, f.items.Save(context.Background(), it))
	return it
}

func (f *fixture) setAvailable(t *testing.T, itemID uuid.UUID, available bool) {
	t.Helper()
	it, err := f.items.FindByID(context.Background(), itemID)
	require.NoError(t, err)
	it.SetAvailable(available)
	require.NoError(t, f.items.Update(context.Background(), it))
}

// book creates a WAITING booking through the service, starting at offset from the fixture clock.
func (f *fixture) book(t *testing.T, bookerID, itemID uuid.UUID, offset, length time.Duration) *BookingView {
	t.Helper()
	start := f.clock.Now().Add(offset)
	v, err := f.svc.CreateBooking(context.Background(), bookerID, CreateBookingRequest{
		ItemID: itemID,
		Start:  start,
		End:    start.Add(length),
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) storedStatus(t *testing.T, id uuid.UUID) bookingDomain.BookingStatus {
	t.Helper()
	bk, err := f.bookings.FindByID(context.Background(), id)
	require.NoError(t, err)
	return bk.Status()
}

func viewIDs(views []BookingView) []uuid.UUID {
	out := make([]uuid.UUID, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}

var errBrokerDown = errors.New("broker down")
