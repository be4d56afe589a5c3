//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shareit/service-booking/internal/application"
	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
	"github.com/shareit/service-booking/internal/events"
	"github.com/shareit/service-booking/internal/repository"
	"github.com/shareit/service-booking/pkg/clock"
	"github.com/shareit/service-booking/pkg/database"
	"github.com/shareit/service-booking/pkg/kafka"
)

// testInfra is a running postgres + kafka pair.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

type bookingStack struct {
	Service         *application.BookingService
	Items           *repository.GormItemRepository
	Users           *repository.GormUserRepository
	Bookings        *repository.GormBookingRepository
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers, applies the SQL
// migrations and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "shareit_it",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "postgres container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)
	port, err := strconv.Atoi(pgPort.Port())
	require.NoError(t, err)

	dbConfig := database.PostgresConfig{
		Host:     pgHost,
		Port:     port,
		User:     "test",
		Password: "test",
		DBName:   "shareit_it",
		SSLMode:  "disable",
	}

	// The log line shows up before the port accepts connections.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(dbConfig, logger)
		return err == nil
	}, 30*time.Second, time.Second, "postgres never accepted connections")

	require.NoError(t, database.RunMigrations(dbConfig.DatabaseURL(), "migrations", logger))

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "kafka brokers")

	createTopic(t, kafkaBrokers, events.TopicBookingEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("terminate kafka: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupBookingStack wires the service the same way cmd/server does.
func setupBookingStack(t *testing.T, db *gorm.DB, brokers []string, clk clock.Clock) *bookingStack {
	t.Helper()
	logger := zap.NewNop()

	bookingRepo := repository.NewGormBookingRepository(db)
	itemRepo := repository.NewGormItemRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	producer := kafka.NewProducer(brokers, logger)

	registry := bookingDomain.NewStrategyRegistry(bookingDomain.DefaultStrategies(bookingRepo, clk)...)
	bookingSvc := application.NewBookingService(
		bookingRepo, itemRepo, userRepo, registry,
		repository.NewTxManager(db), producer, clk,
		application.DefaultStartSkewTolerance, logger,
	)

	return &bookingStack{
		Service:         bookingSvc,
		Items:           itemRepo,
		Users:           userRepo,
		Bookings:        bookingRepo,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

func seedUser(t *testing.T, stack *bookingStack, name string) *userDomain.User {
	t.Helper()
	u, err := userDomain.NewUser(name, fmt.Sprintf("%s-%s@example.com", name, uuid.New().String()[:8]))
	require.NoError(t, err)
	require.NoError(t, stack.Users.Save(context.Background(), u))
	return u
}

func seedItem(t *testing.T, stack *bookingStack, ownerID uuid.UUID) *itemDomain.Item {
	t.Helper()
	it, err := itemDomain.NewItem(ownerID, "Projector", "Full HD projector", true)
	require.NoError(t, err)
	require.NoError(t, stack.Items.Save(context.Background(), it))
	return it
}

// consumeEvents reads from a Kafka topic until every expected event type for subject has been seen.
func consumeEvents(t *testing.T, brokers []string, topic, subject string, expectedTypes []string, timeout time.Duration) map[string]kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := "it-" + uuid.NewString()
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	found := make(map[string]kafka.CloudEvent, len(expectedTypes))
	for len(found) < len(expectedTypes) {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for events %v on topic %q (got %d)", expectedTypes, topic, len(found))
			}
			continue
		}
		if string(msg.Key) != subject {
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		for _, want := range expectedTypes {
			if ce.Type == want {
				found[want] = ce
			}
		}
	}
	return found
}

// createTopic creates topic on the cluster controller. Auto-creation races
// the first produce call and loses the message.
func createTopic(t *testing.T, brokers []string, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "dial kafka")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "kafka controller")

	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	ctrl, err := kafkago.Dial("tcp", addr)
	require.NoError(t, err, "dial kafka controller")
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))

	// metadata propagation
	time.Sleep(time.Second)
}
