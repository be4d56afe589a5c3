package config

import (
	"time"

	"github.com/shareit/service-booking/pkg/config"
)

// BookingConfig holds booking engine settings.
type BookingConfig struct {
	// StartSkewTolerance is how far a requested start may lie before the server clock.
	StartSkewTolerance time.Duration
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	DBConfig      config.DatabaseConfig
	JWTConfig     config.JWTConfig
	KafkaConfig   config.KafkaConfig
	BookingConfig BookingConfig
}

// Load reads configuration from BOOKING_* environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("BOOKING")
	if err != nil {
		return nil, err
	}
	v.SetDefault("db_name", "shareit")
	v.SetDefault("start_skew_tolerance", 3*time.Second)

	return &ServiceConfig{
		Port:        config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:      config.GetAppEnv(v),
		DBConfig:    config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:   config.LoadJWTConfig(v),
		KafkaConfig: config.LoadKafkaConfig(v),
		BookingConfig: BookingConfig{
			StartSkewTolerance: v.GetDuration("start_skew_tolerance"),
		},
	}, nil
}
