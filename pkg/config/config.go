package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig holds Kafka connection settings. An empty broker list disables publishing.
type KafkaConfig struct {
	Brokers []string
}

// JWTConfig holds token verification settings. An empty secret selects header identity.
type JWTConfig struct {
	Secret string
}

// Load creates a viper instance reading PREFIX_* environment variables and an optional config.yaml.
func Load(prefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	setDefaults(v)
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_user", "shareit")
	v.SetDefault("db_password", "shareit")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_conn_max_lifetime", 30*time.Minute)
	v.SetDefault("kafka_brokers", "")
}

// GetAppEnv returns the deployment environment name.
func GetAppEnv(v *viper.Viper) string {
	return v.GetString("app_env")
}

// GetServicePort returns the listen address for the given port key, e.g. ":8080".
func GetServicePort(v *viper.Viper, key string) string {
	port := v.GetString(strings.ToLower(key))
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

// LoadDatabaseConfig reads the database section; dbNameKey names the key holding the database name.
func LoadDatabaseConfig(v *viper.Viper, dbNameKey string) DatabaseConfig {
	return DatabaseConfig{
		Host:            v.GetString("db_host"),
		Port:            v.GetInt("db_port"),
		User:            v.GetString("db_user"),
		Password:        v.GetString("db_password"),
		DBName:          v.GetString(strings.ToLower(dbNameKey)),
		SSLMode:         v.GetString("db_sslmode"),
		MaxOpenConns:    v.GetInt("db_max_open_conns"),
		MaxIdleConns:    v.GetInt("db_max_idle_conns"),
		ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
	}
}

// LoadKafkaConfig reads a comma-separated broker list.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	var brokers []string
	for _, b := range strings.Split(v.GetString("kafka_brokers"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return KafkaConfig{Brokers: brokers}
}

// LoadJWTConfig reads the token secret.
func LoadJWTConfig(v *viper.Viper) JWTConfig {
	return JWTConfig{Secret: v.GetString("jwt_secret")}
}
