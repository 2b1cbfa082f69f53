// pkg/config/database.go
package config

import (
	"fmt"
	"time"
)

// DatabaseConfig is only read when DOCSTORE_MODE=postgres
type DatabaseConfig struct {
	// URL wins over the discrete fields, e.g. postgres://u:p@host:5432/hireline?sslmode=disable
	URL             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN is the lib/pq connection string
func (dc DatabaseConfig) DSN() string {
	if dc.URL != "" {
		return dc.URL
	}
	if dc.Host == "" || dc.Name == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dc.Host, dc.Port, dc.User, dc.Password, dc.Name, dc.SSLMode)
}

func (dc DatabaseConfig) validate() error {
	if dc.DSN() == "" {
		return fmt.Errorf("DB_HOST and DB_NAME (or DATABASE_URL) are required")
	}
	if dc.MaxOpenConns > 0 && dc.MaxIdleConns > dc.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS (%d) exceeds DB_MAX_OPEN_CONNS (%d)", dc.MaxIdleConns, dc.MaxOpenConns)
	}
	return nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             getEnv("DATABASE_URL", ""),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", "postgres"),
		Name:            getEnv("DB_NAME", "hireline"),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}
