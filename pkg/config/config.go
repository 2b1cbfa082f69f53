package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Storage     StorageConfig
	DocGen      DocGenConfig
	Recruitment RecruitmentConfig
	Payroll     PayrollConfig
	SLA         SLAConfig
	AI          AIConfig
	Environment Environment
}

type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

func (c Config) IsDevelopment() bool {
	return c.Environment == EnvironmentDevelopment
}
func (c Config) IsStaging() bool {
	return c.Environment == EnvironmentStaging
}
func (c Config) IsProd() bool {
	return c.Environment == EnvironmentProduction
}

func loadEnvironment() Environment {
	env := getEnv("ENVIRONMENT", "development")
	switch strings.ToLower(env) {
	case "production":
		return EnvironmentProduction
	case "staging":
		return EnvironmentStaging
	default:
		return EnvironmentDevelopment
	}
}

// v resolves every key: environment first, then the optional config file
var v = newViper()

func newViper() *viper.Viper {
	vp := viper.New()
	vp.AutomaticEnv()
	return vp
}

// Load reads the optional YAML file named by HIRELINE_CONFIG (or ./config.yaml)
// and builds the config. Environment variables override file values.
func Load() (*Config, error) {
	if err := readConfigFile(os.Getenv("HIRELINE_CONFIG")); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server:      loadServerConfig(),
		Database:    loadDatabaseConfig(),
		Redis:       loadRedisConfig(),
		Auth:        loadAuthConfig(),
		Storage:     loadStorageConfig(),
		DocGen:      loadDocGenConfig(),
		Recruitment: loadRecruitmentConfig(),
		Payroll:     loadPayrollConfig(),
		SLA:         loadSLAConfig(),
		AI:          loadAIConfig(),
		Environment: loadEnvironment(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func readConfigFile(path string) error {
	v = newViper()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && path == "" {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Auth.JWT.SecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.Auth.JWT.SecretKey) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	switch c.Storage.Mode {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown STORAGE_MODE %q (use 'local' or 's3')", c.Storage.Mode)
	}
	switch c.Storage.DocStore {
	case "postgres":
		if err := c.Database.validate(); err != nil {
			return err
		}
	case "memory":
	default:
		return fmt.Errorf("unknown DOCSTORE_MODE %q (use 'postgres' or 'memory')", c.Storage.DocStore)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := v.GetString(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v.IsSet(key) {
		if value := v.GetString(key); value != "" {
			return v.GetInt(key)
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v.IsSet(key) {
		if value := v.GetString(key); value != "" {
			return v.GetFloat64(key)
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v.IsSet(key) {
		if value := v.GetString(key); value != "" {
			return v.GetBool(key)
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := v.GetString(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := v.GetString(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
