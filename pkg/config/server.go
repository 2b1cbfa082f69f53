package config

import (
	"strings"
	"time"
)

// ServerConfig covers the HTTP listener and the live stream
type ServerConfig struct {
	Port            int
	LogLevel        string
	LogJSON         bool
	BaseURL         string
	CORSOrigins     []string
	BodyLimitMB     int
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// StreamKeepAlive is the gap between SSE comment frames
	StreamKeepAlive time.Duration
}

func (sc ServerConfig) BodyLimitBytes() int {
	return sc.BodyLimitMB * 1024 * 1024
}

// AllowedOrigins is the comma list fiber's cors middleware expects; "*" when unset
func (sc ServerConfig) AllowedOrigins() string {
	origins := make([]string, 0, len(sc.CORSOrigins))
	for _, o := range sc.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, strings.TrimSuffix(o, "/"))
		}
	}
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ",")
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:            getEnvInt("SERVER_PORT", 8080),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogJSON:         getEnvBool("LOG_JSON", false),
		BaseURL:         strings.TrimSuffix(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		CORSOrigins:     getEnvStringSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),
		BodyLimitMB:     getEnvInt("BODY_LIMIT_MB", 10),
		IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		StreamKeepAlive: getEnvDuration("STREAM_KEEPALIVE", 20*time.Second),
	}
}
