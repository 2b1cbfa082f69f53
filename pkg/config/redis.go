package config

import "strconv"

// RedisConfig backs the login limiter and, with CHANGE_FEED=redis, the change feed.
// REDIS_URL takes precedence over host and port.
type RedisConfig struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

func (rc RedisConfig) Address() string {
	return rc.Host + ":" + strconv.Itoa(rc.Port)
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:      getEnv("REDIS_URL", ""),
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnvInt("REDIS_PORT", 6379),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
		Enabled:  getEnvBool("REDIS_ENABLED", true),
	}
}
