package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the startup configuration surface. Values are read once at
// process start and never hot-reloaded.
type Config struct {
	ServerPort string

	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	RatePeriod time.Duration
	RateLimit  int64

	CacheDuration time.Duration
	CacheBackend  string // "postgres", "memcached" or "in_memory"

	Database  DatabaseConfig
	Redis     RedisConfig
	Memcached MemcachedConfig

	RequestTimeout                time.Duration
	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MemcachedConfig struct {
	Addrs   string
	Timeout time.Duration
}

// Load reads configuration from the environment, after loading a .env file
// if one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		ServerPort: getEnv("SERVER_PORT", "3000"),

		WeatherAPIURL:     getEnv("WEATHER_API_URL", "https://staging.v4.api.wander.com/hiring-test/weather"),
		WeatherAPITimeout: getEnvAsDuration("WEATHER_API_TIMEOUT", 5*time.Second),

		RatePeriod: getEnvAsDuration("RATE_PERIOD", 10*time.Second),
		RateLimit:  int64(getEnvAsInt("RATE_LIMIT", 5)),

		CacheDuration: getEnvAsDuration("CACHE_DURATION", 10*time.Minute),
		CacheBackend:  getEnv("CACHE_BACKEND", "postgres"),

		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "weather_user"),
			Password: getEnv("DB_PASSWORD", "weather_pass"),
			DBName:   getEnv("DB_NAME", "weather_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Memcached: MemcachedConfig{
			Addrs:   getEnv("MEMCACHED_ADDRS", "localhost:11211"),
			Timeout: getEnvAsDuration("MEMCACHED_TIMEOUT", 500*time.Millisecond),
		},

		RequestTimeout:                getEnvAsDuration("REQUEST_TIMEOUT", 15*time.Second),
		ShutdownTimeout:               getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		ShutdownInFlightTimeout:       getEnvAsDuration("SHUTDOWN_INFLIGHT_TIMEOUT", 10*time.Second),
		ShutdownInFlightCheckInterval: getEnvAsDuration("SHUTDOWN_INFLIGHT_CHECK_INTERVAL", 100*time.Millisecond),
	}

	if config.RateLimit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT must be positive")
	}
	if config.RatePeriod <= 0 {
		return nil, fmt.Errorf("RATE_PERIOD must be positive")
	}
	if config.CacheDuration <= 0 {
		return nil, fmt.Errorf("CACHE_DURATION must be positive")
	}
	switch config.CacheBackend {
	case "postgres", "memcached", "in_memory":
	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q", config.CacheBackend)
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
