package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Devices  DevicesConfig
	Fetch    FetchConfig
	Render   RenderConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	LogLevel string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         int
	TLS          bool // affects the advertised self origin only
	ReadTimeout  int
	WriteTimeout int
}

// DevicesConfig locates the device registry file
type DevicesConfig struct {
	File string
}

// FetchConfig tunes the shared retry policy for upstream fetches
type FetchConfig struct {
	Backoff  time.Duration
	Deadline time.Duration
}

// RenderConfig tunes the headless browser
type RenderConfig struct {
	Width       int
	Height      int
	SettleDelay time.Duration
	Timeout     time.Duration
	Grayscale   bool
}

// RedisConfig holds the optional geocode cache connection; empty Addr
// disables it
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AMQPConfig holds the optional render-event publisher; empty URL disables it
type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("SERVER_PORT", 8223),
			TLS:          getEnvAsBool("SERVER_TLS", false),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 30),
		},
		Devices: DevicesConfig{
			File: getEnv("DEVICES_FILE", ""),
		},
		Fetch: FetchConfig{
			Backoff:  getEnvAsMillis("FETCH_BACKOFF_MS", 250),
			Deadline: getEnvAsMillis("FETCH_DEADLINE_MS", 2000),
		},
		Render: RenderConfig{
			Width:       getEnvAsInt("RENDER_WIDTH", 800),
			Height:      getEnvAsInt("RENDER_HEIGHT", 480),
			SettleDelay: getEnvAsMillis("RENDER_SETTLE_MS", 1300),
			Timeout:     getEnvAsMillis("RENDER_TIMEOUT_MS", 15000),
			Grayscale:   getEnvAsBool("RENDER_GRAYSCALE", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		AMQP: AMQPConfig{
			URL:        getEnv("AMQP_URL", ""),
			Exchange:   getEnv("AMQP_EXCHANGE", "inkframe"),
			RoutingKey: getEnv("AMQP_ROUTING_KEY", "screens.rendered"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsMillis reads an integer millisecond value as a duration
func getEnvAsMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Millisecond
}
