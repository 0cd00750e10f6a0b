package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the Bubblekit server.
type Config struct {
	Port    string
	GinMode string

	// CORS
	CORSAllowedOrigins string

	// Stream tuning. All durations are in seconds; zero values fall back
	// to the built-in defaults at controller construction time.
	HeartbeatSeconds         int `yaml:"heartbeat_seconds"`
	IdleTimeoutSeconds       int `yaml:"idle_timeout_seconds"`
	FirstEventTimeoutSeconds int `yaml:"first_event_timeout_seconds"`
	SinkBufferSize           int `yaml:"sink_buffer_size"`

	// Server
	ServerShutdownTimeoutSeconds int

	// Metrics
	MetricsEnabled bool

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, preceded by an optional
// .env file and an optional YAML tuning file (BUBBLEKIT_CONFIG).
func Load() *Config {
	// Load .env file if it exists.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:    getEnvOrDefault("PORT", "8000"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),

		CORSAllowedOrigins: getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173"),

		HeartbeatSeconds:         getEnvAsInt("HEARTBEAT_SECONDS", 15),
		IdleTimeoutSeconds:       getEnvAsInt("IDLE_TIMEOUT_SECONDS", 60),
		FirstEventTimeoutSeconds: getEnvAsInt("FIRST_EVENT_TIMEOUT_SECONDS", 30),
		SinkBufferSize:           getEnvAsInt("SINK_BUFFER_SIZE", 256),

		ServerShutdownTimeoutSeconds: getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 30),

		MetricsEnabled: getEnvOrDefault("METRICS_ENABLED", "true") == "true",

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "debug"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
	}

	// Settings from the tuning file take precedence over environment
	// variables for the stream block only: operators pin timeouts there.
	configFilePath := getEnvOrDefault("BUBBLEKIT_CONFIG", "bubblekit.yaml")
	if _, err := os.Stat(configFilePath); err == nil {
		configFile, err := os.Open(configFilePath)
		if err != nil {
			log.Fatalf("Failed to open config file: %v", err)
		}
		defer configFile.Close()

		if err := LoadConfigFile(configFile, cfg); err != nil {
			log.Fatalf("Failed to load config file %s: %v", configFilePath, err)
		}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
