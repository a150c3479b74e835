package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	StorageDriver     string
	DataDir           string
	DatabaseURL       string
	RedisURL          string
	EventsBackend     string
	KafkaBrokers      string
	NatsURL           string
	JaegerEndpoint    string
	DisplayLogLimit   int
	TemplateRetention time.Duration
	SubmitRateLimit   string
	LogFile           string
}

// LoadEnv reads a .env file from the working directory when one exists.
// Variables already set in the environment win.
func LoadEnv() error {
	return godotenv.Load()
}

func Load() *Config {
	return &Config{
		Port:              getenv("PORT", "8084"),
		StorageDriver:     getenv("STORAGE_DRIVER", "file"),
		DataDir:           os.Getenv("DATA_DIR"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		EventsBackend:     getenv("EVENTS_BACKEND", "none"),
		KafkaBrokers:      os.Getenv("KAFKA_BROKERS"),
		NatsURL:           getenv("NATS_URL", "nats://localhost:4222"),
		JaegerEndpoint:    os.Getenv("JAEGER_ENDPOINT"),
		DisplayLogLimit:   getenvInt("DISPLAY_LOG_LIMIT", 1200),
		TemplateRetention: getenvDuration("TEMPLATE_RETENTION", 24*time.Hour),
		SubmitRateLimit:   getenv("SUBMIT_RATE_LIMIT", "20-M"),
		LogFile:           os.Getenv("LOG_FILE"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
