package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the server process reads from the environment.
type Config struct {
	Port         string
	DatabaseURL  string // empty: run on the in-memory store
	KafkaBrokers []string
	KafkaTopic   string
	LogLevel     string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	// A missing .env file is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "balance_changed"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
