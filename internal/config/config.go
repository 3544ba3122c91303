package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable the service reads from the environment.
type Config struct {
	Host string
	Port string

	DatabaseURL string
	MongoURI    string
	MongoDB     string

	// BaseURL is the public prefix used when building permalinks for the
	// search-engine indexing notifier.
	BaseURL          string
	IndexingEndpoint string

	// Submission gate: admissions per window per caller.
	SubmitLimit  int
	SubmitWindow time.Duration

	// EdgeRate is the ulule/limiter formatted rate applied to the whole
	// API surface, e.g. "300-M".
	EdgeRate string

	CooldownDays int

	// Locality fallback tuning: widen to nearby results whenever the
	// exact set has fewer than SparseThreshold rows.
	SparseThreshold int
	SectionCap      int

	CleanupBatch    int
	CleanupInterval time.Duration
}

// Load reads the configuration from the environment, optionally seeded from
// a .env file. A missing .env is fine outside local development.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file")
	}

	cfg := &Config{
		Host:             getEnv("HOST", ""),
		Port:             getEnv("PORT", "8084"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:          getEnv("MONGO_DB", "classifieds"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8084"),
		IndexingEndpoint: getEnv("INDEXING_ENDPOINT", ""),
		SubmitLimit:      getEnvAsInt("SUBMIT_LIMIT", 5),
		SubmitWindow:     time.Duration(getEnvAsInt("SUBMIT_WINDOW_SECONDS", 60)) * time.Second,
		EdgeRate:         getEnv("EDGE_RATE", "300-M"),
		CooldownDays:     getEnvAsInt("COOLDOWN_DAYS", 30),
		SparseThreshold:  getEnvAsInt("LOCALITY_SPARSE_THRESHOLD", 10),
		SectionCap:       getEnvAsInt("LOCALITY_SECTION_CAP", 20),
		CleanupBatch:     getEnvAsInt("CLEANUP_BATCH", 50),
		CleanupInterval:  time.Duration(getEnvAsInt("CLEANUP_INTERVAL_MINUTES", 60)) * time.Minute,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not an int, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
