package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config carries everything the services read from the environment. It is
// loaded once at startup and passed explicitly; nothing reads the environment
// after Load returns.
type Config struct {
	// Event source
	PostgresURL string

	// Results store
	CouchbaseURL      string
	CouchbaseUsername string
	CouchbasePassword string

	// File collaborators
	ClassificationPath string
	OutputCSVPath      string

	// Engine tuning
	LagThreshold time.Duration
	Workers      int

	// API service
	APIPort string

	// Logging
	ElasticsearchURL string
}

const (
	defaultLagHours = 24
	defaultAPIPort  = "8080"
)

// Load reads configuration from the environment, applying defaults and
// validating the values the engine depends on.
func Load() (*Config, error) {
	cfg := &Config{
		PostgresURL:        os.Getenv("PG_URL"),
		CouchbaseURL:       os.Getenv("COUCHBASE_URL"),
		CouchbaseUsername:  os.Getenv("COUCHBASE_USERNAME"),
		CouchbasePassword:  os.Getenv("COUCHBASE_PASSWORD"),
		ClassificationPath: os.Getenv("CLASSIFICATION_TABLE_PATH"),
		OutputCSVPath:      os.Getenv("OUTPUT_CSV_PATH"),
		APIPort:            os.Getenv("API_PORT"),
		ElasticsearchURL:   os.Getenv("ELASTICSEARCH_URL"),
	}

	lagHours := defaultLagHours
	if v := os.Getenv("LOS_LAG_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOS_LAG_HOURS %q: %w", v, err)
		}
		lagHours = n
	}
	if lagHours <= 0 {
		return nil, fmt.Errorf("LOS_LAG_HOURS must be positive, got %d", lagHours)
	}
	cfg.LagThreshold = time.Duration(lagHours) * time.Hour

	cfg.Workers = runtime.NumCPU()
	if v := os.Getenv("LOS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOS_WORKERS %q: %w", v, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("LOS_WORKERS must be positive, got %d", n)
		}
		cfg.Workers = n
	}

	if cfg.APIPort == "" {
		cfg.APIPort = defaultAPIPort
	}
	if cfg.OutputCSVPath == "" {
		cfg.OutputCSVPath = "stays.csv"
	}

	return cfg, nil
}
