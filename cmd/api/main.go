package main

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"meridianhealth.io/losengine/internal/api"
	"meridianhealth.io/losengine/internal/config"
	"meridianhealth.io/losengine/internal/couchbase"
	"meridianhealth.io/losengine/internal/metrics"
	"meridianhealth.io/losengine/pkg/zerolog_config"
)

func main() {
	zerolog_config.SetAppPrefix("losengine-api")
	zerolog_config.StartupWithEnv(os.Getenv("ELASTICSEARCH_URL"), "logs")

	log.Info().Msg("Starting losengine API service")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	dbClient, err := couchbase.NewClient(cfg.CouchbaseURL, cfg.CouchbaseUsername, cfg.CouchbasePassword)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Couchbase")
	}
	defer dbClient.Close()

	metrics.StartSystemMetrics(15 * time.Second)

	router := api.SetupRoutes(dbClient)

	log.Info().
		Str("port", cfg.APIPort).
		Msg("API server starting")

	if err := http.ListenAndServe(":"+cfg.APIPort, router); err != nil {
		log.Fatal().
			Err(err).
			Msg("Failed to start API server")
	}
}
