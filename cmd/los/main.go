package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"meridianhealth.io/losengine/internal/batch"
	"meridianhealth.io/losengine/internal/config"
	"meridianhealth.io/losengine/internal/couchbase"
	"meridianhealth.io/losengine/internal/metrics"
	"meridianhealth.io/losengine/internal/orchestrator"
	"meridianhealth.io/losengine/internal/sink"
	"meridianhealth.io/losengine/internal/source"
	"meridianhealth.io/losengine/internal/stay"
	"meridianhealth.io/losengine/pkg/zerolog_config"
)

func main() {
	zerolog_config.SetAppPrefix("losengine-batch")
	zerolog_config.StartupWithEnv(os.Getenv("ELASTICSEARCH_URL"), "logs")

	log.Info().Msg("Starting losengine batch service")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	runID := uuid.New().String()
	runStart := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orchestrator.NewSignalHandler().HandleSignals(ctx, cancel)

	metrics.StartSystemMetrics(15 * time.Second)

	// External collaborators
	classifier, err := stay.LoadClassifierFile(cfg.ClassificationPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load specialty classification table")
	}

	src, err := source.NewPostgresSource(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to encounter database")
	}
	defer src.Close()

	dbClient, err := couchbase.NewClient(cfg.CouchbaseURL, cfg.CouchbaseUsername, cfg.CouchbasePassword)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Couchbase")
	}
	defer dbClient.Close()

	// Serialize concurrent batch runs against the results bucket
	locker := dbClient.NewRunLocker(runID)
	if err := locker.Acquire(); err != nil {
		log.Fatal().Err(err).Msg("Failed to acquire run lock")
	}
	defer func() {
		if err := locker.Release(); err != nil {
			log.Error().Err(err).Msg("Failed to release run lock")
		}
	}()

	csvSink, err := sink.NewCSVSink(cfg.OutputCSVPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open CSV output")
	}
	out := sink.NewMultiSink(csvSink, sink.NewCouchbaseSink(dbClient, runID))

	pipeline, err := stay.NewPipeline(classifier, cfg.LagThreshold)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build stay pipeline")
	}

	runner, err := batch.NewRunner(runID, src, out, pipeline, cfg.Workers)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build batch runner")
	}

	summary, runErr := runner.Run(ctx)
	if closeErr := out.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}

	metrics.RecordRunDuration(runStart)

	if err := dbClient.UpsertDocument("run::"+runID, summary); err != nil {
		log.Error().Err(err).Msg("Failed to persist run summary")
	}
	if err := dbClient.UpsertDocument("run::latest", summary); err != nil {
		log.Error().Err(err).Msg("Failed to persist latest-run pointer")
	}

	if runErr != nil {
		log.Fatal().
			Err(runErr).
			Str("runId", runID).
			Int("written", summary.PatientsWritten).
			Msg("Batch run failed")
	}

	log.Info().
		Str("runId", runID).
		Int("patients", summary.PatientsTotal).
		Int("written", summary.PatientsWritten).
		Int("stays", summary.StaysWritten).
		Msg("Stay computation completed successfully")
}
