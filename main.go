package main

import (
	"context"
	"os"
	"runtime"

	"github.com/rs/zerolog/log"

	"meridianhealth.io/losengine/internal/orchestrator"
	"meridianhealth.io/losengine/pkg/zerolog_config"
)

func main() {
	zerolog_config.SetAppPrefix("losengine-orch")
	zerolog_config.StartupWithEnv(os.Getenv("ELASTICSEARCH_URL"), "logs")

	log.Info().Msg("Starting losengine orchestrator")

	binExt := ""
	if runtime.GOOS == "windows" {
		binExt = ".exe"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orchestrator.NewSignalHandler().HandleSignals(ctx, cancel)

	sm := orchestrator.NewServiceManager()
	if err := sm.StartBatchService(ctx, binExt); err != nil {
		log.Fatal().Err(err).Msg("Failed to start batch service")
	}
	if err := sm.StartAPIService(ctx, binExt); err != nil {
		log.Fatal().Err(err).Msg("Failed to start API service")
	}

	sm.WaitForServices(ctx)
}
