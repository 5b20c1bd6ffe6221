package orchestrator

import (
	"context"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// ServiceManager manages the lifecycle of the batch and API services
type ServiceManager struct {
	batchCmd *exec.Cmd
	apiCmd   *exec.Cmd
}

// NewServiceManager creates a new service manager
func NewServiceManager() *ServiceManager {
	return &ServiceManager{}
}

// StartBatchService starts the stay-computation batch service
func (sm *ServiceManager) StartBatchService(ctx context.Context, binExt string) error {
	log.Info().Msg("Starting batch service...")

	sm.batchCmd = exec.CommandContext(ctx, "./los"+binExt)
	sm.batchCmd.Stdout = log.Logger
	sm.batchCmd.Stderr = log.Logger

	return sm.batchCmd.Start()
}

// StartAPIService starts the results API service
func (sm *ServiceManager) StartAPIService(ctx context.Context, binExt string) error {
	log.Info().Msg("Starting API service...")

	sm.apiCmd = exec.CommandContext(ctx, "./api"+binExt)
	sm.apiCmd.Stdout = log.Logger
	sm.apiCmd.Stderr = log.Logger

	return sm.apiCmd.Start()
}

// WaitForServices waits for the batch run to complete and keeps the API up
// until it exits or the context is cancelled
func (sm *ServiceManager) WaitForServices(ctx context.Context) {
	log.Info().Msg("Both services started, waiting for completion...")

	batchDone := make(chan error, 1)
	go func() {
		batchDone <- sm.batchCmd.Wait()
	}()

	apiDone := make(chan error, 1)
	go func() {
		apiDone <- sm.apiCmd.Wait()
	}()

	for {
		select {
		case err := <-batchDone:
			if err != nil {
				log.Error().Err(err).Msg("Batch service exited with error")
			} else {
				log.Info().Msg("Batch service completed successfully")
			}
			batchDone = nil
		case err := <-apiDone:
			if err != nil {
				log.Error().Err(err).Msg("API service exited with error")
			} else {
				log.Info().Msg("API service exited")
			}
			return
		case <-ctx.Done():
			log.Info().Msg("Shutting down services...")
			sm.shutdownServices()
			return
		}
	}
}

// shutdownServices gracefully shuts down all services
func (sm *ServiceManager) shutdownServices() {
	// SIGTERM lets the batch drain in-flight patients
	if sm.batchCmd.Process != nil {
		sm.batchCmd.Process.Signal(syscall.SIGTERM)
	}
	if sm.apiCmd.Process != nil {
		sm.apiCmd.Process.Signal(syscall.SIGTERM)
	}

	// Wait for graceful shutdown
	time.Sleep(5 * time.Second)

	// Force kill if still running
	if sm.batchCmd.Process != nil {
		sm.batchCmd.Process.Kill()
	}
	if sm.apiCmd.Process != nil {
		sm.apiCmd.Process.Kill()
	}
}
