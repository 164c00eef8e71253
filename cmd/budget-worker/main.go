package main

import (
	"os"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)

	res, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", backendCfg.Type)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	writer, err := factory.CreateSheetWriter(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize sheet writer", log.FieldError, err)
		os.Exit(1)
	}
	if backendCfg.Type == backend.MemoryBackend {
		logger.Warn("Memory backend selected, the worker cannot see the API process's items")
	}

	// The API process owns the report cache; the worker always reads fresh.
	reports := services.NewReportService(res.Store, nil, logger)
	budget := services.NewBudgetService(res.Store, nil, reports, logger)

	w := worker.NewMirrorWorker(reports, budget, writer, logger)
	logger.Info("Starting budget-worker",
		"backend", backendCfg.Type,
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	if err := w.Run(ctx, res.AMQP); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
}
