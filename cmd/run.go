package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/config"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/destination"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/journal"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/logger"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/notify"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/processor"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/report"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/tracker"
)

func newLogger(cfg *config.LoggerConfig, stdout, stderr io.Writer) logger.Logger {
	w := stderr
	if cfg.Output == config.LogOutputStdout {
		w = stdout
	}
	return logger.NewLoggerWithWriter(cfg, w)
}

// runCleanup wires the collaborators, runs one pass and publishes the outcome
func runCleanup(ctx context.Context, cfg *config.AppConfig, stdout, stderr io.Writer) error {
	log := newLogger(&cfg.Logger, stdout, stderr)
	log.Debug("Configuration loaded and validated")

	conn, err := tracker.Connect(&cfg.Server, log)
	if err != nil {
		return &usageError{err}
	}
	log.Info("Connecting to %s", cfg.Server.URI)

	j, err := journal.Open(&cfg.Journal)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer func() {
		if err := j.Close(); err != nil {
			log.Error("Error closing journal: %v", err)
		}
	}()

	dest, err := destination.CreateDestination(ctx, &cfg.Report)
	if err != nil {
		return fmt.Errorf("creating report destination: %w", err)
	}
	defer func() {
		if err := dest.Close(); err != nil {
			log.Error("Error closing report destination: %v", err)
		}
	}()

	notifier, err := notify.New(&cfg.Notify)
	if err != nil {
		return &usageError{err}
	}

	if !cfg.Cleanup.Delete {
		log.Info("Running in DRY-RUN mode - nothing will be deleted")
	}
	runner := processor.NewRunner(conn, j, log, processor.Options{
		Commit:        cfg.Cleanup.Delete,
		BatchSize:     cfg.Cleanup.BatchSize,
		FetchWorkers:  cfg.Cleanup.FetchWorkers,
		DeleteWorkers: cfg.Cleanup.DeleteWorkers,
	})

	result, runErr := runner.Run(ctx, cfg.Server.ProjectName)

	if err := report.Render(stdout, result, runErr); err != nil {
		log.Error("Failed to print summary: %v", err)
	}

	// A run that never resolved the project has nothing worth publishing
	if result != nil && result.Project.ID != uuid.Nil {
		publishReport(ctx, dest, result, runErr, log)
	}

	if err := notifier.Notify(ctx, result, runErr); err != nil {
		log.Warn("Failed to send notification: %v", err)
	}

	return runErr
}

func publishReport(ctx context.Context, dest destination.DestinationProvider, result *model.CleanupResult, runErr error, log logger.Logger) {
	doc := report.New(result, runErr, time.Now())
	data, err := doc.Marshal()
	if err != nil {
		log.Warn("Failed to encode report: %v", err)
		return
	}
	if err := dest.Upload(ctx, doc.FileName(), bytes.NewReader(data)); err != nil {
		log.Warn("Failed to upload report %s: %v", doc.FileName(), err)
		return
	}
	log.Debug("Report uploaded: %s", doc.FileName())
}
