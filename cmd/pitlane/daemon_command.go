package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pitlane/internal/config"
	"pitlane/internal/logging"
	"pitlane/internal/pipeline"
	"pitlane/internal/preflight"
	"pitlane/internal/scheduler"
	"pitlane/internal/store"
)

const ingestJob = "ingest"

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run ingestion passes on the configured schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runDaemon(signalCtx, cfg)
		},
	}
}

func runDaemon(ctx context.Context, cfg *config.Config) error {
	started := time.Now().UTC()
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("pitlane-%s.log", started.Format("20060102T150405Z")))
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, "pitlane-*.log", filepath.Base(logPath), cfg.Logging.RetentionDays, started)

	if failed := preflight.Failed(preflight.RunLocal(ctx, cfg)); len(failed) > 0 {
		for _, result := range failed {
			logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
		}
		return fmt.Errorf("preflight: %s: %s", failed[0].Name, failed[0].Detail)
	}

	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	orch, err := newOrchestrator(cfg, st, logger)
	if err != nil {
		return err
	}
	pass := func(ctx context.Context) error {
		_, err := orch.Run(ctx)
		if errors.Is(err, pipeline.ErrPassInProgress) {
			logger.Info("previous pass still running; skipping activation")
			return nil
		}
		return err
	}

	sched := scheduler.New(logger)
	if err := sched.Add(ingestJob, cfg.Daemon.Schedule, pass); err != nil {
		return err
	}
	sched.Start(ctx)
	defer sched.Stop()
	logger.Info("pitlane daemon started",
		logging.String("schedule", cfg.Daemon.Schedule),
		logging.Time("next_pass", sched.Next(ingestJob)),
		logging.String("log_file", logPath),
	)

	if cfg.Daemon.RunOnStart {
		if err := pass(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.WarnWithContext(logger, "startup pass failed", "startup_pass_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "next scheduled pass retries"),
			)
		}
	}

	<-ctx.Done()
	logger.Info("pitlane daemon shutting down")
	return nil
}
