package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pitlane/internal/config"
	"pitlane/internal/pipeline"
	"pitlane/internal/store"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				logger, err := commandLogger(cfg, false)
				if err != nil {
					return err
				}
				orch, err := newOrchestrator(cfg, st, logger)
				if err != nil {
					return err
				}
				report, err := orch.Run(cmd.Context())
				if report != nil {
					printReport(cmd.OutOrStdout(), report)
				}
				return err
			})
		},
	}
}

func printReport(out io.Writer, report *pipeline.PassReport) {
	rows := [][]string{
		{"Run", report.RunID},
		{"Pages", strconv.Itoa(report.Pages)},
		{"Posts fetched", strconv.Itoa(report.Fetched)},
		{"Event groups", strconv.Itoa(report.Groups)},
		{"Processed", strconv.Itoa(report.Processed)},
		{"Skipped", strconv.Itoa(report.Skipped)},
		{"Ignored", strconv.Itoa(report.Ignored)},
		{"Deferred", strconv.Itoa(report.Deferred)},
		{"Failed", strconv.Itoa(report.Failed)},
		{"Stopped early", yesNo(report.StoppedEarly)},
		{"Duration", report.Duration().Round(time.Millisecond).String()},
	}
	if report.StopReason != "" {
		rows = append(rows, []string{"Stop reason", report.StopReason})
	}
	fmt.Fprintln(out, renderTable([]string{"Pass", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
	for _, event := range report.CompletedEvents {
		fmt.Fprintf(out, "Ready: %s\n", event)
	}
}
