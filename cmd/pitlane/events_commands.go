package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pitlane/internal/config"
	"pitlane/internal/pipeline"
	"pitlane/internal/sessions"
	"pitlane/internal/store"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List stored events with session and stream counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				events, err := st.ListEvents(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(events) == 0 {
					fmt.Fprintln(out, "No events stored")
					return nil
				}
				rows := make([][]string, 0, len(events))
				for _, ev := range events {
					rows = append(rows, []string{
						strconv.Itoa(ev.Round),
						ev.Name,
						ev.Country,
						strconv.Itoa(ev.SessionCount),
						strconv.Itoa(ev.LinkCount),
						ev.UpdatedAt.Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Round", "Event", "Country", "Sessions", "Streams", "Updated"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <event name>",
		Short: "Show an event's sessions and stream links",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				graph, err := st.EventGraph(cmd.Context(), name)
				if err != nil {
					return err
				}
				if graph == nil {
					return fmt.Errorf("event %q not found", name)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (R%d, %s)\n", graph.Name, graph.Round, graph.Country)
				for _, quality := range cfg.Pipeline.Qualities {
					fmt.Fprintf(out, "Complete at %s: %s\n", quality, yesNo(pipeline.CompleteAt(graph, quality)))
				}

				rows := make([][]string, 0, len(graph.Sessions))
				for _, s := range graph.Sessions {
					label := s.Name
					if c, ok := sessions.ParseCategory(s.Name); ok {
						label = c.Label()
					}
					if len(s.Links) == 0 {
						rows = append(rows, []string{label, s.Date, s.Duration, "", "", ""})
						continue
					}
					for _, link := range s.Links {
						rows = append(rows, []string{label, s.Date, s.Duration, link.Quality, humanize.IBytes(uint64(link.Size)), link.URL})
					}
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Session", "Date", "Duration", "Quality", "Size", "URL"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <event name> <round>",
		Short: "Show ledger completeness for an event",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			round, err := strconv.Atoi(args[len(args)-1])
			if err != nil || round <= 0 {
				return errors.New("round must be a positive number")
			}
			name := strings.TrimSpace(strings.Join(args[:len(args)-1], " "))
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				completion, err := st.CompletionStatus(cmd.Context(), name, round)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(completion.Qualities) == 0 {
					fmt.Fprintf(out, "No ledger entries for %s R%d\n", name, round)
					return nil
				}
				rows := make([][]string, 0, len(completion.Qualities))
				for _, q := range completion.Qualities {
					latest := ""
					if !q.LatestPost.IsZero() {
						latest = q.LatestPost.Format("2006-01-02 15:04")
					}
					rows = append(rows, []string{
						q.Quality,
						strconv.Itoa(q.Posts),
						strconv.Itoa(q.FullyProcessed),
						q.JobStatus,
						latest,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Quality", "Posts", "Complete", "Job", "Latest post"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				fmt.Fprintf(out, "%s R%d complete: %s\n", name, round, yesNo(completion.Complete(cfg.Pipeline.Qualities)))
				return nil
			})
		},
	}
}
