package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pitlane/internal/config"
	"pitlane/internal/store"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and reset processed-post records",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerResetCommand(ctx))
	return ledgerCmd
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <event name> <round>",
		Short: "List ledger entries for an event",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			round, err := strconv.Atoi(args[len(args)-1])
			if err != nil || round <= 0 {
				return errors.New("round must be a positive number")
			}
			name := strings.TrimSpace(strings.Join(args[:len(args)-1], " "))
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				entries, err := st.LedgerForEvent(cmd.Context(), name, round)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintf(out, "No ledger entries for %s R%d\n", name, round)
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					checked := ""
					if e.JobLastChecked != nil {
						checked = e.JobLastChecked.Format("2006-01-02 15:04")
					}
					rows = append(rows, []string{
						e.PostID,
						e.Quality,
						e.CreatedUTC.Format("2006-01-02 15:04"),
						yesNo(e.FullyProcessed),
						e.JobStatus,
						checked,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Post", "Quality", "Posted", "Complete", "Job", "Checked"},
					rows,
					nil,
				))
				return nil
			})
		},
	}
}

func newLedgerResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <post id>",
		Short: "Clear a post's processing state so the next pass retries it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID := strings.TrimSpace(args[0])
			if postID == "" {
				return errors.New("post id is required")
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				n, err := st.ResetLedgerEntry(cmd.Context(), postID)
				if err != nil {
					return err
				}
				if n == 0 {
					return fmt.Errorf("no ledger entries for post %s", postID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d ledger entr%s for post %s\n", n, plural(n, "y", "ies"), postID)
				return nil
			})
		},
	}
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
