package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/pitwall/internal/appstate"
)

var historyLimit int

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent setup requests",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", appstate.DefaultHistoryView, fmt.Sprintf("entries to show (max %d)", appstate.MaxHistory))
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Forget one setup request",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryDeleteCmd,
	})
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be > 0")
	}
	if _, err := loadConfig(cmd, zerolog.WarnLevel); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	state, err := loadState(cmd.Context(), st)
	if err != nil {
		return err
	}
	if err := writeHistory(cmd.OutOrStdout(), state.History(historyLimit), time.Now()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runHistoryDeleteCmd(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd, zerolog.WarnLevel); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	state, err := loadState(cmd.Context(), st)
	if err != nil {
		return err
	}
	if err := state.DeleteSetup(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, appstate.ErrNotFound) {
			return fmt.Errorf("no history entry with id %s", args[0])
		}
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0]); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
