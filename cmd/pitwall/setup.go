package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/pitwall/internal/appstate"
	"github.com/verte-zerg/pitwall/internal/setup"
)

var (
	setupTrack    string
	setupWeather  string
	setupSave     bool
	setupAnalysis bool
)

func newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Recommend a car setup for a track and weather",
		Args:  cobra.NoArgs,
		RunE:  runSetupCmd,
	}
	cmd.Flags().StringVar(&setupTrack, "track", "", "track name (see: pitwall tracks)")
	cmd.Flags().StringVar(&setupWeather, "weather", "", "weather (Dry, Rainy, Foggy)")
	cmd.Flags().BoolVar(&setupSave, "save", false, "remember the request in setup history")
	cmd.Flags().BoolVar(&setupAnalysis, "analysis", false, "include the AI weather analysis")
	return cmd
}

func runSetupCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadConfig(cmd, zerolog.WarnLevel); err != nil {
		return err
	}
	rec, err := setup.NewDefault()
	if err != nil {
		return err
	}
	recommendation, err := rec.Recommend(setupTrack, setupWeather)
	if err != nil {
		if errors.Is(err, setup.ErrMissingInput) {
			return fmt.Errorf("--track and --weather are required")
		}
		return err
	}

	out := cmd.OutOrStdout()
	width := terminalWidth(out)
	if err := writeRecommendation(out, recommendation, width); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	var analysisShown bool
	if setupAnalysis {
		text, ok := rec.Analysis(setupTrack, setupWeather)
		if !ok {
			logErrf("no AI analysis for weather %q\n", setupWeather)
		} else {
			if err := writeAnalysis(out, text, width); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			analysisShown = true
		}
	}
	if !setupSave && !analysisShown {
		return nil
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	ctx := cmd.Context()
	state, err := loadState(ctx, st)
	if err != nil {
		return err
	}
	if analysisShown {
		if err := state.SetFlag(ctx, appstate.FlagAIRecommender, true); err != nil {
			return err
		}
	}
	if setupSave {
		entry, err := state.RecordSetup(ctx, setupTrack, setupWeather)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "\nSaved to history as %s\n", entry.ID); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newTracksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tracks",
		Short: "List tracks",
		Args:  cobra.NoArgs,
		RunE:  runTracksCmd,
	}
}

func runTracksCmd(cmd *cobra.Command, _ []string) error {
	rec, err := setup.NewDefault()
	if err != nil {
		return err
	}
	for _, track := range rec.Tracks() {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), track); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
