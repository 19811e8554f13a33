package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/pitwall/internal/config"
	"github.com/verte-zerg/pitwall/internal/pitstop"
	"github.com/verte-zerg/pitwall/internal/pitui"
)

var (
	pitCycleMs       int
	pitMovementSpeed float64
	pitShrinkRate    float64
	pitMinWidth      float64
	pitTolerance     float64
	pitOscillator    string
)

func newPitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pit",
		Short: "Play the pit stop timing game",
		Args:  cobra.NoArgs,
		RunE:  runPitCmd,
	}
	addPitFlags(cmd)
	return cmd
}

func addPitFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&pitCycleMs, "cycle-ms", int(pitstop.DefaultCycle/time.Millisecond), "milliseconds for one sweep of the timing bar")
	cmd.Flags().Float64Var(&pitMovementSpeed, "movement-speed", pitstop.DefaultMovementSpeed, "target zone drift speed")
	cmd.Flags().Float64Var(&pitShrinkRate, "shrink-rate", pitstop.DefaultShrinkRate, "target zone shrink per stop")
	cmd.Flags().Float64Var(&pitMinWidth, "min-width", pitstop.DefaultMinWidth, "smallest target zone width (0-1)")
	cmd.Flags().Float64Var(&pitTolerance, "tolerance", pitstop.DefaultTolerance, "extra slack around the zone (0-1)")
	cmd.Flags().StringVar(&pitOscillator, "oscillator", string(pitstop.PhaseWall), "target drift time base (wall or session)")
}

func runPitCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadConfig(cmd, zerolog.WarnLevel)
	if err != nil {
		return err
	}
	tuning, err := tuningFromConfig(cmd, fileCfg.Game)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	sched := pitstop.NewScheduler(clockwork.NewRealClock(), pitstop.DefaultFrameInterval)
	defer sched.Cancel()
	model := pitui.NewModel(ctx, pitstop.NewGame(tuning), sched, st, log.Logger)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// tuningFromConfig merges config file values under explicit flags.
func tuningFromConfig(cmd *cobra.Command, game config.GameConfig) (pitstop.Tuning, error) {
	applyIntConfig(cmd, "cycle-ms", &pitCycleMs, game.CycleMs)
	applyFloatConfig(cmd, "movement-speed", &pitMovementSpeed, game.MovementSpeed)
	applyFloatConfig(cmd, "shrink-rate", &pitShrinkRate, game.ShrinkRate)
	applyFloatConfig(cmd, "min-width", &pitMinWidth, game.MinWidth)
	applyFloatConfig(cmd, "tolerance", &pitTolerance, game.Tolerance)
	applyStringConfig(cmd, "oscillator", &pitOscillator, game.Oscillator)

	tuning := pitstop.DefaultTuning()
	tuning.Cycle = time.Duration(pitCycleMs) * time.Millisecond
	tuning.MovementSpeed = pitMovementSpeed
	tuning.ShrinkRate = pitShrinkRate
	tuning.MinWidth = pitMinWidth
	tuning.Tolerance = pitTolerance
	tuning.Phase = pitstop.Phase(strings.ToLower(strings.TrimSpace(pitOscillator)))
	if tuning.InitialWidth < tuning.MinWidth {
		tuning.InitialWidth = tuning.MinWidth
	}
	if err := tuning.Validate(); err != nil {
		return pitstop.Tuning{}, fmt.Errorf("invalid game settings: %w", err)
	}
	return tuning, nil
}
