package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/pitwall/internal/config"
	"github.com/verte-zerg/pitwall/internal/pitstop"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# pitwall configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# cycle-ms = %d           # Milliseconds for one sweep of the timing bar
# movement-speed = %.2f   # Target zone drift speed
# shrink-rate = %.3f      # Target zone shrink per stop
# min-width = %.2f         # Smallest target zone width (0-1)
# tolerance = %.2f         # Extra slack around the zone (0-1)
# oscillator = %q       # Target drift time base (wall or session)

[server]
# addr = %q            # HTTP listen address for pitwall serve
# log-level = "info"       # debug, info, warn, error
`,
		int(pitstop.DefaultCycle/time.Millisecond),
		pitstop.DefaultMovementSpeed,
		pitstop.DefaultShrinkRate,
		pitstop.DefaultMinWidth,
		pitstop.DefaultTolerance,
		string(pitstop.PhaseWall),
		defaultAddr,
	)
}
