package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/pitwall/internal/chatui"
	"github.com/verte-zerg/pitwall/internal/engineer"
)

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message...>",
		Short: "Ask the race engineer one question",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAskCmd,
	}
}

func runAskCmd(cmd *cobra.Command, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return fmt.Errorf("message is required")
	}
	eng, err := engineer.NewDefault()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), eng.Reply(message)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the race engineer",
		Args:  cobra.NoArgs,
		RunE:  runChatCmd,
	}
}

func runChatCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadConfig(cmd, zerolog.WarnLevel); err != nil {
		return err
	}
	eng, err := engineer.NewDefault()
	if err != nil {
		return err
	}
	program := tea.NewProgram(chatui.NewModel(eng), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run chat TUI: %w", err)
	}
	return nil
}
