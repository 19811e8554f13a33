package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/pitwall/internal/api"
	"github.com/verte-zerg/pitwall/internal/engineer"
	"github.com/verte-zerg/pitwall/internal/setup"
)

const (
	defaultAddr     = ":5000"
	shutdownTimeout = 5 * time.Second
)

var serveAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadConfig(cmd, zerolog.InfoLevel)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)

	rec, err := setup.NewDefault()
	if err != nil {
		return err
	}
	eng, err := engineer.NewDefault()
	if err != nil {
		return err
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

	srv := api.NewServer(rec, eng, state, st, log.Logger).NewHTTPServer(serveAddr)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", serveAddr).Int("tracks", len(rec.Tracks())).Msg("starting API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
