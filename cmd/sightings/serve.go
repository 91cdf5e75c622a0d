package main

import (
	"context"
	"errors"
	"net/http"

	httpadapter "github.com/couchcryptid/sightings-service/internal/adapter/http"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(o *overrides) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the CSV into Redis, then serve sightings over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(o)
			if err != nil {
				return err
			}
			defer a.close()
			return serve(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVar(&o.httpAddr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	return cmd
}

// serve runs the startup load to completion before accepting requests, then
// serves until ctx is cancelled.
func serve(ctx context.Context, a *app) error {
	a.logger.Info("loading sightings", "csv", a.cfg.CSVPath)
	if _, err := a.pipeline.Run(ctx); err != nil {
		return err
	}

	srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.store, a.store, a.metrics, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown error", "error", err)
			return err
		}
		a.logger.Info("shutdown complete")
		return nil
	})
	return g.Wait()
}
