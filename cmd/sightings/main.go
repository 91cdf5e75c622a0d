// Command sightings loads the BFRO sightings CSV into Redis and serves
// individual reports over HTTP.
//
// Usage:
//
//	sightings serve [--csv path] [--redis url] [--addr :8000]
//	sightings load  [--csv path] [--redis url]
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Startup failures are reported on stdout, same as the configured logger.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("sightings failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// overrides holds command-line values that take precedence over the environment.
type overrides struct {
	csvPath  string
	redisURL string
	httpAddr string
}

func newRootCommand() *cobra.Command {
	var o overrides

	root := &cobra.Command{
		Use:           "sightings",
		Short:         "Load and serve BFRO sighting reports",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&o.csvPath, "csv", "", "Path to the sightings CSV (overrides CSV_PATH)")
	root.PersistentFlags().StringVar(&o.redisURL, "redis", "", "Redis connection string (overrides REDIS_URL)")

	root.AddCommand(
		newServeCommand(&o),
		newLoadCommand(&o),
	)
	return root
}
