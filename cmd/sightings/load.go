package main

import (
	"github.com/spf13/cobra"
)

func newLoadCommand(o *overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load the CSV into Redis and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(o)
			if err != nil {
				return err
			}
			defer a.close()

			a.logger.Info("loading sightings", "csv", a.cfg.CSVPath)
			_, err = a.pipeline.Run(cmd.Context())
			return err
		},
	}
}
