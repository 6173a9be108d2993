package main

import (
	"fmt"

	"github.com/amaumene/exercisedb-sync/internal/controllers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newImportCmd(v *viper.Viper) *cobra.Command {
	var (
		resume      bool
		categories  []string
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import exercises from ExerciseDB",
		Long: "Walk every muscle category, fetch all pages and upsert the exercises.\n" +
			"Use --resume to continue after the last category committed by an interrupted run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl, err := a.importController(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			_, runErr := ctrl.Run(cmd.Context(), controllers.ImportOptions{
				Resume:     resume,
				Limit:      a.cfg.ImportLimit,
				Categories: categories,
			})

			if metricsFile != "" {
				if err := prometheus.WriteToTextfile(metricsFile, prometheus.DefaultGatherer); err != nil {
					a.logger.WithError(err).WithField("path", metricsFile).Warn("Failed to write metrics file")
				}
			}

			if runErr != nil {
				return fmt.Errorf("import failed: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 2000, "Stop between categories once this many records were imported (0 for no limit)")
	cmd.Flags().Int("retry-delay", 60, "Base delay in seconds before retrying a rate limited request")
	cmd.Flags().BoolVar(&resume, "resume", false, "Resume after the last imported category")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "Only import these categories")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when the import ends")
	_ = v.BindPFlag("IMPORT_LIMIT", cmd.Flags().Lookup("limit"))
	_ = v.BindPFlag("RETRY_DELAY_SECONDS", cmd.Flags().Lookup("retry-delay"))

	return cmd
}
