package main

import (
	"fmt"
	"io"

	"github.com/amaumene/exercisedb-sync/internal/api"
	"github.com/amaumene/exercisedb-sync/internal/controllers"
	"github.com/amaumene/exercisedb-sync/internal/scheduler"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stored catalog over HTTP",
		Long:  "Serve the stored catalog over HTTP. When IMPORT_SCHEDULE is set, imports also run on that cron schedule.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()

			// Scheduled imports report statistics through /status
			if a.cfg.ImportSchedule != "" {
				ctrl, err := a.importController(io.Discard)
				if err != nil {
					return err
				}
				sched := scheduler.NewScheduler(ctrl, a.cfg.ImportSchedule, controllers.ImportOptions{
					Resume: true,
					Limit:  a.cfg.ImportLimit,
				}, a.logger)
				if err := sched.Start(ctx); err != nil {
					return fmt.Errorf("failed to start scheduler: %w", err)
				}
				defer sched.Stop()
			}

			statsCtrl := controllers.NewStatsController(a.db, a.logger)
			server := api.NewServer(a.cfg, a.db, statsCtrl, a.cursor, a.logger)

			a.logger.Info("exercisedb-sync is running")
			if err := server.Start(ctx); err != nil {
				return err
			}
			a.logger.Info("exercisedb-sync stopped")
			return nil
		},
	}

	cmd.Flags().String("port", "8080", "HTTP port")
	_ = v.BindPFlag("SERVER_PORT", cmd.Flags().Lookup("port"))

	return cmd
}
