package main

import (
	"github.com/amaumene/exercisedb-sync/internal/controllers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the distribution of stored exercises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			_, err = controllers.NewStatsController(a.db, a.logger).Report(cmd.Context(), cmd.OutOrStdout())
			return err
		},
	}
}
