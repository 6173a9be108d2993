package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "exercisedb-sync",
		Short:         "exercisedb-sync imports the ExerciseDB catalog into a local database",
		Long:          "exercisedb-sync walks the ExerciseDB muscle listings, stores every exercise in SQLite and serves the result over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("config-dir", "", "Directory holding the database and cursor (default ~/.config/exercisedb-sync)")
	_ = v.BindPFlag("LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("CONFIG_DIR", rootCmd.PersistentFlags().Lookup("config-dir"))

	rootCmd.AddCommand(
		newImportCmd(v),
		newStatsCmd(v),
		newCursorCmd(v),
		newServeCmd(v),
	)
	return rootCmd
}
