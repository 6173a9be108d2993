package main

import (
	"fmt"

	"github.com/amaumene/exercisedb-sync/internal/controllers"
	"github.com/amaumene/exercisedb-sync/internal/models"
	"github.com/amaumene/exercisedb-sync/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCursorCmd(v *viper.Viper) *cobra.Command {
	cursorCmd := &cobra.Command{
		Use:   "cursor",
		Short: "Inspect or change the resume cursor",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the last imported category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			last, found, err := a.cursor.Get(cmd.Context(), models.CursorKey)
			if err != nil {
				return fmt.Errorf("failed to read cursor: %w", err)
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), "No import cursor")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), last)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the resume cursor so the next resumed import starts over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.cursor.Delete(cmd.Context(), models.CursorKey); err != nil {
				return fmt.Errorf("failed to clear cursor: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Import cursor cleared")
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <category>",
		Short: "Mark a category as the last imported one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := utils.SelectCategories(args, models.MuscleCategories)
			if err != nil {
				return err
			}

			a, err := newApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.cursor.Put(cmd.Context(), models.CursorKey, selected[0], controllers.CursorTTL); err != nil {
				return fmt.Errorf("failed to save cursor: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Import cursor set to %q\n", selected[0])
			return nil
		},
	}

	cursorCmd.AddCommand(showCmd, clearCmd, setCmd)
	return cursorCmd
}
