package main

import (
	"github.com/spf13/cobra"

	"github.com/eringen/folio/store"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate up|down",
	Short:     "Apply or roll back the database schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := store.Up
		if args[0] == "down" {
			dir = store.Down
		}

		db, err := store.Open(cmd.Context(), storeConfig())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.Migrate(db, dir); err != nil {
			return err
		}
		cmd.Printf("migrate %s: done (%s)\n", args[0], db.Driver())
		return nil
	},
}
