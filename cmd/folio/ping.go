package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/folio"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/keepalive"
	"github.com/eringen/folio/store"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Read one row from each content table once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		db, err := store.Open(ctx, storeConfig())
		if err != nil {
			return err
		}
		defer db.Close()

		log := folio.NewLogger(viper.GetString("log-level"), false)
		p := keepalive.New(db,
			keepalive.WithTables(content.ProjectsTable, content.PostsTable),
			keepalive.WithLogger(log),
		)

		failed := 0
		for _, r := range p.PingOnce(ctx) {
			status := "ok"
			if !r.OK() {
				status = "error: " + r.Err.Error()
				failed++
			}
			cmd.Printf("%-12s %-8s %s\n", r.Table, r.Duration.Round(time.Millisecond), status)
		}
		if failed > 0 {
			return fmt.Errorf("%d table(s) failed", failed)
		}
		return nil
	},
}
