package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/folio"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", ":3000", "listen address")
	f.String("static-dir", "public", "directory served under /public")
	_ = viper.BindPFlags(f)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := siteConfig()
	log := folio.NewLogger(cfg.LogLevel, cfg.IsProduction())

	app := folio.New(cfg, folio.ViewFuncs{},
		folio.WithLogger(log),
		folio.WithStaticDir(viper.GetString("static-dir")),
	)
	if err := app.Init(cmd.Context()); err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		_ = app.Close()
		return err
	case <-quit:
	}

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}
