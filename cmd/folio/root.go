package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/folio"
	"github.com/eringen/folio/store"
)

// Set by the release build through -ldflags.
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:           "folio",
	Short:         "Portfolio and blog server",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig()
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", "", "config file (default ./folio.yaml)")
	f.String("db-driver", store.SQLite, "database driver: sqlite or postgres")
	f.String("db-dsn", "", "database DSN or SQLite path")
	f.String("log-level", "info", "log level")
	f.String("env", "development", "environment: development or production")
	_ = viper.BindPFlags(f)

	rootCmd.AddCommand(serveCmd, migrateCmd, pingCmd, versionCmd)
}

// loadConfig merges, lowest first: defaults, the config file, .env files,
// the environment and flags.
func loadConfig() error {
	// .env.local overrides .env; neither overrides the real environment.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.SetConfigName("folio")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("FOLIO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("db-dsn", "FOLIO_DB_DSN", "DATABASE_URL")

	viper.SetDefault("addr", ":3000")
	viper.SetDefault("static-dir", "public")
	viper.SetDefault("auto-migrate", true)
	viper.SetDefault("cache-ttl", 5*time.Minute)
	viper.SetDefault("cache-sweep", 10*time.Minute)
	viper.SetDefault("ping-delay", 5*time.Second)
	viper.SetDefault("ping-interval", 11*time.Hour)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func siteConfig() folio.SiteConfig {
	return folio.SiteConfig{
		Name:        viper.GetString("name"),
		URL:         viper.GetString("url"),
		Description: viper.GetString("description"),
		Author:      viper.GetString("author"),

		Addr:        viper.GetString("addr"),
		Environment: viper.GetString("env"),
		LogLevel:    viper.GetString("log-level"),

		Database:    storeConfig(),
		AutoMigrate: viper.GetBool("auto-migrate"),

		AdminPassword: viper.GetString("admin-password"),
		AdminToken:    viper.GetString("admin-token"),
		SessionSecret: viper.GetString("session-secret"),
		CookieSecure:  viper.GetBool("cookie-secure"),

		CacheTTL:           viper.GetDuration("cache-ttl"),
		CacheSweepInterval: viper.GetDuration("cache-sweep"),
		PingDelay:          viper.GetDuration("ping-delay"),
		PingInterval:       viper.GetDuration("ping-interval"),

		InlineImages:   viper.GetBool("inline-images"),
		MaxUploadBytes: viper.GetInt64("max-upload-bytes"),
	}
}

func storeConfig() store.Config {
	return store.Config{
		Driver: viper.GetString("db-driver"),
		DSN:    viper.GetString("db-dsn"),
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("folio %s (%s)\n", version, commit)
	},
}
