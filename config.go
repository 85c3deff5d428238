package folio

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/store"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string // Site name (default "Portfolio")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr        string // Listen address (default ":3000")
	Environment string // "development" (default) or "production"
	LogLevel    string // logrus level name (default "info")

	Database    store.Config // Store driver and DSN (default SQLite at data/folio.db)
	AutoMigrate bool         // Apply migrations on start

	AdminPassword string // Password for the admin session login
	AdminToken    string // Bearer token accepted by write endpoints
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	CacheTTL           time.Duration // Default entry TTL (default 5min)
	CacheSweepInterval time.Duration // Expired-entry sweep (default 10min)

	PingDelay    time.Duration // Delay before the first keep-alive ping (default 5s)
	PingInterval time.Duration // Interval between keep-alive pings (default 11h)

	InlineImages   bool  // Return uploads as data: URLs instead of writing files
	MaxUploadBytes int64 // Upload size limit (default 5MB)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = store.SQLite
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.CacheSweepInterval == 0 {
		c.CacheSweepInterval = 10 * time.Minute
	}
	if c.PingDelay == 0 {
		c.PingDelay = 5 * time.Second
	}
	if c.PingInterval == 0 {
		c.PingInterval = 11 * time.Hour
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = 5 << 20
	}
}

// IsProduction reports whether the site runs in the production environment.
func (c SiteConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
// Uploaded images are written below it.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger sets the logger. The default is a text logger on stderr.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *App) {
		a.Log = l
	}
}

// WithDB uses an already opened store instead of opening Config.Database.
// The caller keeps ownership and closes it.
func WithDB(db *store.DB) Option {
	return func(a *App) {
		a.DB = db
		a.ownsDB = false
	}
}

// WithRepositoryOptions passes options such as a fixed clock to both
// content repositories.
func WithRepositoryOptions(opts ...content.Option) Option {
	return func(a *App) {
		a.repoOpts = append(a.repoOpts, opts...)
	}
}
