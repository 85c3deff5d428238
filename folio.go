// Package folio serves a personal portfolio and blog: a JSON API for projects
// and posts, optional templ-rendered pages, RSS and sitemap feeds, image
// uploads and a keep-alive schedule for hosted databases.
//
// Callers supply their own templ components through ViewFuncs; folio owns the
// handlers, middleware, caching and persistence.
package folio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/eringen/folio/cache"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/keepalive"
	"github.com/eringen/folio/store"
)

// ViewFuncs holds user-provided templ components for the public pages. Any
// nil field disables the matching route; an empty ViewFuncs serves the API
// only.
type ViewFuncs struct {
	Home        func(featured []content.Project, posts []content.BlogPost, siteURL string) templ.Component
	Projects    func(projects []content.Project, siteURL string) templ.Component
	Blog        func(posts []content.BlogPost, siteURL string) templ.Component
	Post        func(post content.BlogPost, related []content.BlogPost, siteURL string) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central folio application. It wires together the store,
// repositories, cache, keep-alive pinger, handlers and middleware.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	DB       *store.DB
	Projects *content.ProjectRepository
	Posts    *content.PostRepository
	Cache    *cache.Cache
	Pinger   *keepalive.Pinger
	Views    ViewFuncs
	Log      logrus.FieldLogger

	loginLimiter *LoginLimiter
	registry     *prometheus.Registry
	pings        *prometheus.CounterVec
	repoOpts     []content.Option
	customRoutes []func(*App)
	staticDir    string
	ownsDB       bool
	stopSweeper  func()
	initialized  bool
}

// New creates a new folio App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
		ownsDB:    true,
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Log == nil {
		a.Log = NewLogger(cfg.LogLevel, cfg.IsProduction())
	}
	return a
}

// Init opens the store, builds the repositories and cache, and registers
// middleware and routes. Start calls it when needed; tests call it directly
// and drive a.Echo through httptest.
func (a *App) Init(ctx context.Context) error {
	if a.initialized {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("folio: SessionSecret is required")
	}
	if a.Config.AdminPassword == "" && a.Config.AdminToken == "" {
		return fmt.Errorf("folio: AdminPassword or AdminToken is required")
	}

	if a.DB == nil {
		db, err := store.Open(ctx, a.Config.Database)
		if err != nil {
			return fmt.Errorf("folio: open store: %w", err)
		}
		a.DB = db
	}
	if a.Config.AutoMigrate {
		if err := store.Migrate(a.DB, store.Up); err != nil {
			return fmt.Errorf("folio: migrate: %w", err)
		}
	}

	a.Projects = content.NewProjectRepository(a.DB, a.repoOpts...)
	a.Posts = content.NewPostRepository(a.DB, a.repoOpts...)

	a.Cache = cache.New(cache.WithDefaultTTL(a.Config.CacheTTL))
	a.stopSweeper = a.Cache.StartSweeper(a.Config.CacheSweepInterval)

	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMetrics()

	a.Pinger = keepalive.New(a.DB,
		keepalive.WithTables(content.ProjectsTable, content.PostsTable),
		keepalive.WithSchedule(a.Config.PingDelay, a.Config.PingInterval),
		keepalive.WithProduction(a.Config.IsProduction()),
		keepalive.WithLogger(a.Log.WithField("component", "keepalive")),
		keepalive.WithObserver(a.observePing),
	)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.initialized = true
	return nil
}

// Start initializes the App if needed, starts the keep-alive schedule and
// serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(context.Background()); err != nil {
		return err
	}
	a.Pinger.Start()

	a.Log.WithFields(logrus.Fields{
		"addr": a.Config.Addr,
		"env":  a.Config.Environment,
		"db":   a.DB.Driver(),
	}).Info("folio listening")
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and then
// releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	return errors.Join(err, a.Close())
}

// Close stops background work and closes the store if the App opened it.
// Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Pinger != nil {
		a.Pinger.Stop()
	}
	if a.stopSweeper != nil {
		a.stopSweeper()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.DB != nil && a.ownsDB {
		return a.DB.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
