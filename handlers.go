package folio

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/cache"
	"github.com/eringen/folio/content"
)

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/metrics", a.metricsHandler())

	if a.Views.Home != nil {
		e.GET("/", a.handleHome)
	}
	if a.Views.Projects != nil {
		e.GET("/projects/", a.handleProjectsPage)
	}
	if a.Views.Blog != nil {
		e.GET("/blog/", a.handleBlogPage)
	}
	if a.Views.Post != nil {
		e.GET("/blog/:slug/", a.handlePostPage)
	}

	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/admin/session/", handleAdminSession)

	a.registerAPI()
}

func (a *App) publishedPosts(c echo.Context) []content.BlogPost {
	posts, err := cache.FetchShared(c.Request().Context(), a.Cache, cache.BlogPublished, 0, a.Posts.Published)
	if err != nil {
		a.Log.WithError(err).Warn("load published posts")
		return []content.BlogPost{}
	}
	return posts
}

func (a *App) allProjects(c echo.Context) []content.Project {
	projects, err := cache.FetchShared(c.Request().Context(), a.Cache, cache.ProjectsAll, 0, a.Projects.All)
	if err != nil {
		a.Log.WithError(err).Warn("load projects")
		return []content.Project{}
	}
	return projects
}

func (a *App) handleHome(c echo.Context) error {
	featured, err := cache.FetchShared(c.Request().Context(), a.Cache, cache.ProjectsFeatured, 0, a.Projects.Featured)
	if err != nil {
		a.Log.WithError(err).Warn("load featured projects")
		featured = []content.Project{}
	}
	posts, err := cache.FetchShared(c.Request().Context(), a.Cache, cache.BlogFeatured, 0, a.Posts.Featured)
	if err != nil {
		a.Log.WithError(err).Warn("load featured posts")
		posts = []content.BlogPost{}
	}
	return Render(c, a.Views.Home(featured, posts, a.Config.URL))
}

func (a *App) handleProjectsPage(c echo.Context) error {
	return Render(c, a.Views.Projects(a.allProjects(c), a.Config.URL))
}

func (a *App) handleBlogPage(c echo.Context) error {
	return Render(c, a.Views.Blog(a.publishedPosts(c), a.Config.URL))
}

func (a *App) handlePostPage(c echo.Context) error {
	slug := c.Param("slug")
	posts := a.publishedPosts(c)
	for _, p := range posts {
		if p.Slug == slug {
			return Render(c, a.Views.Post(p, FilterRelatedPosts(p, posts), a.Config.URL))
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "Blog post not found")
}

func (a *App) handleSitemap(c echo.Context) error {
	return a.renderSitemap(c, a.allProjects(c), a.publishedPosts(c))
}

func (a *App) handleFeed(c echo.Context) error {
	return a.renderRSS(c, a.publishedPosts(c))
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func wantsJSON(c echo.Context) bool {
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		return true
	}
	return !strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}

	if code >= 500 {
		a.Log.WithError(err).WithField("uri", c.Request().RequestURI).Error("server error")
	}

	if !wantsJSON(c) {
		switch {
		case code == http.StatusNotFound && a.Views.NotFound != nil:
			_ = RenderStatus(c, code, a.Views.NotFound())
			return
		case code >= 500 && a.Views.ServerError != nil:
			_ = RenderStatus(c, code, a.Views.ServerError())
			return
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"error": msg})
}
