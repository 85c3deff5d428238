package folio

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/store"
)

// listCacheControl lets shared caches keep list responses for 12 hours and
// serve them stale for another day while revalidating.
const listCacheControl = "public, s-maxage=43200, stale-while-revalidate=86400"

const placeholderImage = "/placeholder.svg"

// errMissing marks a cache fetch that found no row, so the miss is not cached.
var errMissing = errors.New("folio: not found")

func (a *App) registerAPI() {
	e := a.Echo
	api := e.Group("/api")
	admin := a.requireAdmin

	api.GET("/projects", a.handleListProjects)
	api.GET("/projects/featured", a.handleFeaturedProjects)
	api.POST("/projects", a.handleCreateProject, admin)
	api.GET("/projects/:id", a.handleGetProject)
	api.PUT("/projects/:id", a.handleUpdateProject, admin)
	api.DELETE("/projects/:id", a.handleDeleteProject, admin)

	api.GET("/blog", a.handleListPosts)
	api.GET("/blog/published", a.handlePublishedPosts)
	api.GET("/blog/featured", a.handleFeaturedPosts)
	api.POST("/blog", a.handleCreatePost, admin)
	api.GET("/blog/:slug", a.handleGetPost)
	api.PUT("/blog/:slug", a.handleUpdatePostBySlug, admin)
	api.DELETE("/blog/:slug", a.handleDeletePostBySlug, admin)

	api.GET("/admin/blog/:id", a.handleAdminGetPost, admin)
	api.PUT("/admin/blog/:id", a.handleAdminUpdatePost, admin)
	api.DELETE("/admin/blog/:id", a.handleAdminDeletePost, admin)
	api.POST("/admin/images", a.handleImageUpload, admin)

	api.GET("/ping", a.handlePing)
}

func listJSON(c echo.Context, v any) error {
	c.Response().Header().Set("Cache-Control", listCacheControl)
	return c.JSON(http.StatusOK, v)
}

func messageJSON(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, map[string]string{"message": msg})
}

// storeError maps repository failures to HTTP errors. Unknown errors keep
// their cause for the error handler to log.
func storeError(err error, what string) error {
	switch {
	case errors.Is(err, content.ErrNotFound), errors.Is(err, errMissing):
		return echo.NewHTTPError(http.StatusNotFound, what+" not found")
	case errors.Is(err, content.ErrEmptySlug):
		return echo.NewHTTPError(http.StatusBadRequest, "Slug is required. Add a title with letters or digits, or a slug.")
	case errors.Is(err, content.ErrReservedSlug):
		return echo.NewHTTPError(http.StatusBadRequest,
			"Slug is reserved: choose one other than "+strings.Join(content.ReservedSlugs, ", "))
	case store.IsUniqueViolation(err):
		return echo.NewHTTPError(http.StatusConflict, "A "+strings.ToLower(what)+" with this slug already exists")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Failed to access "+strings.ToLower(what)).SetInternal(err)
}

func missingFields(pairs ...string) []string {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	return missing
}

func requireFields(pairs ...string) error {
	if missing := missingFields(pairs...); len(missing) > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
	}
	return nil
}

func bindJSON(c echo.Context, v any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	return nil
}
