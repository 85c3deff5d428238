package folio

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/cache"
	"github.com/eringen/folio/content"
)

func (a *App) handleListProjects(c echo.Context) error {
	projects, err := cache.FetchShared(c.Request().Context(), a.Cache, cache.ProjectsAll, 0, a.Projects.All)
	if err != nil {
		return storeError(err, "Projects")
	}
	return listJSON(c, projects)
}

func (a *App) handleFeaturedProjects(c echo.Context) error {
	projects, err := cache.FetchShared(c.Request().Context(), a.Cache, cache.ProjectsFeatured, 0, a.Projects.Featured)
	if err != nil {
		return storeError(err, "Projects")
	}
	return listJSON(c, projects)
}

func (a *App) handleGetProject(c echo.Context) error {
	id := c.Param("id")
	p, err := cache.FetchShared(c.Request().Context(), a.Cache, cache.ProjectKey(id), 0,
		func(ctx context.Context) (content.Project, error) {
			p, found, err := a.Projects.ByID(ctx, id)
			if err == nil && !found {
				err = errMissing
			}
			return p, err
		})
	if err != nil {
		return storeError(err, "Project")
	}
	return c.JSON(http.StatusOK, p)
}

func (a *App) handleCreateProject(c echo.Context) error {
	var in content.NewProject
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	if err := requireFields("title", in.Title, "description", in.Description, "longDescription", in.LongDescription); err != nil {
		return err
	}
	if in.Image == "" {
		in.Image = placeholderImage
	}
	if in.Technologies == nil {
		in.Technologies = []string{}
	}

	p, err := a.Projects.Create(c.Request().Context(), in)
	if err != nil {
		return storeError(err, "Project")
	}
	a.Cache.InvalidatePrefix(cache.ProjectsPrefix)
	return c.JSON(http.StatusCreated, p)
}

func (a *App) handleUpdateProject(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if err := a.projectExists(ctx, id); err != nil {
		return err
	}

	var patch content.ProjectPatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}
	p, err := a.Projects.Update(ctx, id, patch.WithoutBlanks())
	if err != nil {
		return storeError(err, "Project")
	}
	a.Cache.InvalidatePrefix(cache.ProjectsPrefix)
	return c.JSON(http.StatusOK, p)
}

func (a *App) handleDeleteProject(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if err := a.projectExists(ctx, id); err != nil {
		return err
	}
	if err := a.Projects.Delete(ctx, id); err != nil {
		return storeError(err, "Project")
	}
	a.Cache.InvalidatePrefix(cache.ProjectsPrefix)
	return messageJSON(c, "Project deleted successfully")
}

func (a *App) projectExists(ctx context.Context, id string) error {
	_, found, err := a.Projects.ByID(ctx, id)
	if err != nil {
		return storeError(err, "Project")
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "Project not found")
	}
	return nil
}
