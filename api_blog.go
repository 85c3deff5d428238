package folio

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/cache"
	"github.com/eringen/folio/content"
)

func (a *App) handleListPosts(c echo.Context) error {
	return a.postList(c, cache.BlogAll, a.Posts.All)
}

func (a *App) handlePublishedPosts(c echo.Context) error {
	return a.postList(c, cache.BlogPublished, a.Posts.Published)
}

func (a *App) handleFeaturedPosts(c echo.Context) error {
	return a.postList(c, cache.BlogFeatured, a.Posts.Featured)
}

func (a *App) postList(c echo.Context, key string, fetch func(context.Context) ([]content.BlogPost, error)) error {
	posts, err := cache.FetchShared(c.Request().Context(), a.Cache, key, 0, fetch)
	if err != nil {
		return storeError(err, "Blog posts")
	}
	return listJSON(c, posts)
}

func (a *App) handleCreatePost(c echo.Context) error {
	var in content.NewBlogPost
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	if err := requireFields("title", in.Title, "content", in.Content, "excerpt", in.Excerpt); err != nil {
		return err
	}
	if in.Image == "" {
		in.Image = placeholderImage
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	// Read time is always derived from the submitted content.
	in.ReadTime = 0

	post, err := a.Posts.Create(c.Request().Context(), in)
	if err != nil {
		return storeError(err, "Blog post")
	}
	a.Cache.InvalidatePrefix(cache.BlogPrefix)
	return c.JSON(http.StatusCreated, post)
}

func (a *App) handleGetPost(c echo.Context) error {
	slug := c.Param("slug")
	post, err := a.cachedPost(c.Request().Context(), cache.PostKey(slug), func(ctx context.Context) (content.BlogPost, bool, error) {
		return a.Posts.BySlug(ctx, slug)
	})
	if err != nil {
		return storeError(err, "Blog post")
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleAdminGetPost(c echo.Context) error {
	id := c.Param("id")
	post, err := a.cachedPost(c.Request().Context(), cache.PostIDKey(id), func(ctx context.Context) (content.BlogPost, bool, error) {
		return a.Posts.ByID(ctx, id)
	})
	if err != nil {
		return storeError(err, "Blog post")
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) cachedPost(ctx context.Context, key string, lookup func(context.Context) (content.BlogPost, bool, error)) (content.BlogPost, error) {
	return cache.FetchShared(ctx, a.Cache, key, 0, func(ctx context.Context) (content.BlogPost, error) {
		post, found, err := lookup(ctx)
		if err == nil && !found {
			err = errMissing
		}
		return post, err
	})
}

func (a *App) handleUpdatePostBySlug(c echo.Context) error {
	post, found, err := a.Posts.BySlug(c.Request().Context(), c.Param("slug"))
	if err := postLookupError(found, err); err != nil {
		return err
	}
	return a.updatePost(c, post.ID)
}

func (a *App) handleAdminUpdatePost(c echo.Context) error {
	id := c.Param("id")
	_, found, err := a.Posts.ByID(c.Request().Context(), id)
	if err := postLookupError(found, err); err != nil {
		return err
	}
	return a.updatePost(c, id)
}

func (a *App) updatePost(c echo.Context, id string) error {
	var patch content.PostPatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}
	patch = patch.WithoutBlanks()
	// Read time follows content; a client-supplied value is ignored.
	patch.ReadTime = nil

	post, err := a.Posts.Update(c.Request().Context(), id, patch)
	if err != nil {
		return storeError(err, "Blog post")
	}
	a.Cache.InvalidatePrefix(cache.BlogPrefix)
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleDeletePostBySlug(c echo.Context) error {
	post, found, err := a.Posts.BySlug(c.Request().Context(), c.Param("slug"))
	if err := postLookupError(found, err); err != nil {
		return err
	}
	return a.deletePost(c, post.ID)
}

func (a *App) handleAdminDeletePost(c echo.Context) error {
	id := c.Param("id")
	_, found, err := a.Posts.ByID(c.Request().Context(), id)
	if err := postLookupError(found, err); err != nil {
		return err
	}
	return a.deletePost(c, id)
}

func (a *App) deletePost(c echo.Context, id string) error {
	if err := a.Posts.Delete(c.Request().Context(), id); err != nil {
		return storeError(err, "Blog post")
	}
	a.Cache.InvalidatePrefix(cache.BlogPrefix)
	return messageJSON(c, "Blog post deleted successfully")
}

func postLookupError(found bool, err error) error {
	if err != nil {
		return storeError(err, "Blog post")
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "Blog post not found")
	}
	return nil
}
