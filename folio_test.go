package folio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/cache"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/markdown"
	"github.com/eringen/folio/store"
)

const (
	testToken    = "test-admin-token"
	testPassword = "hunter2"
)

type testApp struct {
	*App
	t *testing.T
}

func setupTestApp(t *testing.T, views ViewFuncs, mutate ...func(*SiteConfig)) *testApp {
	t.Helper()
	db, err := store.Open(context.Background(), store.Config{
		Driver: store.SQLite,
		DSN:    filepath.Join(t.TempDir(), "folio.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := SiteConfig{
		Name:          "Test Folio",
		URL:           "https://folio.example",
		Description:   "Projects and writing",
		Author:        "Sam Example",
		AutoMigrate:   true,
		AdminPassword: testPassword,
		AdminToken:    testToken,
		SessionSecret: "0123456789abcdef0123456789abcdef",
	}
	for _, m := range mutate {
		m(&cfg)
	}
	logger, _ := test.NewNullLogger()
	app := New(cfg, views, WithDB(db), WithLogger(logger), WithStaticDir(t.TempDir()))
	require.NoError(t, app.Init(context.Background()))
	t.Cleanup(func() { app.Close() })
	return &testApp{App: app, t: t}
}

type reqOpt func(*http.Request)

func withToken(r *http.Request) { r.Header.Set("Authorization", "Bearer "+testToken) }

func withHeader(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func withCookies(cookies []*http.Cookie) reqOpt {
	return func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	}
}

func (ta *testApp) do(method, target string, body any, opts ...reqOpt) *httptest.ResponseRecorder {
	ta.t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(ta.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	ta.Echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func validProject() map[string]any {
	return map[string]any{
		"title":           "Folio",
		"description":     "A portfolio server",
		"longDescription": "Projects, posts and a keep-alive pinger.",
		"technologies":    []string{"Go", "Echo"},
		"githubUrl":       "https://github.com/example/folio",
	}
}

func validPost(title string) map[string]any {
	return map[string]any{
		"title":   title,
		"excerpt": "A short summary",
		"content": strings.TrimSpace(strings.Repeat("word ", 250)),
		"tags":    []string{"go", "web"},
	}
}

func TestInitRequiresSecrets(t *testing.T) {
	logger, _ := test.NewNullLogger()
	app := New(SiteConfig{AdminPassword: "x"}, ViewFuncs{}, WithLogger(logger))
	require.Error(t, app.Init(context.Background()))

	app = New(SiteConfig{SessionSecret: "s"}, ViewFuncs{}, WithLogger(logger))
	require.Error(t, app.Init(context.Background()))
}

func TestCreateProject(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})

	rec := ta.do(http.MethodPost, "/api/projects", validProject(), withToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	p := decode[content.Project](t, rec)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Folio", p.Title)
	assert.Equal(t, "/placeholder.svg", p.Image)
	assert.Equal(t, []string{"Go", "Echo"}, p.Technologies)
	assert.False(t, p.Featured)
	assert.Nil(t, p.DemoURL)
	require.NotNil(t, p.GithubURL)
	assert.Equal(t, "https://github.com/example/folio", *p.GithubURL)

	raw := decode[map[string]any](t, rec)
	assert.Contains(t, raw, "longDescription")
	assert.NotContains(t, raw, "demoUrl")
}

func TestCreateProjectValidation(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})

	body := validProject()
	delete(body, "longDescription")
	body["title"] = ""
	rec := ta.do(http.MethodPost, "/api/projects", body, withToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields: title, longDescription", errorMessage(t, rec))

	rec = ta.do(http.MethodPost, "/api/projects", "{not json", withToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWritesRequireAdmin(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})

	// Without a bearer token, unsafe methods hit the CSRF check first.
	rec := ta.do(http.MethodPost, "/api/projects", validProject())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ta.do(http.MethodDelete, "/api/blog/anything", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ta.do(http.MethodPost, "/api/projects", validProject(), withHeader("Authorization", "Bearer wrong"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", errorMessage(t, rec))

	token, cookies := csrfFrom(t, ta)
	rec = ta.do(http.MethodPost, "/api/projects", validProject(), withCookies(cookies), withHeader("X-CSRF-Token", token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ta.do(http.MethodGet, "/api/admin/blog/anything", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProjectReadUpdateDelete(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})
	created := decode[content.Project](t, ta.do(http.MethodPost, "/api/projects", validProject(), withToken))

	rec := ta.do(http.MethodGet, "/api/projects/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[content.Project](t, rec).ID)

	rec = ta.do(http.MethodPut, "/api/projects/"+created.ID, map[string]any{
		"title":       "",
		"description": "Updated description",
		"featured":    true,
		"githubUrl":   "",
	}, withToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[content.Project](t, rec)
	assert.Equal(t, "Folio", updated.Title, "blank title is ignored")
	assert.Equal(t, "Updated description", updated.Description)
	assert.True(t, updated.Featured)
	assert.Nil(t, updated.GithubURL)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	rec = ta.do(http.MethodGet, "/api/projects/featured", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]content.Project](t, rec), 1)

	rec = ta.do(http.MethodDelete, "/api/projects/"+created.ID, nil, withToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Project deleted successfully", decode[map[string]string](t, rec)["message"])

	rec = ta.do(http.MethodGet, "/api/projects/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Project not found", errorMessage(t, rec))
}

func TestProjectMissingIDs(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})

	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodGet, "/api/projects/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodPut, "/api/projects/nope", map[string]any{"title": "x"}, withToken).Code)
	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodDelete, "/api/projects/nope", nil, withToken).Code)
}

func TestProjectListCachingAndInvalidation(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})

	rec := ta.do(http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, s-maxage=43200, stale-while-revalidate=86400", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, "[]", rec.Body.String())
	assert.True(t, ta.Cache.Has(cache.ProjectsAll))

	ta.Cache.Set(cache.BlogAll, []content.BlogPost{}, 0)
	ta.do(http.MethodPost, "/api/projects", validProject(), withToken)
	assert.False(t, ta.Cache.Has(cache.ProjectsAll), "create drops project keys")
	assert.True(t, ta.Cache.Has(cache.BlogAll), "create keeps blog keys")

	rec = ta.do(http.MethodGet, "/api/projects", nil)
	assert.Len(t, decode[[]content.Project](t, rec), 1)
}

func TestCreatePost(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})

	rec := ta.do(http.MethodPost, "/api/blog", validPost("Hello, World! 2024"), withToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[content.BlogPost](t, rec)
	assert.Equal(t, "hello-world-2024", post.Slug)
	assert.Equal(t, 2, post.ReadTime)
	assert.Equal(t, "/placeholder.svg", post.Image)
	assert.WithinDuration(t, time.Now(), post.PublishedAt, time.Minute)

	rec = ta.do(http.MethodGet, "/api/blog/hello-world-2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, post.ID, decode[content.BlogPost](t, rec).ID)
}

func TestCreatePostErrors(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})

	body := validPost("No Excerpt")
	delete(body, "excerpt")
	rec := ta.do(http.MethodPost, "/api/blog", body, withToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields: excerpt", errorMessage(t, rec))

	rec = ta.do(http.MethodPost, "/api/blog", validPost("!!!"), withToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusCreated, ta.do(http.MethodPost, "/api/blog", validPost("Same Title"), withToken).Code)
	rec = ta.do(http.MethodPost, "/api/blog", validPost("Same title?"), withToken)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReservedSlugKeepsListsWorking(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})

	rec := ta.do(http.MethodPost, "/api/blog", validPost("All"), withToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "reserved")

	require.Equal(t, http.StatusCreated, ta.do(http.MethodPost, "/api/blog", validPost("Real Post"), withToken).Code)
	rec = ta.do(http.MethodPut, "/api/blog/real-post", map[string]any{"slug": "published"}, withToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A lookup of a reserved name must not poison the list entry.
	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodGet, "/api/blog/all", nil).Code)
	rec = ta.do(http.MethodGet, "/api/blog", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]content.BlogPost](t, rec), 1)
	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodGet, "/api/blog/all", nil).Code)
}

func TestPublishedAndFeaturedPosts(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})

	past := validPost("Past Post")
	past["featured"] = true
	past["publishedAt"] = time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	future := validPost("Future Post")
	future["featured"] = true
	future["publishedAt"] = time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	for _, b := range []map[string]any{past, future, validPost("Plain Post")} {
		require.Equal(t, http.StatusCreated, ta.do(http.MethodPost, "/api/blog", b, withToken).Code)
	}

	all := decode[[]content.BlogPost](t, ta.do(http.MethodGet, "/api/blog", nil))
	require.Len(t, all, 3)
	assert.Equal(t, "Future Post", all[0].Title)

	published := decode[[]content.BlogPost](t, ta.do(http.MethodGet, "/api/blog/published", nil))
	assert.Len(t, published, 2)
	for _, p := range published {
		assert.NotEqual(t, "Future Post", p.Title)
	}

	featured := decode[[]content.BlogPost](t, ta.do(http.MethodGet, "/api/blog/featured", nil))
	require.Len(t, featured, 1)
	assert.Equal(t, "Past Post", featured[0].Title)
}

func TestUpdatePostBySlug(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})
	created := decode[content.BlogPost](t, ta.do(http.MethodPost, "/api/blog", validPost("Original Title"), withToken))

	rec := ta.do(http.MethodPut, "/api/blog/original-title", map[string]any{"title": "Renamed"}, withToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	renamed := decode[content.BlogPost](t, rec)
	assert.Equal(t, "Renamed", renamed.Title)
	assert.Equal(t, "original-title", renamed.Slug)
	assert.Equal(t, created.ReadTime, renamed.ReadTime)

	rec = ta.do(http.MethodPut, "/api/blog/original-title", map[string]any{
		"content":  strings.Repeat("word ", 601),
		"excerpt":  "",
		"readTime": 99,
	}, withToken)
	require.Equal(t, http.StatusOK, rec.Code)
	rewritten := decode[content.BlogPost](t, rec)
	assert.Equal(t, 4, rewritten.ReadTime)
	assert.Equal(t, "A short summary", rewritten.Excerpt)

	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodPut, "/api/blog/missing", map[string]any{"title": "x"}, withToken).Code)
}

func TestUpdatePostSlugCollision(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})
	ta.do(http.MethodPost, "/api/blog", validPost("First"), withToken)
	ta.do(http.MethodPost, "/api/blog", validPost("Second"), withToken)

	rec := ta.do(http.MethodPut, "/api/blog/second", map[string]any{"slug": "first"}, withToken)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPostCacheInvalidatedOnUpdate(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})
	ta.do(http.MethodPost, "/api/blog", validPost("Cached Post"), withToken)

	require.Equal(t, http.StatusOK, ta.do(http.MethodGet, "/api/blog/cached-post", nil).Code)
	require.True(t, ta.Cache.Has(cache.PostKey("cached-post")))

	ta.do(http.MethodPut, "/api/blog/cached-post", map[string]any{"title": "Fresh Title"}, withToken)
	assert.False(t, ta.Cache.Has(cache.PostKey("cached-post")))

	got := decode[content.BlogPost](t, ta.do(http.MethodGet, "/api/blog/cached-post", nil))
	assert.Equal(t, "Fresh Title", got.Title)
}

func TestAdminPostByID(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})
	created := decode[content.BlogPost](t, ta.do(http.MethodPost, "/api/blog", validPost("By Id"), withToken))

	rec := ta.do(http.MethodGet, "/api/admin/blog/"+created.ID, nil, withToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "by-id", decode[content.BlogPost](t, rec).Slug)

	rec = ta.do(http.MethodPut, "/api/admin/blog/"+created.ID, map[string]any{"tags": []string{}}, withToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[content.BlogPost](t, rec).Tags)

	rec = ta.do(http.MethodDelete, "/api/admin/blog/"+created.ID, nil, withToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Blog post deleted successfully", decode[map[string]string](t, rec)["message"])

	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodGet, "/api/admin/blog/"+created.ID, nil, withToken).Code)
	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodDelete, "/api/admin/blog/"+created.ID, nil, withToken).Code)
	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodGet, "/api/blog/by-id", nil).Code)
}

func TestDeletePostBySlug(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})
	ta.do(http.MethodPost, "/api/blog", validPost("Doomed"), withToken)

	require.Equal(t, http.StatusOK, ta.do(http.MethodDelete, "/api/blog/doomed", nil, withToken).Code)
	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodDelete, "/api/blog/doomed", nil, withToken).Code)
}

func TestPingEndpoint(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})

	rec := ta.do(http.MethodGet, "/api/ping", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[pingResponse](t, rec)
	assert.Equal(t, "ok", resp.ProjectsStatus)
	assert.Equal(t, "ok", resp.PostsStatus)
	assert.Len(t, resp.Tables, 2)
}

func TestPingEndpointReportsFailures(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})
	require.NoError(t, ta.DB.Close())

	rec := ta.do(http.MethodGet, "/api/ping", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[pingResponse](t, rec)
	assert.Equal(t, "error", resp.ProjectsStatus)
	assert.Equal(t, "error", resp.PostsStatus)
}

func TestStoreFailureIsServerError(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})
	require.NoError(t, ta.DB.Close())

	rec := ta.do(http.MethodGet, "/api/projects", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to access projects", errorMessage(t, rec))
}

func TestUnknownAPIRouteIsJSON404(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})
	rec := ta.do(http.MethodGet, "/api/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, errorMessage(t, rec))
}

func pngUpload(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, G: 30, B: 90, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (ta *testApp) upload(filename string, data []byte) *httptest.ResponseRecorder {
	ta.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(ta.t, err)
	_, err = part.Write(data)
	require.NoError(ta.t, err)
	require.NoError(ta.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	withToken(req)
	rec := httptest.NewRecorder()
	ta.Echo.ServeHTTP(rec, req)
	return rec
}

func TestImageUploadWritesResizedJPEG(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})

	rec := ta.upload("My Screenshot.png", pngUpload(t, 1600, 400))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	img := decode[UploadedImage](t, rec)
	assert.Equal(t, 800, img.Width)
	assert.Equal(t, 200, img.Height)
	assert.True(t, strings.HasPrefix(img.URL, "/public/uploads/my-screenshot-"), img.URL)
	assert.True(t, strings.HasSuffix(img.Filename, ".jpg"))

	data, err := os.ReadFile(filepath.Join(ta.staticDir, uploadsSubdir, img.Filename))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", http.DetectContentType(data))
}

func TestImageUploadInline(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{}, func(c *SiteConfig) { c.InlineImages = true })

	rec := ta.upload("small.png", pngUpload(t, 100, 50))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	img := decode[UploadedImage](t, rec)
	assert.True(t, strings.HasPrefix(img.URL, "data:image/jpeg;base64,"))
	assert.Equal(t, 100, img.Width)
	assert.Empty(t, img.Filename)
}

func TestImageUploadRejects(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{}, func(c *SiteConfig) { c.MaxUploadBytes = 1 << 10 })

	rec := ta.upload("notes.txt", []byte("plain text, not an image"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ta.upload("big.png", bytes.Repeat([]byte{0x89}, 4<<10))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "too large")
}

func TestFeedAndSitemap(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})
	ta.do(http.MethodPost, "/api/projects", validProject(), withToken)
	ta.do(http.MethodPost, "/api/blog", validPost("Feed Post"), withToken)
	future := validPost("Not Yet")
	future["publishedAt"] = time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	ta.do(http.MethodPost, "/api/blog", future, withToken)

	rec := ta.do(http.MethodGet, "/feed.xml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/rss+xml")
	assert.Contains(t, rec.Body.String(), "https://folio.example/blog/feed-post/")
	assert.NotContains(t, rec.Body.String(), "not-yet")
	assert.Contains(t, rec.Body.String(), `xmlns:content="http://purl.org/rss/1.0/modules/content/"`)
	assert.Contains(t, rec.Body.String(), "<content:encoded><![CDATA[<p>word word")

	rec = ta.do(http.MethodGet, "/sitemap.xml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<loc>https://folio.example/</loc>")
	assert.Contains(t, body, "<loc>https://folio.example/projects/</loc>")
	assert.Contains(t, body, "<loc>https://folio.example/blog/feed-post/</loc>")
}

func TestMetricsEndpoint(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})
	ta.do(http.MethodGet, "/api/projects", nil)
	ta.do(http.MethodGet, "/api/projects", nil)
	ta.do(http.MethodGet, "/api/ping", nil)

	rec := ta.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "folio_cache_hits_total")
	assert.Contains(t, body, `folio_keepalive_pings_total{status="ok",table="projects"} 1`)
	assert.Contains(t, body, "folio_requests_total")
}

func csrfFrom(t *testing.T, ta *testApp) (string, []*http.Cookie) {
	t.Helper()
	rec := ta.do(http.MethodGet, "/admin/session/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Authenticated bool   `json:"authenticated"`
		CsrfToken     string `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.CsrfToken)
	assert.False(t, resp.Authenticated)
	return resp.CsrfToken, rec.Result().Cookies()
}

func (ta *testApp) login(password, token string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	form := url.Values{"password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRF-Token", token)
	withCookies(cookies)(req)
	rec := httptest.NewRecorder()
	ta.Echo.ServeHTTP(rec, req)
	return rec
}

func TestSessionLoginAuthorizesWrites(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})
	token, cookies := csrfFrom(t, ta)

	rec := ta.login(testPassword, token, cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies = append(cookies, rec.Result().Cookies()...)

	rec = ta.do(http.MethodPost, "/api/projects", validProject(), withCookies(cookies))
	assert.Equal(t, http.StatusForbidden, rec.Code, "session writes need the CSRF token")

	rec = ta.do(http.MethodPost, "/api/projects", validProject(), withCookies(cookies), withHeader("X-CSRF-Token", token))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ta.do(http.MethodPost, "/admin/logout/", nil, withCookies(cookies), withHeader("X-CSRF-Token", token))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})
	token, cookies := csrfFrom(t, ta)

	for i := 0; i < 5; i++ {
		rec := ta.login("wrong", token, cookies)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i)
	}
	rec := ta.login(testPassword, token, cookies)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func textView(format string, args ...any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	})
}

func testViews() ViewFuncs {
	return ViewFuncs{
		Home: func(featured []content.Project, posts []content.BlogPost, _ string) templ.Component {
			return textView("home projects=%d posts=%d", len(featured), len(posts))
		},
		Projects: func(projects []content.Project, _ string) templ.Component {
			return textView("projects=%d", len(projects))
		},
		Blog: func(posts []content.BlogPost, _ string) templ.Component {
			return textView("blog=%d", len(posts))
		},
		Post: func(post content.BlogPost, related []content.BlogPost, _ string) templ.Component {
			return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
				if err := textView("post=%s related=%d\n", post.Slug, len(related)).Render(ctx, w); err != nil {
					return err
				}
				return markdown.Content(post.Content).Render(ctx, w)
			})
		},
		NotFound:    func() templ.Component { return textView("not found page") },
		ServerError: func() templ.Component { return textView("server error page") },
	}
}

func TestPages(t *testing.T) {
	ta := setupTestApp(t, testViews())
	featured := validProject()
	featured["featured"] = true
	ta.do(http.MethodPost, "/api/projects", featured, withToken)
	first := validPost("First Post")
	first["content"] = "## Intro\n\nSome **bold** words.\n"
	second := validPost("Second Post")
	second["content"] = "<p>Written in the <em>editor</em> with **stars**</p>"
	ta.do(http.MethodPost, "/api/blog", first, withToken)
	ta.do(http.MethodPost, "/api/blog", second, withToken)

	html := withHeader("Accept", "text/html")

	rec := ta.do(http.MethodGet, "/", nil, html)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "home projects=1 posts=0", rec.Body.String())

	assert.Equal(t, "projects=1", ta.do(http.MethodGet, "/projects/", nil, html).Body.String())
	assert.Equal(t, "blog=2", ta.do(http.MethodGet, "/blog/", nil, html).Body.String())

	body := ta.do(http.MethodGet, "/blog/first-post/", nil, html).Body.String()
	assert.True(t, strings.HasPrefix(body, "post=first-post related=1\n"), body)
	assert.Contains(t, body, `<h2 id="intro">Intro</h2>`)
	assert.Contains(t, body, "<strong>bold</strong>")

	body = ta.do(http.MethodGet, "/blog/second-post/", nil, html).Body.String()
	assert.Contains(t, body, "<p>Written in the <em>editor</em> with **stars**</p>")

	rec = ta.do(http.MethodGet, "/blog/missing/", nil, html)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found page", rec.Body.String())
}

func TestPagesDegradeOnStoreFailure(t *testing.T) {
	ta := setupTestApp(t, testViews())
	require.NoError(t, ta.DB.Close())

	rec := ta.do(http.MethodGet, "/blog/", nil, withHeader("Accept", "text/html"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "blog=0", rec.Body.String())
}

func TestPagesNotRegisteredWithoutViews(t *testing.T) {
	ta := setupTestApp(t, ViewFuncs{})
	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodGet, "/", nil).Code)
}
