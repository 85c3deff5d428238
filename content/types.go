// Package content holds the portfolio's two entity kinds, projects and blog
// posts, together with their persisted row shapes and the repositories that
// read and write them.
package content

import (
	"database/sql"
	"time"

	"github.com/eringen/folio/store"
)

// Table names.
const (
	ProjectsTable = "projects"
	PostsTable    = "blog_posts"
)

// Project is a portfolio entry as seen by API callers.
type Project struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	LongDescription string    `json:"longDescription"`
	Image           string    `json:"image"`
	Technologies    []string  `json:"technologies"`
	DemoURL         *string   `json:"demoUrl,omitempty"`
	GithubURL       *string   `json:"githubUrl,omitempty"`
	Featured        bool      `json:"featured"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// BlogPost is a blog entry as seen by API callers.
type BlogPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Content     string    `json:"content"`
	Image       string    `json:"image"`
	Tags        []string  `json:"tags"`
	Slug        string    `json:"slug"`
	Featured    bool      `json:"featured"`
	PublishedAt time.Time `json:"publishedAt"`
	ReadTime    int       `json:"readTime"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProjectRow is the persisted shape of a Project.
type ProjectRow struct {
	ID              string           `db:"id"`
	Title           string           `db:"title"`
	Description     string           `db:"description"`
	LongDescription string           `db:"long_description"`
	Image           string           `db:"image"`
	Technologies    store.StringList `db:"technologies"`
	DemoURL         sql.NullString   `db:"demo_url"`
	GithubURL       sql.NullString   `db:"github_url"`
	Featured        bool             `db:"featured"`
	CreatedAt       store.Time       `db:"created_at"`
	UpdatedAt       store.Time       `db:"updated_at"`
}

// BlogPostRow is the persisted shape of a BlogPost.
type BlogPostRow struct {
	ID          string           `db:"id"`
	Title       string           `db:"title"`
	Excerpt     string           `db:"excerpt"`
	Content     string           `db:"content"`
	Image       string           `db:"image"`
	Tags        store.StringList `db:"tags"`
	Slug        string           `db:"slug"`
	Featured    bool             `db:"featured"`
	PublishedAt store.Time       `db:"published_at"`
	ReadTime    int              `db:"read_time"`
	CreatedAt   store.Time       `db:"created_at"`
	UpdatedAt   store.Time       `db:"updated_at"`
}

// NewProject carries the caller-supplied fields of a project to create.
type NewProject struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	LongDescription string   `json:"longDescription"`
	Image           string   `json:"image"`
	Technologies    []string `json:"technologies"`
	DemoURL         *string  `json:"demoUrl,omitempty"`
	GithubURL       *string  `json:"githubUrl,omitempty"`
	Featured        bool     `json:"featured"`
}

// NewBlogPost carries the caller-supplied fields of a post to create.
// Slug, ReadTime and PublishedAt are derived when left zero.
type NewBlogPost struct {
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Content     string    `json:"content"`
	Image       string    `json:"image"`
	Tags        []string  `json:"tags"`
	Slug        string    `json:"slug"`
	Featured    bool      `json:"featured"`
	PublishedAt time.Time `json:"publishedAt"`
	ReadTime    int       `json:"readTime"`
}

// ProjectPatch is a partial project update. Nil fields are left untouched.
// An empty DemoURL or GithubURL clears the column.
type ProjectPatch struct {
	Title           *string   `json:"title,omitempty"`
	Description     *string   `json:"description,omitempty"`
	LongDescription *string   `json:"longDescription,omitempty"`
	Image           *string   `json:"image,omitempty"`
	Technologies    *[]string `json:"technologies,omitempty"`
	DemoURL         *string   `json:"demoUrl,omitempty"`
	GithubURL       *string   `json:"githubUrl,omitempty"`
	Featured        *bool     `json:"featured,omitempty"`
}

// PostPatch is a partial blog post update. Nil fields are left untouched.
type PostPatch struct {
	Title       *string    `json:"title,omitempty"`
	Excerpt     *string    `json:"excerpt,omitempty"`
	Content     *string    `json:"content,omitempty"`
	Image       *string    `json:"image,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
	Slug        *string    `json:"slug,omitempty"`
	Featured    *bool      `json:"featured,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	ReadTime    *int       `json:"readTime,omitempty"`
}
