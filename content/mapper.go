package content

import (
	"database/sql"
	"strings"

	"github.com/eringen/folio/store"
)

// ProjectFromRow converts a stored row into its API shape.
func ProjectFromRow(r ProjectRow) Project {
	return Project{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		LongDescription: r.LongDescription,
		Image:           r.Image,
		Technologies:    listOrEmpty(r.Technologies),
		DemoURL:         fromNull(r.DemoURL),
		GithubURL:       fromNull(r.GithubURL),
		Featured:        r.Featured,
		CreatedAt:       r.CreatedAt.Time,
		UpdatedAt:       r.UpdatedAt.Time,
	}
}

// ProjectToRow is the inverse of ProjectFromRow.
func ProjectToRow(p Project) ProjectRow {
	return ProjectRow{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		LongDescription: p.LongDescription,
		Image:           p.Image,
		Technologies:    store.StringList(listOrEmpty(p.Technologies)),
		DemoURL:         toNull(p.DemoURL),
		GithubURL:       toNull(p.GithubURL),
		Featured:        p.Featured,
		CreatedAt:       store.Time{Time: p.CreatedAt},
		UpdatedAt:       store.Time{Time: p.UpdatedAt},
	}
}

// PostFromRow converts a stored row into its API shape.
func PostFromRow(r BlogPostRow) BlogPost {
	return BlogPost{
		ID:          r.ID,
		Title:       r.Title,
		Excerpt:     r.Excerpt,
		Content:     r.Content,
		Image:       r.Image,
		Tags:        listOrEmpty(r.Tags),
		Slug:        r.Slug,
		Featured:    r.Featured,
		PublishedAt: r.PublishedAt.Time,
		ReadTime:    r.ReadTime,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

// PostToRow is the inverse of PostFromRow.
func PostToRow(p BlogPost) BlogPostRow {
	return BlogPostRow{
		ID:          p.ID,
		Title:       p.Title,
		Excerpt:     p.Excerpt,
		Content:     p.Content,
		Image:       p.Image,
		Tags:        store.StringList(listOrEmpty(p.Tags)),
		Slug:        p.Slug,
		Featured:    p.Featured,
		PublishedAt: store.Time{Time: p.PublishedAt},
		ReadTime:    p.ReadTime,
		CreatedAt:   store.Time{Time: p.CreatedAt},
		UpdatedAt:   store.Time{Time: p.UpdatedAt},
	}
}

// Fields returns the column assignments for the fields present in the patch.
func (p ProjectPatch) Fields() store.Fields {
	var f store.Fields
	setString(&f, "title", p.Title)
	setString(&f, "description", p.Description)
	setString(&f, "long_description", p.LongDescription)
	setString(&f, "image", p.Image)
	if p.Technologies != nil {
		f.Set("technologies", store.StringList(listOrEmpty(*p.Technologies)))
	}
	if p.DemoURL != nil {
		f.Set("demo_url", nullIfEmpty(*p.DemoURL))
	}
	if p.GithubURL != nil {
		f.Set("github_url", nullIfEmpty(*p.GithubURL))
	}
	if p.Featured != nil {
		f.Set("featured", *p.Featured)
	}
	return f
}

// WithoutBlanks drops text fields that are empty or whitespace, so a form
// submission with blank inputs leaves those columns untouched. The URL fields
// are kept: an empty URL clears the column.
func (p ProjectPatch) WithoutBlanks() ProjectPatch {
	p.Title = nonBlank(p.Title)
	p.Description = nonBlank(p.Description)
	p.LongDescription = nonBlank(p.LongDescription)
	p.Image = nonBlank(p.Image)
	return p
}

// Empty reports whether the patch changes nothing.
func (p ProjectPatch) Empty() bool {
	return len(p.Fields()) == 0
}

// Fields returns the column assignments for the fields present in the patch.
func (p PostPatch) Fields() store.Fields {
	var f store.Fields
	setString(&f, "title", p.Title)
	setString(&f, "excerpt", p.Excerpt)
	setString(&f, "content", p.Content)
	setString(&f, "image", p.Image)
	if p.Tags != nil {
		f.Set("tags", store.StringList(listOrEmpty(*p.Tags)))
	}
	setString(&f, "slug", p.Slug)
	if p.Featured != nil {
		f.Set("featured", *p.Featured)
	}
	if p.PublishedAt != nil {
		f.Set("published_at", store.NewTime(*p.PublishedAt))
	}
	if p.ReadTime != nil {
		f.Set("read_time", *p.ReadTime)
	}
	return f
}

// WithoutBlanks drops string fields that are empty or whitespace.
func (p PostPatch) WithoutBlanks() PostPatch {
	p.Title = nonBlank(p.Title)
	p.Excerpt = nonBlank(p.Excerpt)
	p.Content = nonBlank(p.Content)
	p.Image = nonBlank(p.Image)
	p.Slug = nonBlank(p.Slug)
	return p
}

// Empty reports whether the patch changes nothing.
func (p PostPatch) Empty() bool {
	return len(p.Fields()) == 0
}

func setString(f *store.Fields, column string, v *string) {
	if v != nil {
		f.Set(column, *v)
	}
}

func listOrEmpty(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
