package content

import (
	"context"
	"time"

	"github.com/eringen/folio/store"
)

// PostRepository reads and writes blog posts.
type PostRepository struct {
	t     table[BlogPostRow]
	now   func() time.Time
	newID func() string
}

// NewPostRepository returns a repository over db.
func NewPostRepository(db *store.DB, opts ...Option) *PostRepository {
	o := buildOptions(opts)
	return &PostRepository{
		t:     table[BlogPostRow]{db: db, name: PostsTable},
		now:   o.now,
		newID: o.newID,
	}
}

// All returns every post, including unpublished ones, newest publication first.
func (r *PostRepository) All(ctx context.Context) ([]BlogPost, error) {
	return r.list(ctx, r.t.query())
}

// Published returns posts whose publication time has passed.
func (r *PostRepository) Published(ctx context.Context) ([]BlogPost, error) {
	return r.list(ctx, r.t.query().Lte("published_at", r.now()))
}

// Featured returns published posts marked as featured.
func (r *PostRepository) Featured(ctx context.Context) ([]BlogPost, error) {
	return r.list(ctx, r.t.query().Eq("featured", true).Lte("published_at", r.now()))
}

func (r *PostRepository) list(ctx context.Context, q *store.Query) ([]BlogPost, error) {
	rows, err := r.t.list(ctx, q.OrderBy("published_at", store.Desc))
	if err != nil {
		return nil, err
	}
	return mapAll(rows, PostFromRow), nil
}

// ByID returns the post with the given id.
func (r *PostRepository) ByID(ctx context.Context, id string) (BlogPost, bool, error) {
	return r.one(ctx, r.t.query().Eq("id", id))
}

// BySlug returns the post with the given slug, published or not.
func (r *PostRepository) BySlug(ctx context.Context, slug string) (BlogPost, bool, error) {
	return r.one(ctx, r.t.query().Eq("slug", slug))
}

func (r *PostRepository) one(ctx context.Context, q *store.Query) (BlogPost, bool, error) {
	row, found, err := r.t.one(ctx, q)
	if err != nil || !found {
		return BlogPost{}, found, err
	}
	return PostFromRow(row), true, nil
}

// Create stores a new post. The slug defaults to GenerateSlug(title), the
// read time to CalculateReadTime(content) and the publication time to now.
// Empty and reserved slugs are rejected.
func (r *PostRepository) Create(ctx context.Context, in NewBlogPost) (BlogPost, error) {
	now := r.now()
	post := BlogPost{
		ID:          r.newID(),
		Title:       in.Title,
		Excerpt:     in.Excerpt,
		Content:     in.Content,
		Image:       in.Image,
		Tags:        in.Tags,
		Slug:        in.Slug,
		Featured:    in.Featured,
		PublishedAt: in.PublishedAt,
		ReadTime:    in.ReadTime,
	}
	if post.Slug == "" {
		post.Slug = GenerateSlug(in.Title)
	}
	if err := checkSlug(post.Slug); err != nil {
		return BlogPost{}, err
	}
	if post.ReadTime <= 0 {
		post.ReadTime = CalculateReadTime(in.Content)
	}
	if post.PublishedAt.IsZero() {
		post.PublishedAt = now
	}
	row := PostToRow(post)

	var f store.Fields
	f.Set("id", row.ID)
	f.Set("title", row.Title)
	f.Set("excerpt", row.Excerpt)
	f.Set("content", row.Content)
	f.Set("image", row.Image)
	f.Set("tags", row.Tags)
	f.Set("slug", row.Slug)
	f.Set("featured", row.Featured)
	f.Set("published_at", store.NewTime(row.PublishedAt.Time))
	f.Set("read_time", row.ReadTime)
	f.Set("created_at", store.NewTime(now))
	f.Set("updated_at", store.NewTime(now))

	stored, err := r.t.insert(ctx, f)
	if err != nil {
		return BlogPost{}, err
	}
	return PostFromRow(stored), nil
}

// Update applies the fields present in p and refreshes updated_at. The read
// time is recomputed only when the patch carries new content; the slug is
// never regenerated from a new title.
func (r *PostRepository) Update(ctx context.Context, id string, p PostPatch) (BlogPost, error) {
	if p.Slug != nil {
		if err := checkSlug(*p.Slug); err != nil {
			return BlogPost{}, err
		}
	}
	if p.Content != nil {
		rt := CalculateReadTime(*p.Content)
		p.ReadTime = &rt
	}
	f := p.Fields()
	f.Set("updated_at", store.NewTime(r.now()))
	row, err := r.t.update(ctx, id, f)
	if err != nil {
		return BlogPost{}, err
	}
	return PostFromRow(row), nil
}

// Delete removes the post. Deleting a missing id succeeds.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return r.t.delete(ctx, id)
}
