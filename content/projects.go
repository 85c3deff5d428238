package content

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eringen/folio/store"
)

// ProjectRepository reads and writes projects.
type ProjectRepository struct {
	t     table[ProjectRow]
	now   func() time.Time
	newID func() string
}

// NewProjectRepository returns a repository over db.
func NewProjectRepository(db *store.DB, opts ...Option) *ProjectRepository {
	o := buildOptions(opts)
	return &ProjectRepository{
		t:     table[ProjectRow]{db: db, name: ProjectsTable},
		now:   o.now,
		newID: o.newID,
	}
}

// All returns every project, newest first.
func (r *ProjectRepository) All(ctx context.Context) ([]Project, error) {
	rows, err := r.t.list(ctx, r.t.query().OrderBy("created_at", store.Desc))
	if err != nil {
		return nil, err
	}
	return mapAll(rows, ProjectFromRow), nil
}

// Featured returns featured projects, newest first.
func (r *ProjectRepository) Featured(ctx context.Context) ([]Project, error) {
	rows, err := r.t.list(ctx, r.t.query().Eq("featured", true).OrderBy("created_at", store.Desc))
	if err != nil {
		return nil, err
	}
	return mapAll(rows, ProjectFromRow), nil
}

// ByID returns the project with the given id. A missing project is reported
// through found, not as an error.
func (r *ProjectRepository) ByID(ctx context.Context, id string) (Project, bool, error) {
	row, found, err := r.t.one(ctx, r.t.query().Eq("id", id))
	if err != nil || !found {
		return Project{}, found, err
	}
	return ProjectFromRow(row), true, nil
}

// Create stores a new project with a generated id and current timestamps.
func (r *ProjectRepository) Create(ctx context.Context, in NewProject) (Project, error) {
	now := store.NewTime(r.now())
	row := ProjectToRow(Project{
		ID:              r.newID(),
		Title:           in.Title,
		Description:     in.Description,
		LongDescription: in.LongDescription,
		Image:           in.Image,
		Technologies:    in.Technologies,
		DemoURL:         in.DemoURL,
		GithubURL:       in.GithubURL,
		Featured:        in.Featured,
	})

	var f store.Fields
	f.Set("id", row.ID)
	f.Set("title", row.Title)
	f.Set("description", row.Description)
	f.Set("long_description", row.LongDescription)
	f.Set("image", row.Image)
	f.Set("technologies", row.Technologies)
	f.Set("demo_url", row.DemoURL)
	f.Set("github_url", row.GithubURL)
	f.Set("featured", row.Featured)
	f.Set("created_at", now)
	f.Set("updated_at", now)

	stored, err := r.t.insert(ctx, f)
	if err != nil {
		return Project{}, err
	}
	return ProjectFromRow(stored), nil
}

// Update applies the fields present in p and refreshes updated_at.
// It returns ErrNotFound when no project has the id.
func (r *ProjectRepository) Update(ctx context.Context, id string, p ProjectPatch) (Project, error) {
	f := p.Fields()
	f.Set("updated_at", store.NewTime(r.now()))
	row, err := r.t.update(ctx, id, f)
	if err != nil {
		return Project{}, err
	}
	return ProjectFromRow(row), nil
}

// Delete removes the project. Deleting a missing id succeeds.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	return r.t.delete(ctx, id)
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
