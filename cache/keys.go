package cache

// Key prefixes, one per entity kind. Invalidating a prefix drops every list
// and single-entity entry of that kind.
const (
	ProjectsPrefix = "projects:"
	BlogPrefix     = "blog:"
)

// List keys.
const (
	ProjectsAll      = ProjectsPrefix + "all"
	ProjectsFeatured = ProjectsPrefix + "featured"
	BlogAll          = BlogPrefix + "all"
	BlogPublished    = BlogPrefix + "published"
	BlogFeatured     = BlogPrefix + "featured"
)

// ProjectKey is the key of a single project.
func ProjectKey(id string) string { return ProjectsPrefix + id }

// PostKey is the key of a single post looked up by slug.
func PostKey(slug string) string { return BlogPrefix + slug }

// PostIDKey is the key of a single post looked up by id.
func PostIDKey(id string) string { return BlogPrefix + "id:" + id }
