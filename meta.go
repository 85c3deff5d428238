package folio

import "github.com/eringen/folio/content"

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}

// HomeMeta describes the landing page.
func HomeMeta(cfg SiteConfig) PageMeta {
	return PageMeta{
		Title:       cfg.Name,
		Description: cfg.Description,
		URL:         BuildURL(cfg.URL),
		OGType:      "website",
	}
}

// ProjectsMeta describes the projects listing.
func ProjectsMeta(cfg SiteConfig) PageMeta {
	return PageMeta{
		Title:       "Projects | " + cfg.Name,
		Description: cfg.Description,
		URL:         BuildURL(cfg.URL, "projects"),
		OGType:      "website",
	}
}

// BlogMeta describes the blog listing.
func BlogMeta(cfg SiteConfig) PageMeta {
	return PageMeta{
		Title:       "Blog | " + cfg.Name,
		Description: cfg.Description,
		URL:         BuildURL(cfg.URL, "blog"),
		OGType:      "website",
	}
}

// PostMeta describes a single post. Inline data: images are left out since
// crawlers cannot fetch them.
func PostMeta(post content.BlogPost, cfg SiteConfig) PageMeta {
	m := PageMeta{
		Title:       post.Title + " | " + cfg.Name,
		Description: post.Excerpt,
		URL:         BuildURL(cfg.URL, "blog", post.Slug),
		OGType:      "article",
	}
	if post.Image != "" && post.Image != placeholderImage && !isDataURL(post.Image) {
		m.Image = absoluteURL(cfg.URL, post.Image)
	}
	return m
}

func isDataURL(s string) bool {
	return len(s) >= 5 && s[:5] == "data:"
}
