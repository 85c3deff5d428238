package folio

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/eringen/folio/content"
)

// BuildURL joins a base URL with path segments. The result always ends in a
// slash, matching the site's trailing-slash routes; BuildURL(base) is the
// site root.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(append([]string{"/", u.Path}, pathSegments...)...)
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// FilterRelatedPosts returns the posts sharing at least one tag with current,
// compared case-insensitively, in their original order.
func FilterRelatedPosts(current content.BlogPost, posts []content.BlogPost) []content.BlogPost {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		if tag := normalizeTag(t); tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	var related []content.BlogPost
	for _, p := range posts {
		if p.ID == current.ID {
			continue
		}
		for _, t := range p.Tags {
			if _, ok := tagSet[normalizeTag(t)]; ok {
				related = append(related, p)
				break
			}
		}
	}
	return related
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// JoinTags joins tags with ", ".
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// FormatDate renders a timestamp the way post bylines show it.
func FormatDate(t time.Time) string {
	return t.UTC().Format("January 2, 2006")
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
	}
	if cfg.Author != "" {
		data["author"] = person(cfg.Author)
	}
	return marshalJsonLD(data)
}

// BlogPostingJsonLD returns a JSON-LD string for a BlogPosting schema.
func BlogPostingJsonLD(post content.BlogPost, cfg SiteConfig) string {
	postURL := BuildURL(cfg.URL, "blog", post.Slug)
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Excerpt,
		"datePublished": post.PublishedAt.UTC().Format(time.RFC3339),
		"dateModified":  post.UpdatedAt.UTC().Format(time.RFC3339),
		"timeRequired":  "PT" + strconv.Itoa(post.ReadTime) + "M",
		"url":           postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if cfg.Author != "" {
		data["author"] = person(cfg.Author)
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	if len(post.Tags) > 0 {
		data["keywords"] = JoinTags(post.Tags)
	}
	if post.Image != "" && !strings.HasPrefix(post.Image, "data:") {
		data["image"] = absoluteURL(cfg.URL, post.Image)
	}
	return marshalJsonLD(data)
}

// ProjectJsonLD returns a JSON-LD string for a project as a CreativeWork.
func ProjectJsonLD(p content.Project, cfg SiteConfig) string {
	data := map[string]any{
		"@context":     "https://schema.org",
		"@type":        "CreativeWork",
		"name":         p.Title,
		"description":  p.Description,
		"dateCreated":  p.CreatedAt.UTC().Format(time.RFC3339),
		"dateModified": p.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if len(p.Technologies) > 0 {
		data["keywords"] = JoinTags(p.Technologies)
	}
	if p.DemoURL != nil {
		data["url"] = *p.DemoURL
	}
	if p.GithubURL != nil {
		data["codeRepository"] = *p.GithubURL
	}
	if cfg.Author != "" {
		data["author"] = person(cfg.Author)
	}
	return marshalJsonLD(data)
}

func person(name string) map[string]string {
	return map[string]string{"@type": "Person", "name": name}
}

func absoluteURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func marshalJsonLD(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
