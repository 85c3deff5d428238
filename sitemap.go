package folio

import (
	"encoding/xml"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/content"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

const sitemapDate = "2006-01-02"

func (a *App) renderSitemap(c echo.Context, projects []content.Project, posts []content.BlogPost) error {
	base := a.Config.URL
	urls := []sitemapURL{{Loc: BuildURL(base)}}

	projectsPage := sitemapURL{Loc: BuildURL(base, "projects")}
	for _, p := range projects {
		if lm := p.UpdatedAt.UTC().Format(sitemapDate); lm > projectsPage.LastMod {
			projectsPage.LastMod = lm
		}
	}
	urls = append(urls, projectsPage, sitemapURL{Loc: BuildURL(base, "blog")})

	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "blog", p.Slug),
			LastMod: p.UpdatedAt.UTC().Format(sitemapDate),
		})
	}
	return writeXML(c, "application/xml; charset=utf-8", sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	})
}
