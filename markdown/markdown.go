// Package markdown renders post bodies as templ components.
//
// Post content is stored as written, either Markdown or HTML from a rich
// text editor. Content that opens with an HTML tag is passed through; all
// other content is converted from Markdown.
package markdown

import (
	"regexp"
	"strings"

	"github.com/a-h/templ"
	"github.com/russross/blackfriday/v2"
)

var htmlStart = regexp.MustCompile(`^<(?:!--|![dD][oO][cC][tT][yY][pP][eE]|/?[a-zA-Z][a-zA-Z0-9-]*[\s/>])`)

const extensions = blackfriday.CommonExtensions | blackfriday.AutoHeadingIDs | blackfriday.Footnotes

const htmlFlags = blackfriday.CommonHTMLFlags |
	blackfriday.Safelink |
	blackfriday.NofollowLinks |
	blackfriday.NoreferrerLinks |
	blackfriday.HrefTargetBlank

// IsHTML reports whether content is already HTML.
func IsHTML(content string) bool {
	return htmlStart.MatchString(strings.TrimSpace(content))
}

// ToHTML returns content as HTML, converting it from Markdown when needed.
// Links with unsafe schemes are not rendered as anchors.
func ToHTML(content string) string {
	if IsHTML(content) {
		return strings.TrimSpace(content)
	}
	r := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{Flags: htmlFlags})
	out := blackfriday.Run([]byte(content),
		blackfriday.WithExtensions(extensions),
		blackfriday.WithRenderer(r),
	)
	return string(out)
}

// Content returns a component writing the HTML for content.
func Content(content string) templ.Component {
	return templ.Raw(ToHTML(content))
}
