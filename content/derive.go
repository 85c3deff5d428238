package content

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// WordsPerMinute is the reading speed used by CalculateReadTime.
const WordsPerMinute = 200

// GenerateSlug derives a URL slug from a title: lower-cased, stripped of
// everything except ASCII letters, digits, whitespace and hyphens, with
// whitespace and hyphen runs collapsed to a single hyphen and no hyphen at
// either end. A title without letters or digits yields "".
func GenerateSlug(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingHyphen = true
		}
	}
	return b.String()
}

// ReservedSlugs are the list names under /api/blog/ and the blog cache
// namespace. A post may not take one as its slug.
var ReservedSlugs = []string{"all", "published", "featured"}

// IsReservedSlug reports whether slug is one of ReservedSlugs.
func IsReservedSlug(slug string) bool {
	return slices.Contains(ReservedSlugs, slug)
}

func checkSlug(slug string) error {
	switch {
	case slug == "":
		return ErrEmptySlug
	case IsReservedSlug(slug):
		return ErrReservedSlug
	}
	return nil
}

// whitespaceRun matches the Unicode White_Space and line terminator set
// rather than RE2's ASCII-only \s.
var whitespaceRun = regexp.MustCompile(`[\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]+`)

// CalculateReadTime estimates reading time in whole minutes, never less
// than one. The content is split on whitespace runs and every piece counts
// as a word, markup included. Leading or trailing whitespace yields an empty
// piece at that end, which is counted too.
func CalculateReadTime(content string) int {
	words := len(whitespaceRun.Split(content, -1))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
