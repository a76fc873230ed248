// Package slug builds URL and file-name fragments from article titles.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen caps the length of generated slugs.
const MaxLen = 60

var (
	invalidRe   = regexp.MustCompile(`[^a-z0-9\s_-]+`)
	separatorRe = regexp.MustCompile(`[\s_]+`)
	hyphensRe   = regexp.MustCompile(`-+`)

	fileInvalidRe = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// Generate creates a URL-friendly slug: lowercase ASCII letters, digits and
// single hyphens, at most MaxLen characters.
func Generate(s string) string {
	if s == "" {
		return ""
	}

	s = transliterate(strings.ToLower(s))
	s = invalidRe.ReplaceAllString(s, "")
	s = separatorRe.ReplaceAllString(s, "-")
	s = hyphensRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > MaxLen {
		s = strings.TrimRight(s[:MaxLen], "-")
	}
	return s
}

// GenerateWithFallback generates a slug, falling back to a default if the
// input produces an empty slug.
func GenerateWithFallback(s, fallback string) string {
	if slug := Generate(s); slug != "" {
		return slug
	}
	return Generate(fallback)
}

// Filename derives the file-name fragment used for processed articles.
// Unlike Generate it keeps non-ASCII letters and does not collapse hyphens.
func Filename(title string) string {
	s := strings.TrimSpace(fileInvalidRe.ReplaceAllString(title, ""))
	s = strings.ToLower(whitespaceRe.ReplaceAllString(s, "-"))
	if r := []rune(s); len(r) > MaxLen {
		s = string(r[:MaxLen])
	}
	return s
}

func transliterate(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
