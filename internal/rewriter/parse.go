package rewriter

import (
	"regexp"
	"strings"
)

var (
	titleRe = regexp.MustCompile(`(?m)^TITLE:[ \t]*(.+)$`)
	metaRe  = regexp.MustCompile(`(?m)^META_DESCRIPTION:[ \t]*(.+)$`)
	bodyRe  = regexp.MustCompile(`(?ms)^BODY:\s*?\n(.*)`)
)

// ParseResponse splits a model reply into title, meta description and body.
// Missing markers yield empty strings.
func ParseResponse(text string) (title, meta, body string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if m := titleRe.FindStringSubmatch(text); m != nil {
		title = strings.Trim(strings.TrimSpace(m[1]), `"`)
	}
	if m := metaRe.FindStringSubmatch(text); m != nil {
		meta = strings.Trim(strings.TrimSpace(m[1]), `"`)
	}
	if m := bodyRe.FindStringSubmatch(text); m != nil {
		body = strings.TrimSpace(m[1])
	}
	return title, meta, body
}

// MergeKeywords returns given followed by defaults, without repeats.
// Matching is case-insensitive and the first spelling wins.
func MergeKeywords(given, defaults []string) []string {
	seen := make(map[string]bool, len(given)+len(defaults))
	out := make([]string, 0, len(given)+len(defaults))
	for _, list := range [][]string{given, defaults} {
		for _, kw := range list {
			kw = strings.TrimSpace(kw)
			key := strings.ToLower(kw)
			if kw == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, kw)
		}
	}
	return out
}
