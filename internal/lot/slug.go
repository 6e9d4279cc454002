package lot

import (
	"net/url"
	"strings"
)

// SlugTokens extracts the final non-empty path segment of a listing URL,
// lowercases it, and splits it on "-" into ordered tokens. Malformed or
// empty URLs yield nil rather than an error; this is a pure function.
func SlugTokens(rawURL string) []string {
	if rawURL == "" {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	segments := strings.Split(u.Path, "/")
	slug := ""
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			slug = segments[i]
			break
		}
	}
	if slug == "" {
		return nil
	}

	var tokens []string
	for _, tok := range strings.Split(strings.ToLower(slug), "-") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
