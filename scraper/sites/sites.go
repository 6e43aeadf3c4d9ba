// Package sites contains the per-site scraper implementations. Each
// scraper turns one upstream listing page (or API) into raw listings;
// normalization of ticket math and deadlines happens downstream.
package sites

import (
	"net/url"
	"strings"

	"rafflescout/markup"
)

// firstText walks an ordered selector list and returns the first
// non-empty text it finds within the card.
func firstText(card *markup.Element, selectors ...string) string {
	for _, selector := range selectors {
		if node := card.SelectFirst(selector); node != nil {
			if text := node.Text(); text != "" {
				return text
			}
		}
	}
	return ""
}

// firstHref returns the first href found by the ordered selector list.
func firstHref(card *markup.Element, selectors ...string) string {
	for _, selector := range selectors {
		if node := card.SelectFirst(selector); node != nil {
			if href, ok := node.Attr("href"); ok && href != "" {
				return href
			}
		}
	}
	return ""
}

// absoluteURL resolves href against base, returning href unchanged when
// either side fails to parse.
func absoluteURL(base, href string) string {
	if href == "" {
		return base
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

// slugify lowercases text and collapses runs of non-alphanumerics into
// single hyphens.
func slugify(text string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(text) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// listingID derives a stable per-source identifier from a listing URL:
// the last non-empty path segment, falling back to the whole URL for
// pages without a usable path.
func listingID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return rawURL
}
