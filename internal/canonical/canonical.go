// Package canonical picks the single stable link that identifies a feed entry.
package canonical

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newsbot/internal/model"
)

// Canonicalizer selects dedup keys from feed entries.
type Canonicalizer struct {
	domains    []string
	substrings []string
}

// New creates a Canonicalizer with the given host denylist. An item ending
// with a dot (e.g. "feeds.") matches anywhere in the host; any other item is
// a domain and matches the host itself or any of its subdomains.
func New(denyHosts []string) *Canonicalizer {
	c := &Canonicalizer{}
	for _, h := range denyHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case h == "":
		case strings.HasSuffix(h, "."):
			c.substrings = append(c.substrings, h)
		default:
			c.domains = append(c.domains, h)
		}
	}
	return c
}

// Canonicalize returns the first valid candidate link of the entry, trying the
// primary link, the GUID, the alternate links and finally the first anchor in
// the description. It returns "" when no candidate is valid.
func (c *Canonicalizer) Canonicalize(e model.Entry) string {
	candidates := make([]string, 0, len(e.Links)+2)
	candidates = append(candidates, e.Link, e.GUID)
	candidates = append(candidates, e.Links...)

	for _, cand := range candidates {
		cand = strings.TrimSpace(cand)
		if c.Valid(cand) {
			return cand
		}
	}

	if href := firstAnchor(e.Description); c.Valid(href) {
		return href
	}
	return ""
}

// Valid reports whether candidate can serve as a dedup key: an absolute
// http(s) URL with an article path whose host is not denylisted.
func (c *Canonicalizer) Valid(candidate string) bool {
	if candidate == "" {
		return false
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if c.denied(strings.ToLower(u.Hostname())) {
		return false
	}
	return !isHomepage(u)
}

func (c *Canonicalizer) denied(host string) bool {
	for _, s := range c.substrings {
		if strings.Contains(host, s) {
			return true
		}
	}
	for _, d := range c.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// isHomepage matches exactly scheme://host and scheme://host/.
func isHomepage(u *url.URL) bool {
	return (u.Path == "" || u.Path == "/") &&
		u.RawQuery == "" && !u.ForceQuery &&
		u.Fragment == "" && u.Opaque == ""
}

func firstAnchor(body string) string {
	if !strings.Contains(strings.ToLower(body), "<a") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	href, _ := doc.Find("a[href]").First().Attr("href")
	return strings.TrimSpace(href)
}
