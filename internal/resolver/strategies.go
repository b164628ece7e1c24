package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newsbot/internal/model"
)

// Strategy names.
const (
	StrategyDirect    = "direct"
	StrategySuffix    = "suffix"
	StrategyDiscovery = "discovery"
	StrategyScrape    = "scrape"
)

var errNoSite = errors.New("source has no site url")

// Options configures the default strategy chain.
type Options struct {
	FeedSuffixes     []string
	ArticleSelectors []string
	MaxSynthesized   int
	// Now stamps scraped entries without a date. Defaults to time.Now.
	Now func() time.Time
}

type strategyFunc struct {
	name string
	fn   func(ctx context.Context, src model.Source) (*model.Document, error)
}

func (s strategyFunc) Name() string { return s.name }

func (s strategyFunc) Resolve(ctx context.Context, src model.Source) (*model.Document, error) {
	return s.fn(ctx, src)
}

// Direct parses the configured feed URL, or the site URL when no feed URL
// is set, as a feed.
func Direct(f Fetcher) Strategy {
	return strategyFunc{name: StrategyDirect, fn: func(ctx context.Context, src model.Source) (*model.Document, error) {
		u := src.FeedURL
		if u == "" {
			u = src.Site
		}
		if u == "" {
			return nil, errNoSite
		}
		return f.FetchFeed(ctx, u)
	}}
}

// Suffix appends well-known feed paths to the site URL.
func Suffix(f Fetcher, suffixes []string) Strategy {
	return strategyFunc{name: StrategySuffix, fn: func(ctx context.Context, src model.Source) (*model.Document, error) {
		if src.Site == "" {
			return nil, errNoSite
		}
		base := strings.TrimRight(src.Site, "/")

		var errs []error
		for _, sfx := range suffixes {
			u := base + "/" + strings.TrimLeft(sfx, "/")
			if u == src.FeedURL {
				continue
			}
			doc, err := f.FetchFeed(ctx, u)
			if err == nil && len(doc.Entries) > 0 {
				return doc, nil
			}
			if err == nil {
				err = errNoEntries
			}
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
			if ctx.Err() != nil {
				break
			}
		}
		if len(errs) == 0 {
			return nil, errNoEntries
		}
		return nil, errors.Join(errs...)
	}}
}

// Discovery looks for <link rel="alternate"> feed references on the site page.
func Discovery(f Fetcher) Strategy {
	return strategyFunc{name: StrategyDiscovery, fn: func(ctx context.Context, src model.Source) (*model.Document, error) {
		if src.Site == "" {
			return nil, errNoSite
		}
		body, err := f.FetchPage(ctx, src.Site)
		if err != nil {
			return nil, err
		}
		links, err := DiscoverFeeds(body, src.Site)
		if err != nil {
			return nil, err
		}
		if len(links) == 0 {
			return nil, errors.New("no feed links on page")
		}

		var errs []error
		for _, u := range links {
			doc, err := f.FetchFeed(ctx, u)
			if err == nil && len(doc.Entries) > 0 {
				return doc, nil
			}
			if err == nil {
				err = errNoEntries
			}
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
		}
		return nil, errors.Join(errs...)
	}}
}

// DiscoverFeeds returns the absolute URLs of the feeds advertised in an
// HTML page, in document order.
func DiscoverFeeds(page []byte, pageURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	var out []string
	seen := make(map[string]bool)
	doc.Find("link[rel~='alternate'][href]").Each(func(_ int, s *goquery.Selection) {
		typ := strings.ToLower(s.AttrOr("type", ""))
		if !strings.Contains(typ, "rss") && !strings.Contains(typ, "atom") && !strings.Contains(typ, "xml") {
			return
		}
		u := absolute(base, s.AttrOr("href", ""))
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	})
	return out, nil
}

func absolute(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
