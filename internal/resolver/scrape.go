package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/microcosm-cc/bluemonday"

	"newsbot/internal/model"
)

var stripPolicy = bluemonday.StrictPolicy()

const (
	titleSelector = "h1, h2, h3, h4, .title"
	dateSelector  = "time, .date, .published"
)

// Scrape synthesizes a feed from the article elements of the site page.
// At most limit elements are considered; those without a title or a link
// are skipped. Entries without a parseable date get now().
func Scrape(f Fetcher, selectors []string, limit int, now func() time.Time) Strategy {
	if now == nil {
		now = time.Now
	}
	return strategyFunc{name: StrategyScrape, fn: func(ctx context.Context, src model.Source) (*model.Document, error) {
		if src.Site == "" {
			return nil, errNoSite
		}
		if len(selectors) == 0 {
			return nil, errors.New("no article selectors")
		}
		body, err := f.FetchPage(ctx, src.Site)
		if err != nil {
			return nil, err
		}
		return Synthesize(body, src.Site, selectors, limit, now())
	}}
}

// Synthesize builds a feed document from an HTML page.
func Synthesize(page []byte, pageURL string, selectors []string, limit int, now time.Time) (*model.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	group := strings.Join(selectors, ", ")
	out := &model.Document{
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		URL:         pageURL,
		Synthesized: true,
	}

	taken := 0
	doc.Find(group).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		// Nested matches belong to the outer article.
		if s.ParentsFiltered(group).Length() > 0 {
			return true
		}
		if limit > 0 && taken >= limit {
			return false
		}
		taken++

		e, ok := scrapeEntry(s, base, now)
		if ok {
			out.Entries = append(out.Entries, e)
		}
		return true
	})

	return out, nil
}

func scrapeEntry(s *goquery.Selection, base *url.URL, now time.Time) (model.Entry, bool) {
	anchor := s.Find("a[href]").First()
	if anchor.Length() == 0 && s.Is("a[href]") {
		anchor = s
	}

	title := collapse(s.Find(titleSelector).First().Text())
	if title == "" {
		title = collapse(anchor.Text())
	}
	link := absolute(base, anchor.AttrOr("href", ""))
	if title == "" || link == "" {
		return model.Entry{}, false
	}

	descHTML, _ := s.Find("p").First().Html()
	if descHTML == "" {
		descHTML, _ = s.Html()
	}

	published := scrapeDate(s, now)
	return model.Entry{
		Title:       title,
		Link:        link,
		Description: collapse(html.UnescapeString(stripPolicy.Sanitize(descHTML))),
		Published:   &published,
	}, true
}

func scrapeDate(s *goquery.Selection, now time.Time) time.Time {
	if v, ok := s.Find("time[datetime]").First().Attr("datetime"); ok {
		if t, err := dateparse.ParseAny(strings.TrimSpace(v)); err == nil {
			return t
		}
	}
	if text := collapse(s.Find(dateSelector).First().Text()); text != "" {
		if t, err := dateparse.ParseAny(text); err == nil {
			return t
		}
	}
	return now
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
