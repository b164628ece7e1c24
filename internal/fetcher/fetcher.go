// Package fetcher handles downloading pages and parsing feeds.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"newsbot/internal/model"
)

const maxBodySize = 5 * 1024 * 1024

// Accept headers for feed and page requests.
const (
	AcceptFeed = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"
	AcceptHTML = "text/html, application/xhtml+xml;q=0.9, */*;q=0.5"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads pages and feeds.
type Fetcher struct {
	client    HTTPClient
	userAgent string
}

// New creates a Fetcher with the given HTTP client and User-Agent header.
func New(client HTTPClient, userAgent string) *Fetcher {
	return &Fetcher{
		client:    client,
		userAgent: userAgent,
	}
}

// Get downloads url and returns its body, capped at 5 MiB.
func (f *Fetcher) Get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// FetchFeed downloads and parses the feed at url.
func (f *Fetcher) FetchFeed(ctx context.Context, url string) (*model.Document, error) {
	body, err := f.Get(ctx, url, AcceptFeed)
	if err != nil {
		return nil, err
	}
	return ParseFeed(body, url)
}

// FetchPage downloads an HTML page.
func (f *Fetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	return f.Get(ctx, url, AcceptHTML)
}

// ParseFeed parses an RSS, Atom or JSON feed body.
func ParseFeed(body []byte, url string) (*model.Document, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	doc := &model.Document{
		Title:   strings.TrimSpace(feed.Title),
		URL:     url,
		Entries: make([]model.Entry, 0, len(feed.Items)),
	}
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		doc.Entries = append(doc.Entries, ToEntry(item))
	}
	return doc, nil
}

// ToEntry converts a parsed feed item to an Entry.
func ToEntry(item *gofeed.Item) model.Entry {
	desc := item.Description
	if strings.TrimSpace(desc) == "" {
		desc = item.Content
	}

	e := model.Entry{
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		GUID:        strings.TrimSpace(item.GUID),
		Description: desc,
	}
	for _, l := range item.Links {
		if l = strings.TrimSpace(l); l != "" {
			e.Links = append(e.Links, l)
		}
	}
	switch {
	case item.PublishedParsed != nil:
		t := *item.PublishedParsed
		e.Published = &t
	case item.UpdatedParsed != nil:
		t := *item.UpdatedParsed
		e.Published = &t
	}
	return e
}
