// Package resolver turns a configured source into a feed document.
//
// Resolution runs an ordered chain of strategies and the first one that
// produces at least one entry wins. Feed URLs found by the chain are
// remembered per site so the next cycle can go straight to them.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"newsbot/internal/model"
)

// ErrNoDocument is returned when no strategy produced a usable document.
var ErrNoDocument = errors.New("no document")

var errNoEntries = errors.New("document has no entries")

// Fetcher downloads feeds and pages.
type Fetcher interface {
	FetchFeed(ctx context.Context, url string) (*model.Document, error)
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// Strategy is one way of obtaining a document for a source.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, src model.Source) (*model.Document, error)
}

// Resolution is the outcome of a successful resolve.
type Resolution struct {
	Document *model.Document
	Strategy string
	FeedURL  string
}

type memoEntry struct {
	feedURL  string
	strategy string
}

const defaultMemoSize = 256

// Resolver runs the strategy chain.
type Resolver struct {
	fetcher    Fetcher
	strategies []Strategy
	memo       *lru.Cache[string, memoEntry]
	logger     *slog.Logger
}

// New creates a Resolver running strategies in order. A nil logger discards.
func New(f Fetcher, logger *slog.Logger, strategies ...Strategy) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	memo, _ := lru.New[string, memoEntry](defaultMemoSize)
	return &Resolver{
		fetcher:    f,
		strategies: strategies,
		memo:       memo,
		logger:     logger,
	}
}

// NewDefault creates a Resolver with the direct, suffix, discovery and
// scrape strategies.
func NewDefault(f Fetcher, opts Options, logger *slog.Logger) *Resolver {
	return New(f, logger,
		Direct(f),
		Suffix(f, opts.FeedSuffixes),
		Discovery(f),
		Scrape(f, opts.ArticleSelectors, opts.MaxSynthesized, opts.Now),
	)
}

// Resolve returns the first document with entries for src.
func (r *Resolver) Resolve(ctx context.Context, src model.Source) (Resolution, error) {
	key := memoKey(src)

	if m, ok := r.memo.Get(key); ok {
		doc, err := r.fetcher.FetchFeed(ctx, m.feedURL)
		if err == nil && len(doc.Entries) > 0 {
			return Resolution{Document: doc, Strategy: m.strategy, FeedURL: m.feedURL}, nil
		}
		r.logger.DebugContext(ctx, "remembered feed stopped working",
			"feed", m.feedURL, "error", err)
		r.memo.Remove(key)
	}

	for _, s := range r.strategies {
		if err := ctx.Err(); err != nil {
			return Resolution{}, err
		}

		doc, err := s.Resolve(ctx, src)
		if err == nil && len(doc.Entries) == 0 {
			err = errNoEntries
		}
		if err != nil {
			r.logger.DebugContext(ctx, "strategy failed",
				"strategy", s.Name(), "error", err)
			continue
		}

		if !doc.Synthesized && doc.URL != "" {
			r.memo.Add(key, memoEntry{feedURL: doc.URL, strategy: s.Name()})
		}
		return Resolution{Document: doc, Strategy: s.Name(), FeedURL: doc.URL}, nil
	}

	return Resolution{}, fmt.Errorf("resolve %s: %w", src.Label(), ErrNoDocument)
}

// Forget drops the remembered feed URL of src.
func (r *Resolver) Forget(src model.Source) {
	r.memo.Remove(memoKey(src))
}

func memoKey(src model.Source) string {
	if src.Site != "" {
		return src.Site
	}
	return src.FeedURL
}
