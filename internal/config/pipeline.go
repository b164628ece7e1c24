package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	"newsbot/internal/model"
)

// Pipeline describes what to poll and how to process it. It is read from
// the YAML sources file:
//
//	keywords: [gold, oil]
//	sources:
//	  - name: Kitco
//	    site: https://www.kitco.com
//	    feed: https://www.kitco.com/rss
//	    translate: true
type Pipeline struct {
	Keywords         []string       `yaml:"keywords"`
	Sources          []model.Source `yaml:"sources"`
	DenyHosts        []string       `yaml:"deny_hosts"`
	FeedSuffixes     []string       `yaml:"feed_suffixes"`
	ArticleSelectors []string       `yaml:"article_selectors"`
	MaxSynthesized   int            `yaml:"max_synthesized"`
}

// Built-in pipeline defaults, used for any list left empty in the file.
var (
	DefaultKeywords = []string{
		"золото", "нефть", "горнодобывающая",
		"gold", "oil", "mining", "commodities", "metals", "energy",
	}

	DefaultSources = []model.Source{
		{Name: "Kursiv", Site: "https://kursiv.kz", FeedURL: "https://kursiv.kz/rss"},
		{Name: "Informburo", Site: "https://informburo.kz", FeedURL: "https://informburo.kz/rss"},
		{Name: "Kursiv Media", Site: "https://kz.kursiv.media", FeedURL: "https://kz.kursiv.media/rss"},
		{Name: "Kapital", Site: "https://kapital.kz", FeedURL: "https://kapital.kz/rss"},
		{Name: "Inbusiness", Site: "https://inbusiness.kz", FeedURL: "https://inbusiness.kz/rss"},
		{Name: "Kitco", Site: "https://www.kitco.com", FeedURL: "https://www.kitco.com/rss", Translate: true},
		{Name: "Reuters", Site: "https://www.reuters.com", FeedURL: "https://www.reuters.com/arc/outboundfeeds/commodities/", Translate: true},
		{Name: "World Gold Council", Site: "https://www.gold.org", FeedURL: "https://www.gold.org/news/rss", Translate: true},
		{Name: "Mining.com", Site: "https://mining.com", FeedURL: "https://mining.com/feed", Translate: true},
		{Name: "Finprom", Site: "https://finprom.kz/ru/news"},
	}

	DefaultDenyHosts = []string{
		"feedproxy.google.com",
		"feeds.feedburner.com",
		"feedburner.com",
		"news.google.com",
		"bit.ly",
		"t.co",
		"tinyurl.com",
		"ow.ly",
		"goo.gl",
		"dlvr.it",
		"feeds.",
		"rss.",
	}

	DefaultFeedSuffixes = []string{
		"/rss", "/feed", "/rss.xml", "/feed.xml", "/atom.xml", "/index.xml", "/rss/", "/feed/",
	}

	DefaultArticleSelectors = []string{
		"article",
		".news-item",
		".news__item",
		".post",
		".entry",
		".article",
		"div[class*='news-card']",
		"li[class*='news']",
	}
)

// DefaultMaxSynthesized is the number of scraped elements turned into entries.
const DefaultMaxSynthesized = 10

// DefaultPipeline returns the built-in pipeline.
func DefaultPipeline() *Pipeline {
	p := &Pipeline{}
	p.applyDefaults()
	return p
}

// LoadPipeline reads the YAML sources file at path. Lists left empty in the
// file fall back to the built-in defaults.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted configuration
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return ParsePipeline(data)
}

// ParsePipeline decodes a YAML pipeline document.
func ParsePipeline(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode sources file: %w", err)
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Pipeline) applyDefaults() {
	if len(p.Keywords) == 0 {
		p.Keywords = append([]string(nil), DefaultKeywords...)
	}
	if len(p.Sources) == 0 {
		p.Sources = append([]model.Source(nil), DefaultSources...)
	}
	if len(p.DenyHosts) == 0 {
		p.DenyHosts = append([]string(nil), DefaultDenyHosts...)
	}
	if len(p.FeedSuffixes) == 0 {
		p.FeedSuffixes = append([]string(nil), DefaultFeedSuffixes...)
	}
	if len(p.ArticleSelectors) == 0 {
		p.ArticleSelectors = append([]string(nil), DefaultArticleSelectors...)
	}
	if p.MaxSynthesized <= 0 {
		p.MaxSynthesized = DefaultMaxSynthesized
	}
}

// Validate checks that every source has at least one absolute URL.
func (p *Pipeline) Validate() error {
	var errs []error
	for i, s := range p.Sources {
		if s.Site == "" && s.FeedURL == "" {
			errs = append(errs, fmt.Errorf("source %d (%s): site or feed is required", i, s.Name))
			continue
		}
		for _, raw := range []string{s.Site, s.FeedURL} {
			if raw == "" {
				continue
			}
			u, err := url.Parse(raw)
			if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
				errs = append(errs, fmt.Errorf("source %d (%s): invalid url %q", i, s.Label(), raw))
			}
		}
	}
	return errors.Join(errs...)
}
