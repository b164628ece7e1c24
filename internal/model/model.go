// Package model defines the domain types used across the application.
package model

import "time"

// Source is a configured news origin. Either FeedURL is a known feed
// endpoint, or only Site is set and the feed has to be discovered.
type Source struct {
	Name      string `yaml:"name"`
	Site      string `yaml:"site"`
	FeedURL   string `yaml:"feed"`
	Translate bool   `yaml:"translate"`
}

// Label returns a human-readable identifier for logs and messages.
func (s Source) Label() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Site != "":
		return s.Site
	default:
		return s.FeedURL
	}
}

// Entry is a single raw item read from a feed document.
type Entry struct {
	Title       string
	Link        string
	GUID        string
	Links       []string
	Description string
	Published   *time.Time
}

// Document is a parsed or synthesized feed.
type Document struct {
	Title       string
	URL         string
	Entries     []Entry
	Synthesized bool
}

// Post is an item that has been delivered to subscribers.
// Link is the canonical link and doubles as the dedup key.
type Post struct {
	Link   string
	Title  string
	Source string
	SentAt time.Time
}
