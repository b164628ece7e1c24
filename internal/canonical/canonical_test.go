package canonical

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"newsbot/internal/model"
)

var testDeny = []string{
	"feedproxy.google.com", "feeds.feedburner.com", "news.google.com", "bit.ly", "t.co", "feeds.",
}

func TestCanonicalize(t *testing.T) {
	c := New(testDeny)

	tests := []struct {
		name  string
		entry model.Entry
		want  string
	}{
		{
			name:  "primary link wins",
			entry: model.Entry{Link: "https://kitco.com/news/a1", GUID: "https://kitco.com/news/guid"},
			want:  "https://kitco.com/news/a1",
		},
		{
			name: "proxy link falls back to guid",
			entry: model.Entry{
				Link: "http://feedproxy.google.com/~r/kitco/abc",
				GUID: "https://www.kitco.com/news/2025-03-01/gold.html",
			},
			want: "https://www.kitco.com/news/2025-03-01/gold.html",
		},
		{
			name: "homepage link and opaque guid fall back to alternates in order",
			entry: model.Entry{
				Link:  "https://mining.com/",
				GUID:  "urn:uuid:1234",
				Links: []string{"https://bit.ly/3xyz", "https://mining.com/copper-output/", "https://mining.com/other/"},
			},
			want: "https://mining.com/copper-output/",
		},
		{
			name: "description anchor is the last resort",
			entry: model.Entry{
				Link:        "https://news.google.com/rss/articles/CBMi",
				Description: `<p>Read more <A HREF="https://www.reuters.com/markets/commodities/oil-1/">here</A> <a href="https://x.kz/2">x</a></p>`,
			},
			want: "https://www.reuters.com/markets/commodities/oil-1/",
		},
		{
			name: "generic feed host substring is denied",
			entry: model.Entry{
				Link: "https://feeds.kapital.kz/item/55",
				GUID: "https://kapital.kz/economic/55",
			},
			want: "https://kapital.kz/economic/55",
		},
		{
			name:  "homepage only yields empty",
			entry: model.Entry{Link: "https://kursiv.kz", GUID: "https://kursiv.kz/", Links: []string{"http://kursiv.kz/"}},
			want:  "",
		},
		{
			name: "denylisted only yields empty",
			entry: model.Entry{
				Link:        "https://feeds.feedburner.com/x/y",
				Links:       []string{"https://t.co/abc"},
				Description: `<a href="https://bit.ly/q">q</a>`,
			},
			want: "",
		},
		{
			name:  "relative description anchor is rejected",
			entry: model.Entry{Description: `<a href="/news/1">one</a>`},
			want:  "",
		},
		{
			name:  "empty entry",
			entry: model.Entry{},
			want:  "",
		},
		{
			name:  "whitespace around link is trimmed",
			entry: model.Entry{Link: "  https://kapital.kz/gold/1  "},
			want:  "https://kapital.kz/gold/1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Canonicalize(tt.entry)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Canonicalize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValid(t *testing.T) {
	c := New(testDeny)

	tests := []struct {
		candidate string
		want      bool
	}{
		{"", false},
		{"not a url", false},
		{"/relative/path", false},
		{"ftp://kitco.com/file", false},
		{"mailto:news@kitco.com", false},
		{"https://kitco.com", false},
		{"https://kitco.com/", false},
		{"https://kitco.com/news", true},
		{"https://kitco.com/?p=12", true},
		{"https://kitco.com/#top", true},
		{"https://bit.ly/abc", false},
		{"https://www.bit.ly/abc", false},
		{"https://t.co/abc", false},
		{"https://reddit.co/abc", true},
		{"https://abbot.com/news", true},
		{"https://FEEDPROXY.GOOGLE.COM/x", false},
		{"https://feeds.example.com/article/1", false},
		{"https://mining.com/feed-the-world/", true},
	}

	for _, tt := range tests {
		t.Run(tt.candidate, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, c.Valid(tt.candidate)); diff != "" {
				t.Errorf("Valid(%q) mismatch (-want +got):\n%s", tt.candidate, diff)
			}
		})
	}
}

func TestEmptyDenylist(t *testing.T) {
	c := New([]string{"", "  "})
	if !c.Valid("https://bit.ly/abc") {
		t.Error("expected any article url to be valid without a denylist")
	}
}
