package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"newsbot/internal/model"
)

func TestParsePipeline(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    *Pipeline
		wantErr bool
	}{
		{
			name: "empty document uses defaults",
			yaml: "",
			want: DefaultPipeline(),
		},
		{
			name: "explicit lists override defaults",
			yaml: `
keywords: [gold]
sources:
  - name: Kitco
    site: https://www.kitco.com
    feed: https://www.kitco.com/rss
    translate: true
  - site: https://finprom.kz/ru/news
deny_hosts: [bit.ly]
feed_suffixes: [/rss]
article_selectors: [div.news-item]
max_synthesized: 3
`,
			want: &Pipeline{
				Keywords: []string{"gold"},
				Sources: []model.Source{
					{Name: "Kitco", Site: "https://www.kitco.com", FeedURL: "https://www.kitco.com/rss", Translate: true},
					{Site: "https://finprom.kz/ru/news"},
				},
				DenyHosts:        []string{"bit.ly"},
				FeedSuffixes:     []string{"/rss"},
				ArticleSelectors: []string{"div.news-item"},
				MaxSynthesized:   3,
			},
		},
		{
			name: "partial document keeps default selectors",
			yaml: "keywords: [нефть]\n",
			want: func() *Pipeline {
				p := DefaultPipeline()
				p.Keywords = []string{"нефть"}
				return p
			}(),
		},
		{
			name:    "source without urls",
			yaml:    "sources:\n  - name: broken\n",
			wantErr: true,
		},
		{
			name:    "relative source url",
			yaml:    "sources:\n  - site: kitco.com\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			yaml:    "keywords: [gold\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePipeline([]byte(tt.yaml))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParsePipeline mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDefaultPipelineMatchesShippedFile(t *testing.T) {
	p, err := LoadPipeline("../../configs/sources.yaml")
	if err != nil {
		t.Fatalf("load shipped sources: %v", err)
	}
	if diff := cmp.Diff(DefaultKeywords, p.Keywords); diff != "" {
		t.Errorf("keywords mismatch (-want +got):\n%s", diff)
	}
	translated := 0
	for _, s := range p.Sources {
		if s.Translate {
			translated++
		}
	}
	if translated != 4 {
		t.Errorf("expected 4 translated sources, got %d", translated)
	}
}

func TestLoadPipelineMissingFile(t *testing.T) {
	_, err := LoadPipeline(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
