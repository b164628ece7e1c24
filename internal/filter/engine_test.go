package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRelevant(t *testing.T) {
	k := NewKeywords([]string{"золото", "нефть", "Gold", "oil", " ", "mining"})

	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{name: "english keyword", title: "Gold prices rise", want: true},
		{name: "upper case title", title: "GOLD HITS RECORD", want: true},
		{name: "cyrillic keyword", title: "Добыча: золото Казахстана", want: true},
		{name: "cyrillic upper case", title: "НЕФТЬ ДОРОЖАЕТ", want: true},
		{name: "different word form", title: "Позолоченный век", want: false},
		{name: "substring inside a longer word", title: "Золотодобыча растёт", want: true},
		{name: "keyword inside english word", title: "Boiling point reached", want: true},
		{name: "no keyword", title: "Football results", want: false},
		{name: "empty title", title: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := k.Relevant(tt.title)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Relevant(%q) mismatch (-want +got):\n%s", tt.title, diff)
			}
		})
	}
}

func TestMatchReturnsKeyword(t *testing.T) {
	k := NewKeywords([]string{"oil", "mining"})

	word, ok := k.Match("Mining stocks and OIL majors")
	if !ok {
		t.Fatal("expected a match")
	}
	if diff := cmp.Diff("oil", word); diff != "" {
		t.Errorf("keyword mismatch (-want +got):\n%s", diff)
	}
}

func TestNoKeywords(t *testing.T) {
	k := NewKeywords(nil)
	if k.Relevant("Gold prices rise") {
		t.Error("expected nothing to be relevant without keywords")
	}
}
