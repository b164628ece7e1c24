// Package filter decides whether a feed item is on topic.
package filter

import "strings"

// Keywords matches titles against a fixed keyword list.
//
// Matching is a case-insensitive substring test, not a word match:
// "золото" also matches "позолоченный".
type Keywords struct {
	words []string
}

// NewKeywords creates a matcher. Blank keywords are ignored.
func NewKeywords(words []string) *Keywords {
	k := &Keywords{}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			k.words = append(k.words, w)
		}
	}
	return k
}

// Relevant reports whether title contains at least one keyword.
// With no keywords configured nothing is relevant.
func (k *Keywords) Relevant(title string) bool {
	_, ok := k.Match(title)
	return ok
}

// Match returns the first keyword found in title.
func (k *Keywords) Match(title string) (string, bool) {
	text := strings.ToLower(title)
	for _, w := range k.words {
		if strings.Contains(text, w) {
			return w, true
		}
	}
	return "", false
}
