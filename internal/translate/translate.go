// Package translate localizes item titles.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"newsbot/internal/model"
)

// Translator translates text into the target language.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Chain tries each translator in order and returns the first non-empty result.
type Chain []Translator

// Translate implements Translator.
func (c Chain) Translate(ctx context.Context, text, target string) (string, error) {
	if len(c) == 0 {
		return "", errors.New("no translators configured")
	}

	var errs []error
	for _, t := range c {
		out, err := t.Translate(ctx, text, target)
		if err == nil && strings.TrimSpace(out) != "" {
			return out, nil
		}
		if err == nil {
			err = errors.New("empty translation")
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", errors.Join(errs...)
}

// Localizer translates the titles of sources flagged for translation.
type Localizer struct {
	translator Translator
	target     string
	all        bool
	logger     *slog.Logger
}

// NewLocalizer creates a Localizer. When all is set every title is
// translated regardless of the source flag. A nil translator disables
// translation.
func NewLocalizer(t Translator, target string, all bool, logger *slog.Logger) *Localizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Localizer{
		translator: t,
		target:     target,
		all:        all,
		logger:     logger,
	}
}

// Localize returns the title in the target language, or the original title
// when the source is not flagged or translation fails.
func (l *Localizer) Localize(ctx context.Context, title string, src model.Source) string {
	if l.translator == nil || (!src.Translate && !l.all) {
		return title
	}

	out, err := l.translator.Translate(ctx, title, l.target)
	if err != nil {
		l.logger.WarnContext(ctx, "translation failed, keeping original title", "error", err)
		return title
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return title
	}
	return out
}

func limitRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func wrap(backend string, err error) error {
	return fmt.Errorf("%s: %w", backend, err)
}
