package translate

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/go-cmp/cmp"
	"github.com/h2non/gock"

	"newsbot/internal/logging"
	"newsbot/internal/model"
)

func TestGoogleTranslate(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{
			name:   "segments joined",
			status: 200,
			body:   `[[["Цены на золото ","Gold prices ",null,null,10],["растут","rise",null,null,10]],null,"en"]`,
			want:   "Цены на золото растут",
		},
		{
			name:    "server error",
			status:  503,
			body:    "unavailable",
			wantErr: true,
		},
		{
			name:    "not json",
			status:  200,
			body:    "<html>captcha</html>",
			wantErr: true,
		},
		{
			name:    "no segments",
			status:  200,
			body:    `[null,null,"en"]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()

			client := &http.Client{}
			gock.InterceptClient(client)
			defer gock.RestoreClient(client)

			gock.New("https://translate.googleapis.com").
				Get("/translate_a/single").
				MatchParam("client", "gtx").
				MatchParam("sl", "auto").
				MatchParam("tl", "ru").
				MatchParam("q", "Gold prices rise").
				Reply(tt.status).
				BodyString(tt.body)

			got, err := NewGoogle(client).Translate(context.Background(), "Gold prices rise", "ru")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("translation mismatch (-want +got):\n%s", diff)
			}
			if !gock.IsDone() {
				t.Error("expected request was not made")
			}
		})
	}
}

type stubTranslator struct {
	out   string
	err   error
	calls int
}

func (s *stubTranslator) Translate(_ context.Context, text, target string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if s.out != "" {
		return s.out, nil
	}
	return "[" + target + "] " + text, nil
}

func TestChain(t *testing.T) {
	failing := &stubTranslator{err: errors.New("quota exceeded")}
	empty := &stubTranslator{out: "   "}
	working := &stubTranslator{}

	got, err := Chain{failing, empty, working}.Translate(context.Background(), "Gold", "ru")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff("[ru] Gold", got); diff != "" {
		t.Errorf("translation mismatch (-want +got):\n%s", diff)
	}
	if failing.calls != 1 || empty.calls != 1 || working.calls != 1 {
		t.Errorf("calls = %d/%d/%d, want 1/1/1", failing.calls, empty.calls, working.calls)
	}

	_, err = Chain{failing}.Translate(context.Background(), "Gold", "ru")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("error = %v, want backend error", err)
	}

	if _, err := (Chain{}).Translate(context.Background(), "Gold", "ru"); err == nil {
		t.Error("expected error from empty chain")
	}
}

func TestLocalize(t *testing.T) {
	english := model.Source{Name: "Kitco", Translate: true}
	local := model.Source{Name: "Kapital"}

	tests := []struct {
		name       string
		translator Translator
		all        bool
		src        model.Source
		want       string
	}{
		{
			name:       "flagged source translated",
			translator: &stubTranslator{out: "Цены на золото растут"},
			src:        english,
			want:       "Цены на золото растут",
		},
		{
			name:       "unflagged source untouched",
			translator: &stubTranslator{out: "should not be used"},
			src:        local,
			want:       "Gold prices rise",
		},
		{
			name:       "translate all overrides flag",
			translator: &stubTranslator{},
			all:        true,
			src:        local,
			want:       "[ru] Gold prices rise",
		},
		{
			name:       "failure keeps original",
			translator: &stubTranslator{err: errors.New("boom")},
			src:        english,
			want:       "Gold prices rise",
		},
		{
			name:       "blank translation keeps original",
			translator: &stubTranslator{out: " \n "},
			src:        english,
			want:       "Gold prices rise",
		},
		{
			name: "no translator",
			src:  english,
			want: "Gold prices rise",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLocalizer(tt.translator, "ru", tt.all, nil)
			got := l.Localize(context.Background(), "Gold prices rise", tt.src)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("title mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLocalizeFailureLogsSourceOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New("warn", "text", &buf)
	ctx := logging.Ctx(context.Background(), slog.String("source", "Kitco"))

	l := NewLocalizer(&stubTranslator{err: errors.New("boom")}, "ru", false, logger)
	l.Localize(ctx, "Gold prices rise", model.Source{Name: "Kitco", Translate: true})

	out := buf.String()
	if !strings.Contains(out, "translation failed") {
		t.Fatalf("expected failure record, got %q", out)
	}
	if diff := cmp.Diff(1, strings.Count(out, "source=")); diff != "" {
		t.Errorf("source attribute count mismatch (-want +got):\n%s\n%s", diff, out)
	}
}

func TestGeminiResponseText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr bool
	}{
		{
			name: "text parts joined and quotes trimmed",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text(" «Цены на золото "), genai.Text("растут»\n")}},
			}}},
			want: "Цены на золото растут",
		},
		{
			name:    "no candidates",
			resp:    &genai.GenerateContentResponse{},
			wantErr: true,
		},
		{
			name:    "nil response",
			wantErr: true,
		},
		{
			name:    "candidate without content",
			resp:    &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := responseText(tt.resp)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("text mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGeminiPrompt(t *testing.T) {
	p := geminiPrompt("  Gold prices rise ", "ru")
	if !strings.Contains(p, `"ru"`) || !strings.HasSuffix(p, "Gold prices rise") {
		t.Errorf("unexpected prompt:\n%s", p)
	}
}
