package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is the model used for translations.
const DefaultGeminiModel = "gemini-1.5-flash"

// Gemini translates with a Gemini model.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini translator authenticated with apiKey.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: DefaultGeminiModel}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// Translate implements Translator.
func (g *Gemini) Translate(ctx context.Context, text, target string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.Text(geminiPrompt(text, target)))
	if err != nil {
		return "", wrap("gemini", fmt.Errorf("generate: %w", err))
	}
	out, err := responseText(resp)
	if err != nil {
		return "", wrap("gemini", err)
	}
	return out, nil
}

func geminiPrompt(text, target string) string {
	return fmt.Sprintf(`Translate the following news headline into the language with ISO code %q.
Keep proper names of companies and organizations unchanged.
Reply with the translated headline only, without quotes or comments.

%s`, target, limitRunes(strings.TrimSpace(text), maxTextRunes))
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	out := strings.Trim(strings.TrimSpace(b.String()), `"«»`)
	if out == "" {
		return "", errors.New("no text in response")
	}
	return out, nil
}
