package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// GoogleEndpoint is the public web translation endpoint.
const GoogleEndpoint = "https://translate.googleapis.com/translate_a/single"

const maxTextRunes = 4000

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Google translates with the free Google Translate web API.
type Google struct {
	client   HTTPClient
	endpoint string
}

// NewGoogle creates a Google translator using client.
func NewGoogle(client HTTPClient) *Google {
	return &Google{client: client, endpoint: GoogleEndpoint}
}

// Translate implements Translator.
func (g *Google) Translate(ctx context.Context, text, target string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", target)
	params.Set("dt", "t")
	params.Set("q", limitRunes(text, maxTextRunes))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", wrap("google", fmt.Errorf("create request: %w", err))
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", wrap("google", fmt.Errorf("http get: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", wrap("google", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", wrap("google", fmt.Errorf("read body: %w", err))
	}

	out, err := parseGoogleResponse(body)
	if err != nil {
		return "", wrap("google", err)
	}
	return out, nil
}

// parseGoogleResponse joins the translated segments of a response shaped
// like [[["translated","source",...],...],...].
func parseGoogleResponse(body []byte) (string, error) {
	var resp []any
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(resp) == 0 {
		return "", errors.New("empty response")
	}
	segments, ok := resp[0].([]any)
	if !ok {
		return "", errors.New("unexpected response format")
	}

	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("no translated segments")
	}
	return b.String(), nil
}
