// Google AI (Gemini) provider — document translation over the
// generateContent HTTP API.

package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DobbiKov/prototype-translate-dir-cli/language"
)

// Request is one translation submission.
type Request struct {
	// Content is the full source document.
	Content string
	// RelPath is the manifest-relative path, given to the provider as
	// context (file type hints the register: markdown vs. plain prose).
	RelPath        string
	SourceLanguage language.Language
	TargetLanguage language.Language
}

// Provider translates a document. Implementations classify failures by
// returning *ProviderError so the pipeline can report transient vs.
// permanent outcomes.
type Provider interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// ---------------------------------------------------------------------------
// Google AI (Gemini)
// ---------------------------------------------------------------------------

const (
	// googleBaseURL is the Google AI endpoint base.
	googleBaseURL = "https://generativelanguage.googleapis.com"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.0-flash"
	// defaultTimeout bounds one provider request.
	defaultTimeout = 120 * time.Second
)

// GoogleProvider talks to the Google AI generateContent API.
type GoogleProvider struct {
	// BaseURL overrides the API base (tests point it at a local server).
	BaseURL string
	// APIKey authenticates requests; required.
	APIKey string
	// Model is the model identifier (DefaultModel when empty).
	Model string
	// Timeout is the per-request timeout (defaultTimeout when zero).
	Timeout time.Duration

	client *http.Client
}

// NewGoogleProvider builds a provider for the given API key.
// Fails with ErrNoCredentials (auth kind) when the key is empty, so
// the absence of credentials is caught at construction, before any
// file is read.
func NewGoogleProvider(apiKey string) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, &ProviderError{Kind: KindAuthMissing, Err: ErrNoCredentials}
	}
	return &GoogleProvider{
		APIKey: apiKey,
		client: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// systemPrompt instructs the model to behave as a document translator.
const systemPrompt = `You are a professional document translator.
Translate the entire document from {{sourceLang}} into {{targetLang}}.

- Translate for naturalness and fluency in {{targetLang}}, not word-for-word.
- Preserve the document structure exactly: markup, code blocks, headings,
  lists, tables, blank lines, and indentation stay where they are.
- Do not translate code, identifiers, file paths, URLs, or format
  specifiers (%s, %d, {placeholders}).
- Keep brand names and proper nouns unchanged.
- Return ONLY the translated document, with no explanations and no
  surrounding code fences.`

func (g *GoogleProvider) resolvedPrompt(req Request) string {
	p := strings.ReplaceAll(systemPrompt, "{{sourceLang}}", req.SourceLanguage.NativeName())
	return strings.ReplaceAll(p, "{{targetLang}}", req.TargetLanguage.NativeName())
}

// Translate sends the document and returns the translated content.
func (g *GoogleProvider) Translate(ctx context.Context, req Request) (string, error) {
	body, err := buildGeminiRequest(g.resolvedPrompt(req), userPrompt(req), 0.3)
	if err != nil {
		return "", newProviderError(KindPermanent, "building request: %w", err)
	}

	base := g.BaseURL
	if base == "" {
		base = googleBaseURL
	}
	model := g.Model
	if model == "" {
		model = DefaultModel
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(base, "/"), model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", newProviderError(KindPermanent, "creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.APIKey)

	resp, err := g.httpClient().Do(httpReq)
	if err != nil {
		return "", newProviderError(KindTransient, "API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to parsing
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", newProviderError(KindAuthMissing, "API rejected credentials (status %d): %s", resp.StatusCode, truncate(respBody, 300))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", newProviderError(KindTransient, "API returned status %d: %s", resp.StatusCode, truncate(respBody, 300))
	default:
		return "", newProviderError(KindPermanent, "API returned status %d: %s", resp.StatusCode, truncate(respBody, 300))
	}

	text, err := extractGeminiText(respBody)
	if err != nil {
		return "", newProviderError(KindPermanent, "%w", err)
	}
	return text, nil
}

// httpClient never mutates g: Translate runs concurrently from the
// pipeline's worker pool, so a lazily stored client would race. When
// no client was built at construction a per-call one is used instead.
func (g *GoogleProvider) httpClient() *http.Client {
	if g.client != nil {
		return g.client
	}
	timeout := g.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// userPrompt frames the document for the model.
func userPrompt(req Request) string {
	return fmt.Sprintf("File: %s\n\n%s", req.RelPath, req.Content)
}

// ---------------------------------------------------------------------------
// Request / response wire format
// ---------------------------------------------------------------------------

// buildGeminiRequest builds a generateContent request body.
func buildGeminiRequest(systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	type genConfig struct {
		Temperature float64 `json:"temperature"`
	}
	req := struct {
		Contents          []content `json:"contents"`
		GenerationConfig  genConfig `json:"generationConfig"`
		SystemInstruction *content  `json:"systemInstruction,omitempty"`
	}{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userPrompt}}},
		},
		GenerationConfig: genConfig{Temperature: temperature},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	return json.Marshal(req)
}

// extractGeminiText pulls candidates[0].content.parts[0].text out of a
// generateContent response.
func extractGeminiText(body []byte) (string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	if errObj, ok := raw["error"]; ok {
		if errMap, ok := errObj.(map[string]any); ok {
			if msg, ok := errMap["message"].(string); ok {
				return "", fmt.Errorf("API error: %s", msg)
			}
		}
		return "", fmt.Errorf("API error: %v", errObj)
	}

	if candidates, ok := raw["candidates"].([]any); ok && len(candidates) > 0 {
		if candidate, ok := candidates[0].(map[string]any); ok {
			if content, ok := candidate["content"].(map[string]any); ok {
				if parts, ok := content["parts"].([]any); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]any); ok {
						if text, ok := part["text"].(string); ok {
							return text, nil
						}
					}
				}
			}
		}
	}

	return "", fmt.Errorf("could not extract text from response: %s", truncate(body, 500))
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
