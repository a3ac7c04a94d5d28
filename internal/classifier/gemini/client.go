// Package gemini wraps the Google Gen AI SDK for the two remote capabilities
// the app uses: classifying a snippet (classifier.Remote) and rewriting a
// snippet to look more polished (the Improve call). Both are single
// generateContent round trips with no retries.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/sakif/html-scratchpad/internal/classifier"
	"github.com/sakif/html-scratchpad/internal/model"
)

const (
	DefaultModel = "gemini-3-flash-preview"

	// MaxPromptCode caps how much of a snippet is sent for classification.
	MaxPromptCode = 3000

	defaultTimeout = 30 * time.Second
)

// Compile-time check: *Client can stand in as the classifier's remote.
var _ classifier.Remote = (*Client)(nil)

// ErrEmptyResponse is returned when the API answers without any text.
var ErrEmptyResponse = errors.New("gemini: empty response")

// Client generates content with one model. The zero value is not usable;
// call New.
type Client struct {
	genai *genai.Client
	model string
}

type settings struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*settings)

// WithBaseURL points the client at another host (tests use httptest).
func WithBaseURL(u string) Option {
	return func(s *settings) { s.baseURL = u }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// New creates a client for the Gemini API. An empty model selects
// DefaultModel. No request is made until the first call.
func New(ctx context.Context, apiKey, modelName string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	st := settings{httpClient: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(&st)
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  st.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: st.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Client{genai: gc, model: modelName}, nil
}

var (
	jsonFenceRe = regexp.MustCompile("^```(?:json)?\\n?")
	htmlFenceRe = regexp.MustCompile("^```html\\n?")
	closeFence  = regexp.MustCompile("\\n?```$")
)

// Classify asks the model for a category, tags and difficulty.
//
// The returned value is decoded but NOT validated against the enumerations;
// classifier.Classifier does that and falls back on a bad answer.
func (c *Client) Classify(ctx context.Context, code string) (model.Classification, error) {
	text, err := c.generate(ctx, classifyPrompt(code))
	if err != nil {
		return model.Classification{}, err
	}

	cleaned := strings.TrimSpace(text)
	cleaned = jsonFenceRe.ReplaceAllString(cleaned, "")
	cleaned = closeFence.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	var raw struct {
		Category   string `json:"category"`
		Tags       []any  `json:"tags"`
		Difficulty string `json:"difficulty"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return model.Classification{}, fmt.Errorf("gemini: decode classification: %w", err)
	}

	tags := make([]string, 0, len(raw.Tags))
	for _, t := range raw.Tags {
		if t == nil {
			continue
		}
		tags = append(tags, fmt.Sprint(t))
	}

	return model.Classification{
		Category:   model.Category(raw.Category),
		Tags:       tags,
		Difficulty: model.Difficulty(raw.Difficulty),
	}, nil
}

// Improve asks the model to restyle code and returns the rewritten document.
// Markdown html fences around the answer are removed.
func (c *Client) Improve(ctx context.Context, code string) (string, error) {
	text, err := c.generate(ctx, improvePrompt(code))
	if err != nil {
		return "", err
	}
	out := htmlFenceRe.ReplaceAllString(text, "")
	out = closeFence.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func classifyPrompt(code string) string {
	names := make([]string, 0, len(model.Categories()))
	for _, cat := range model.Categories() {
		names = append(names, string(cat))
	}

	var b strings.Builder
	b.WriteString("Analyze this HTML/CSS/JS code and return a JSON object with exactly these fields:\n")
	fmt.Fprintf(&b, "- \"category\": one of [%s]\n", strings.Join(names, ", "))
	b.WriteString("- \"tags\": array of 2-5 short descriptive tags (e.g. \"flexbox\", \"dark-theme\", \"canvas\", \"responsive\")\n")
	b.WriteString("- \"difficulty\": one of [\"beginner\", \"intermediate\", \"advanced\"]\n\n")
	b.WriteString("Return ONLY valid JSON. No markdown, no explanation.\n\nCode:\n")
	b.WriteString(truncateRunes(code, MaxPromptCode))
	return b.String()
}

func improvePrompt(code string) string {
	return "Improve the following HTML/CSS code to make it look professional, modern, and aesthetic. " +
		"Return ONLY the complete HTML code block. Do not include markdown formatting or explanations.\n\nCode:\n" +
		code
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// generate performs one generateContent call and returns the response text.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
