package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	geminiDefaultURL     = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"
	geminiTemperature    = 0.2
	geminiDefaultTimeout = 60 * time.Second
)

// StatusError reports a non-2xx response from the completion endpoint. The
// relay surfaces its code and body to the chat instead of retrying.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// Gemini calls the generateContent endpoint with a fixed generation config.
// Each request is independent: no conversation history is kept.
type Gemini struct {
	apiKey string
	url    string
	client *http.Client
	logger *slog.Logger
}

type GeminiConfig struct {
	APIKey  string
	URL     string // endpoint override, used by tests
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewGemini(cfg GeminiConfig) *Gemini {
	if cfg.URL == "" {
		cfg.URL = geminiDefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = geminiDefaultTimeout
	}
	return &Gemini{
		apiKey: cfg.APIKey,
		url:    cfg.URL,
		client: SharedHTTPClient(cfg.Timeout),
		logger: cfg.Logger,
	}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Healthy(ctx context.Context) error {
	if g.apiKey == "" {
		return fmt.Errorf("gemini: no API key configured")
	}
	return nil
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

// Complete sends the rendered prompt and returns the first candidate's first
// text part. A well-formed 2xx response that carries no text (and a 2xx body
// that does not decode at all) yields "" with a nil error; callers substitute
// their own fallback. Non-2xx responses come back as *StatusError.
func (g *Gemini) Complete(ctx context.Context, promptText string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: promptText}}}},
		GenerationConfig: generationConfig{Temperature: geminiTemperature},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("x-goog-api-key", g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	var out geminiResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		// A 2xx body that doesn't decode degrades to empty output, same as
		// a response with missing fields.
		g.logger.Warn("gemini: undecodable response body", "err", err, "len", len(respBody))
		return "", nil
	}

	text := firstText(out)
	g.logger.Info("gemini completion",
		"latency", time.Since(start),
		"prompt_len", len(promptText),
		"response_len", len(text),
	)
	return text, nil
}

// firstText extracts candidates[0].content.parts[0].text, tolerating any
// missing level.
func firstText(resp geminiResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(parts[0].Text)
}
