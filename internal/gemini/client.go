// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gemini calls the Google Gemini generateContent API. The
// summarizer, the query generator, and the relevance filter all go through
// this one client.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/research-radar/internal/httputil"
	"github.com/pdiddy/research-radar/pkg/types"
)

// geminiAPIBase is the Gemini API root. Package-level var for test
// substitution with an httptest server.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// TextGenerator is the single-call surface the pipeline stages depend on.
// Tests supply fakes; production uses *Client.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client is a Gemini API client for one model configuration.
type Client struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
	// Temperature and MaxTokens are passed through to generationConfig.
	Temperature float64
	MaxTokens   int
}

// NewClient builds a Client from an AI configuration block.
func NewClient(httpClient *http.Client, cfg types.AIConfig) *Client {
	return &Client{
		HTTPClient:  httpClient,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}

// generateRequest is the request body for the generateContent endpoint.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

// generateResponse is the response body from the generateContent endpoint.
type generateResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

// Generate sends one prompt and returns the generated text. A prompt or
// candidate blocked by content-safety filtering is an error, not an empty
// string, so callers can log and skip the paper.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("gemini API key is not configured (set GEMINI_API_KEY)")
	}

	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature:     c.Temperature,
			MaxOutputTokens: c.MaxTokens,
			TopP:            0.95,
			TopK:            40,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	// The key goes in a header, never the URL: transport errors echo the
	// full URL and those errors end up in run diagnostics.
	url := fmt.Sprintf("%s/models/%s:generateContent", geminiAPIBase, c.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := httputil.DoWithRetry(ctx, c.HTTPClient, req, 0)
	if err != nil {
		return "", fmt.Errorf("Gemini API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Error bodies are short JSON blobs; include a bounded slice for
		// the diagnostic.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("Gemini API returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("parsing Gemini response: %w", err)
	}

	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked by content safety filter: %s", gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("Gemini returned no candidates")
	}

	cand := gr.Candidates[0]
	if cand.FinishReason == "SAFETY" {
		return "", fmt.Errorf("response blocked by content safety filter")
	}

	var text string
	for _, p := range cand.Content.Parts {
		text += p.Text
	}
	if text == "" {
		return "", fmt.Errorf("Gemini returned an empty response")
	}
	return text, nil
}
