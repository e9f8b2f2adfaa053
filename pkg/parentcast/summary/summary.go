// Package summary generates Good/Bad/Ugly/Lesson summaries of entry
// transcripts through an OpenAI-compatible chat-completions endpoint.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/parentcast/parentcast/pkg/parentcast"
)

// MinTranscriptLength is the minimum transcript size accepted before any
// external call is made.
const MinTranscriptLength = 10

const systemPrompt = "You summarize short parent audio transcripts as four bullets: " +
	"Good (what worked), Bad (what could be improved), " +
	"Ugly (harsh/frictional moments), Lesson (actionable takeaway). " +
	"Return strict JSON with keys: good, bad, ugly, lesson. Keep each to 1-2 sentences."

// fallback is returned when the model's output does not parse as JSON; the
// request still succeeds.
var fallback = parentcast.Summary{
	Good:   "Clear positive point identified.",
	Bad:    "A specific area to improve was mentioned.",
	Ugly:   "One friction point was surfaced.",
	Lesson: "There is a concise, actionable takeaway.",
}

// mockResponse is the canned result served when mock mode is enabled.
var mockResponse = parentcast.Summary{
	Good:   "Clear message of support and gratitude.",
	Bad:    "Some rambling; a few repeated points.",
	Ugly:   "Background noise reduces clarity in places.",
	Lesson: "Keep it concise; capture one story per entry.",
}

// Config options for the summary client.
type Config struct {
	BaseURL string // OpenAI-compatible API base URL
	APIKey  string
	Model   string // default: gpt-4o-mini
	Mock    bool   // skip the external call and return a canned response
}

// Client calls the completion API. It holds no per-request state and is safe
// for concurrent use.
type Client struct {
	http   *resty.Client
	config Config
}

// NewClient creates a resty-backed summary client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com"
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	return &Client{
		http: resty.New().
			SetBaseURL(config.BaseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(75 * time.Second),
		config: config,
	}
}

// Configured reports whether the client can reach the external API.
func (c *Client) Configured() bool {
	return c.config.Mock || c.config.APIKey != ""
}

// chatMessage and friends mirror the OpenAI-compatible request shape.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate validates the transcript and produces its summary. A transcript
// shorter than MinTranscriptLength fails with ErrValidationFailed before the
// API is contacted; an unparseable model reply degrades to the fixed
// fallback summary rather than failing.
func (c *Client) Generate(ctx context.Context, transcript string) (*parentcast.Summary, error) {
	if len(strings.TrimSpace(transcript)) < MinTranscriptLength {
		return nil, fmt.Errorf("%w: transcript must be at least %d characters",
			parentcast.ErrValidationFailed, MinTranscriptLength)
	}

	if c.config.Mock {
		result := mockResponse
		return &result, nil
	}

	if c.config.APIKey == "" {
		return nil, fmt.Errorf("%w: api key not configured", parentcast.ErrSummaryUnavailable)
	}

	temperature := 0.2
	maxTokens := 400
	req := chatCompletionRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Transcript:\n" + transcript + "\n\nReturn JSON only."},
		},
		Temperature:    &temperature,
		MaxTokens:      &maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var completion chatCompletionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.config.APIKey).
		SetBody(req).
		SetResult(&completion).
		Post("/v1/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", parentcast.ErrSummaryUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: completion api returned %d", parentcast.ErrSummaryUnavailable, resp.StatusCode())
	}

	content := "{}"
	if len(completion.Choices) > 0 {
		content = completion.Choices[0].Message.Content
	}

	var parsed parentcast.Summary
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		// Guard against malformed model output.
		result := fallback
		return &result, nil
	}
	return &parsed, nil
}
