// Package ai generates optional narrative enrichment for horoscope
// content through an OpenAI-compatible chat completions endpoint.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/astromitra/astromitra/internal/horoscope"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 400
)

// Config describes the chat completions endpoint.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration

	// HTTPClient overrides the default client, primarily for testing.
	HTTPClient *http.Client
}

// Enricher calls the model to narrate raw horoscope content. It
// implements horoscope.Enricher; the cache engine absorbs any error it
// returns, so a model outage can never block horoscope availability.
type Enricher struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	http      *http.Client
}

// NewEnricher constructs the enricher. The token budget and request
// timeout are both bounded so enrichment cannot stall a regeneration.
func NewEnricher(cfg Config) (*Enricher, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("ai enricher: base url is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("ai enricher: api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Enricher{
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: maxTokens,
		http:      httpClient,
	}, nil
}

// Chat completions wire format (OpenAI-compatible).
type chatCompletionRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	Temperature    float64       `json:"temperature,omitempty"`
	ResponseFormat *formatSpec   `json:"response_format,omitempty"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

const systemPrompt = "You are an astrology copywriter. Given raw horoscope data, " +
	"respond with a JSON object containing a \"narrative\" string that retells " +
	"the data as warm, readable prose, and a \"keywords\" array of up to five terms."

// Enrich asks the model for a narrative JSON object. The returned error
// carries the failure reason for logging; callers treat any error as
// "no narrative".
func (e *Enricher) Enrich(ctx context.Context, sign horoscope.Sign, period horoscope.Period, raw json.RawMessage) (json.RawMessage, error) {
	prompt := fmt.Sprintf("Sign: %s\nPeriod: %s\nData: %s", sign.Display(), period, string(raw))

	reqBody := chatCompletionRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:      e.maxTokens,
		Temperature:    0.7,
		ResponseFormat: &formatSpec{Type: "json_object"},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("ai enricher: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ai enricher: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ai enricher: request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("ai enricher: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ai enricher: status %d", resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(data, &completion); err != nil {
		return nil, fmt.Errorf("ai enricher: decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("ai enricher: empty completion")
	}

	narrative := strings.TrimSpace(completion.Choices[0].Message.Content)
	if !json.Valid([]byte(narrative)) {
		return nil, errors.New("ai enricher: model output is not valid json")
	}

	return json.RawMessage(narrative), nil
}
