// Package openai extracts scheduling intents with the OpenAI chat completions
// API. It is the last resort after the regex grammar.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

const (
	Source         = "openai"
	DefaultModel   = "gpt-4o-mini"
	DefaultBaseURL = "https://api.openai.com/v1"
)

var (
	ErrMissingAPIKey = errors.New("openai: api key not configured")
	ErrEmptyChoice   = errors.New("openai: response has no choices")
)

var advancedRe = regexp.MustCompile(`(?i)\badvanced\b`)

type Extractor struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewExtractor(apiKey, model, baseURL string, timeout time.Duration) *Extractor {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Extractor{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Extract always answers. Transport and decoding failures produce an unknown
// record carrying the error text.
func (e *Extractor) Extract(ctx context.Context, text string) (domain.Record, bool) {
	rec, err := e.extract(ctx, PreNormalize(text))
	if err != nil {
		rec = domain.UnknownRecord(text, Source)
		rec.Error = err.Error()
		return rec, true
	}
	return rec, true
}

func (e *Extractor) extract(ctx context.Context, text string) (domain.Record, error) {
	if e.apiKey == "" {
		return domain.Record{}, ErrMissingAPIKey
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature:    0,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return domain.Record{}, fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return domain.Record{}, fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return domain.Record{}, fmt.Errorf("openai: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Record{}, fmt.Errorf("openai: read response: %w", err)
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.Record{}, fmt.Errorf("openai: unmarshal response: %w", err)
	}
	if result.Error != nil {
		return domain.Record{}, fmt.Errorf("openai: %s: %s", result.Error.Type, result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Record{}, fmt.Errorf("openai: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if len(result.Choices) == 0 {
		return domain.Record{}, ErrEmptyChoice
	}

	return parseContent(result.Choices[0].Message.Content, text)
}

// parseContent decodes the model's JSON object and fills missing keys.
func parseContent(content, raw string) (domain.Record, error) {
	var rec domain.Record
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return domain.Record{}, fmt.Errorf("openai: decode intent: %w", err)
	}

	if rec.Intent == "" {
		rec.Intent = domain.IntentUnknown
	}
	rec.OrderID = strings.ToUpper(strings.TrimSpace(rec.OrderID))
	rec.OrderID2 = strings.ToUpper(strings.TrimSpace(rec.OrderID2))
	for _, f := range []*any{&rec.Days, &rec.Hours, &rec.Minutes} {
		if *f == nil {
			*f = json.Number("0")
		}
	}
	rec.Raw = raw
	rec.Source = Source
	rec.Error = ""
	return rec, nil
}

// PreNormalize fixes the common speech-to-text slip of "advanced" for
// "advance", keeping the first letter's case.
func PreNormalize(text string) string {
	return advancedRe.ReplaceAllStringFunc(text, func(word string) string {
		if word[0] >= 'A' && word[0] <= 'Z' {
			return "Advance"
		}
		return "advance"
	})
}
