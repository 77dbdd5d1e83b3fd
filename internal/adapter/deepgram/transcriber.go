// Package deepgram turns recorded commands into text with the Deepgram
// pre-recorded audio API.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultModel    = "nova-2"
	DefaultLanguage = "en"
	DefaultBaseURL  = "https://api.deepgram.com/v1"
	DefaultTimeout  = 45 * time.Second

	maxErrorBody = 512
)

var (
	ErrMissingCredentials = errors.New("deepgram: api key not configured")
	ErrNoTranscript       = errors.New("deepgram: no transcript in response")
)

// UpstreamError is a non-2xx answer from Deepgram.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("deepgram: status %d: %s", e.StatusCode, e.Body)
}

type Transcriber struct {
	apiKey     string
	model      string
	language   string
	baseURL    string
	httpClient *http.Client
}

func NewTranscriber(apiKey, model, language, baseURL string, timeout time.Duration) *Transcriber {
	if model == "" {
		model = DefaultModel
	}
	if language == "" {
		language = DefaultLanguage
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Transcriber{
		apiKey:     apiKey,
		model:      model,
		language:   language,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type listenResponse struct {
	Results *struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe returns the trimmed transcript of the first alternative of the
// first channel. An empty transcript is not an error.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimetype string) (string, error) {
	if t.apiKey == "" {
		return "", ErrMissingCredentials
	}
	if mimetype == "" {
		mimetype = "audio/wav"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.listenURL(), bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("deepgram: create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+t.apiKey)
	req.Header.Set("Content-Type", mimetype)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepgram: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("deepgram: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: msg}
	}

	var result listenResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("deepgram: unmarshal response: %w", err)
	}

	if result.Results == nil || len(result.Results.Channels) == 0 || len(result.Results.Channels[0].Alternatives) == 0 {
		return "", ErrNoTranscript
	}

	return strings.TrimSpace(result.Results.Channels[0].Alternatives[0].Transcript), nil
}

func (t *Transcriber) listenURL() string {
	q := url.Values{}
	q.Set("model", t.model)
	q.Set("smart_format", "true")
	q.Set("language", t.language)
	return t.baseURL + "/listen?" + q.Encode()
}
