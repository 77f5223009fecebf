// Package gemini provides a minimal client for the Gemini generateContent
// API with optional Google Search grounding, plus the JSON extraction
// helper used to parse model responses.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-3-pro-preview"
)

// Client issues content-generation requests.
type Client interface {
	GenerateContent(ctx context.Context, req Request) (*Response, error)
}

// Request is one generation call.
type Request struct {
	Prompt         string
	GroundedSearch bool
	Temperature    float64
	MaxTokens      int
}

// Response carries the model text and token usage.
type Response struct {
	Text        string
	TotalTokens int
}

type client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

// Option configures the client.
type Option func(*client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *client) { c.baseURL = u }
}

// WithModel overrides the model name.
func WithModel(m string) Option {
	return func(c *client) { c.model = m }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// NewClient builds a Client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type wireRequest struct {
	Contents         []wireContent `json:"contents"`
	GenerationConfig wireGenConfig `json:"generationConfig"`
	Tools            []wireTool    `json:"tools,omitempty"`
}

type wireContent struct {
	Role  string     `json:"role"`
	Parts []wirePart `json:"parts"`
}

type wirePart struct {
	Text string `json:"text"`
}

type wireGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// The empty googleSearch object must survive marshaling; omitempty would
// drop it and the request would go out ungrounded.
type wireTool struct {
	GoogleSearch map[string]any `json:"googleSearch"`
}

type wireResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (c *client) GenerateContent(ctx context.Context, req Request) (*Response, error) {
	body := wireRequest{
		Contents: []wireContent{{
			Role:  "user",
			Parts: []wirePart{{Text: req.Prompt}},
		}},
		GenerationConfig: wireGenConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.GroundedSearch {
		body.Tools = []wireTool{{GoogleSearch: map[string]any{}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: marshal request")
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: send request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("gemini: unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, eris.Wrap(err, "gemini: decode response")
	}
	if len(wire.Candidates) == 0 || len(wire.Candidates[0].Content.Parts) == 0 {
		return nil, eris.New("gemini: no candidates returned")
	}

	return &Response{
		Text:        wire.Candidates[0].Content.Parts[0].Text,
		TotalTokens: wire.UsageMetadata.TotalTokenCount,
	}, nil
}
