// Ollama client for ATC response generation.
//
// Talks to the local Ollama HTTP endpoint: /api/tags as a liveness
// probe, /api/generate for single-shot and streaming generation.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultURL is the standard local Ollama endpoint.
	DefaultURL = "http://localhost:11434"
	// DefaultModel balances latency and phraseology quality on local hardware.
	DefaultModel = "llama3.2:3b"

	// Liveness checks must be snappy; generation may legitimately take longer.
	probeTimeout    = 2 * time.Second
	generateTimeout = 30 * time.Second
)

// ErrUnavailable reports that Ollama is not running, unreachable, or
// answered with a non-success status.
var ErrUnavailable = errors.New("ollama not available")

// Options are the generation parameters sent with every request.
type Options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

// DefaultOptions biases toward deterministic phrasing for ATC realism.
func DefaultOptions() Options {
	return Options{Temperature: 0.7, NumPredict: 256}
}

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options Options `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Client issues requests against one Ollama endpoint and model.
type Client struct {
	httpc   *http.Client
	baseURL string
	model   string
	opts    Options
}

// NewClient creates a client. Empty baseURL or model fall back to defaults.
func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		httpc:   &http.Client{Timeout: generateTimeout},
		baseURL: baseURL,
		model:   model,
		opts:    DefaultOptions(),
	}
}

// SetOptions overrides the generation parameters.
func (c *Client) SetOptions(opts Options) {
	c.opts = opts
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Available probes the endpoint with a short timeout.
func (c *Client) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 400
}

// Generate performs a non-streaming generation request.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.post(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return out.Response, nil
}

// post sends a generate request and maps connection or status failures
// onto ErrUnavailable. The caller owns the response body.
func (c *Client) post(ctx context.Context, prompt string, stream bool) (*http.Response, error) {
	body, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  stream,
		Options: c.opts,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return resp, nil
}
