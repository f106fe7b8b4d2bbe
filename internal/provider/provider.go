// Package provider talks to OpenAI-compatible chat completion endpoints.
package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NikitaCOEUR/fimcache/internal/derrors"
	"github.com/NikitaCOEUR/fimcache/pkg/version"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultTimeout bounds one provider call, retries included
const DefaultTimeout = 15 * time.Second

// maxResponseSize caps the body read from a non-streamed response
const maxResponseSize = 4 << 20

// FinishReason tells why a provider stopped generating
type FinishReason string

const (
	FinishStop                       FinishReason = "stop"
	FinishLength                     FinishReason = "length"
	FinishContentFilter              FinishReason = "content_filter"
	FinishInsufficientSystemResource FinishReason = "insufficient_system_resource"
)

// Config describes one provider endpoint
type Config struct {
	Name     string        `json:"name"`
	Kind     Kind          `json:"kind"`
	URL      string        `json:"url"`
	Model    string        `json:"model"`
	Key      string        `json:"-"`
	Timeout  time.Duration `json:"timeout"`
	Stream   bool          `json:"stream"`
	Sampling Sampling      `json:"sampling"`
}

// ID names the provider in outcomes and logs
func (c Config) ID() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Model
}

// Configured reports whether every field needed for a request is set
func (c Config) Configured() bool {
	return c.URL != "" && c.Model != "" && c.Kind != "" && c.Key != ""
}

// Missing lists the required fields left empty
func (c Config) Missing() []string {
	var missing []string
	if c.URL == "" {
		missing = append(missing, "url")
	}
	if c.Model == "" {
		missing = append(missing, "model")
	}
	if c.Kind == "" {
		missing = append(missing, "kind")
	}
	if c.Key == "" {
		missing = append(missing, "key")
	}
	return missing
}

// Result is the output of one provider call
type Result struct {
	Provider      string
	Completions   []string
	FinishReasons []FinishReason
}

// Client sends completion requests
type Client struct {
	transport *transport
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.transport.http = hc }
}

// WithRetry sets how many times a 429 or 5xx response is retried and the
// first backoff delay
func WithRetry(retries int, backoff time.Duration) Option {
	return func(c *Client) {
		c.transport.retries = retries
		c.transport.baseBackoff = backoff
	}
}

// NewClient creates a client
func NewClient(opts ...Option) *Client {
	c := &Client{transport: newTransport()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends prompt as a single system message to the provider of cfg.
// The caller bounds the call with ctx.
func (c *Client) Complete(ctx context.Context, cfg Config, prompt string) (*Result, error) {
	if !cfg.Configured() {
		return nil, derrors.NewConfigurationError(cfg.ID(),
			fmt.Sprintf("provider %q is missing %s", cfg.ID(), strings.Join(cfg.Missing(), ", ")), nil)
	}
	if err := validateURL(cfg.URL); err != nil {
		return nil, derrors.NewConfigurationError(cfg.ID(), "invalid provider url", err)
	}

	body, err := buildPayload(cfg, prompt)
	if err != nil {
		return nil, derrors.NewTransportError(cfg.ID(), 0, "failed to encode request", err)
	}

	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + cfg.Key,
		"User-Agent":    version.UserAgent(),
	}
	if cfg.Stream {
		headers["Accept"] = "text/event-stream"
	}

	resp, err := c.transport.post(ctx, cfg.URL, headers, body)
	if err != nil {
		return nil, derrors.NewTransportError(cfg.ID(), 0, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, derrors.NewTransportError(cfg.ID(), resp.StatusCode,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	var result *Result
	if cfg.Stream {
		result, err = readStream(resp.Body)
	} else {
		result, err = readResponse(resp.Body)
	}
	if err != nil {
		return nil, derrors.NewTransportError(cfg.ID(), resp.StatusCode, "failed to read response", err)
	}
	result.Provider = cfg.ID()

	if len(result.Completions) == 0 {
		return result, derrors.NewEmptyResultError(cfg.ID(), "provider returned no completion")
	}
	return result, nil
}

// buildPayload encodes the chat request for cfg
func buildPayload(cfg Config, prompt string) ([]byte, error) {
	s := cfg.Sampling
	fields := []struct {
		path  string
		value any
	}{
		{"model", cfg.Model},
		{"messages.0.role", "system"},
		{"messages.0.content", prompt},
		{"max_tokens", s.MaxTokens},
		{"temperature", s.Temperature},
		{"top_p", s.TopP},
		{"frequency_penalty", s.FrequencyPenalty},
		{"n", s.N},
		{"stream", cfg.Stream},
	}

	body := []byte(`{}`)
	var err error
	for _, f := range fields {
		if body, err = sjson.SetBytes(body, f.path, f.value); err != nil {
			return nil, fmt.Errorf("set %s: %w", f.path, err)
		}
	}
	if len(s.Stop) > 0 {
		body, err = sjson.SetBytes(body, "stop", s.Stop)
	} else {
		body, err = sjson.SetRawBytes(body, "stop", []byte("null"))
	}
	if err != nil {
		return nil, fmt.Errorf("set stop: %w", err)
	}
	return body, nil
}

func readResponse(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxResponseSize {
		return nil, fmt.Errorf("response too large: exceeds %d bytes", maxResponseSize)
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("response is not valid JSON")
	}

	parsed := gjson.ParseBytes(data)
	if msg := parsed.Get("error.message"); msg.Exists() {
		return nil, fmt.Errorf("provider error: %s", msg.String())
	}

	result := &Result{}
	for _, choice := range parsed.Get("choices").Array() {
		content := choice.Get("message.content")
		if content.Type != gjson.String {
			continue
		}
		result.Completions = append(result.Completions, content.String())
		result.FinishReasons = append(result.FinishReasons, FinishReason(choice.Get("finish_reason").String()))
	}
	return result, nil
}

// readStream assembles the deltas of a streamed response, one completion
// per choice index
func readStream(r io.Reader) (*Result, error) {
	reader := newSSEReader(r)
	var order []int64
	texts := map[int64]*strings.Builder{}
	reasons := map[int64]FinishReason{}

	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if ev.Data == "[DONE]" {
			break
		}
		if !gjson.Valid(ev.Data) {
			return nil, fmt.Errorf("invalid stream chunk: %q", ev.Data)
		}

		for _, choice := range gjson.Get(ev.Data, "choices").Array() {
			idx := choice.Get("index").Int()
			b, ok := texts[idx]
			if !ok {
				b = &strings.Builder{}
				texts[idx] = b
				order = append(order, idx)
			}
			b.WriteString(choice.Get("delta.content").String())
			if reason := choice.Get("finish_reason"); reason.Type == gjson.String {
				reasons[idx] = FinishReason(reason.String())
			}
		}
	}

	result := &Result{}
	for _, idx := range order {
		result.Completions = append(result.Completions, texts[idx].String())
		result.FinishReasons = append(result.FinishReasons, reasons[idx])
	}
	return result, nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL must use HTTP or HTTPS scheme, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// bodyReader returns a fresh reader over body for each attempt
func bodyReader(body []byte) io.Reader {
	return bytes.NewReader(body)
}
