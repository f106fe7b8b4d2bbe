// Package retrieval queries an external similar-code search service
// (RLCoder protocol) for snippets that enrich the completion prompt.
package retrieval

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/NikitaCOEUR/fimcache/internal/derrors"
	"github.com/NikitaCOEUR/fimcache/pkg/version"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultTimeout bounds one retrieval request
const DefaultTimeout = 5 * time.Second

const maxResponseSize = 2 << 20

// Snippet is a code fragment similar to the text being completed
type Snippet struct {
	Code     string `json:"code_content"`
	FilePath string `json:"file_path"`
	Language string `json:"languages"`
}

// Config configures the retrieval service
type Config struct {
	Enabled bool
	URL     string
	Key     string
	Timeout time.Duration
}

// Client queries the retrieval service
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a client. A zero timeout uses DefaultTimeout.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{cfg: cfg, http: &http.Client{}}
}

// Enabled reports whether queries should be sent at all
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.Enabled && c.cfg.URL != ""
}

// Query returns the snippets most similar to leftContext
func (c *Client) Query(ctx context.Context, leftContext string) ([]Snippet, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := sjson.SetBytes([]byte(`{}`), "key", c.cfg.Key)
	if err == nil {
		body, err = sjson.SetBytes(body, "left_context", leftContext)
	}
	if err != nil {
		return nil, derrors.NewRetrievalError(c.cfg.URL, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, derrors.NewRetrievalError(c.cfg.URL, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, derrors.NewRetrievalError(c.cfg.URL, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, derrors.NewRetrievalError(c.cfg.URL, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, derrors.NewRetrievalError(c.cfg.URL, "failed to read response", err)
	}
	if len(data) > maxResponseSize {
		return nil, derrors.NewRetrievalError(c.cfg.URL, fmt.Sprintf("response too large: exceeds %d bytes", maxResponseSize), nil)
	}

	parsed := gjson.ParseBytes(data)
	if !gjson.ValidBytes(data) || !parsed.IsArray() {
		return nil, derrors.NewRetrievalError(c.cfg.URL, "response is not a JSON array", nil)
	}

	var snippets []Snippet
	for _, item := range parsed.Array() {
		code := item.Get("code_content").String()
		if code == "" {
			continue
		}
		snippets = append(snippets, Snippet{
			Code:     code,
			FilePath: item.Get("file_path").String(),
			Language: item.Get("languages").String(),
		})
	}
	return snippets, nil
}
