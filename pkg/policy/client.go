// Package policy retrieves campus policy passages from the policy search
// service. Hotspot analysis attaches the passages to the report so
// recommendations can cite the university's own standards.
package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/campuswatch/internal/resilience"
)

const (
	defaultTopK    = 3
	defaultTimeout = 30 * time.Second
)

// searchRequest is the request body for POST /search.
type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// searchResponse is the response from POST /search.
type searchResponse struct {
	Results []passage `json:"results"`
}

// passage is a single retrieved policy excerpt.
type passage struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Option configures the client.
type Option func(*Client)

// WithTopK overrides how many passages a query retrieves.
func WithTopK(k int) Option {
	return func(c *Client) {
		c.topK = k
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client queries the policy search service. It satisfies the analyzer's
// policy context provider.
type Client struct {
	baseURL string
	topK    int
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a policy search client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		topK:    defaultTopK,
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.CollaboratorRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("policy", "search")
	for _, o := range opts {
		o(c)
	}
	return c
}

// Context retrieves policy passages for the query and joins them into a
// single block of text. Transient service failures are retried.
func (c *Client) Context(ctx context.Context, query string) (string, error) {
	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*searchResponse, error) {
		return c.search(ctx, query)
	})
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(resp.Results))
	for _, p := range resp.Results {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		if p.Source != "" {
			parts = append(parts, fmt.Sprintf("[%s] %s", p.Source, text))
		} else {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func (c *Client) search(ctx context.Context, query string) (*searchResponse, error) {
	body, err := json.Marshal(searchRequest{Query: query, TopK: c.topK})
	if err != nil {
		return nil, eris.Wrap(err, "policy: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "policy: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "policy: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "policy: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("policy: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "policy: unmarshal response")
	}

	return &result, nil
}
