// Package content is the HTTP client of the site's content API.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"archway-web/internal/logger"
)

const DefaultTimeout = 10 * time.Second

// Client talks to the content API. Every read takes the locale code sent as
// the lang query parameter; the API answers with text in that language.
type Client struct {
	BaseURL string

	httpClient *http.Client
	lggr       logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithLogger(lggr logger.Logger) Option {
	return func(c *Client) { c.lggr = lggr }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		lggr:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lggr = c.lggr.Named("content")
	return c
}

// sendRequest performs one API call and returns the response body and status.
// Statuses of 400 and above are returned as *APIError.
func (c *Client) sendRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, int, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.lggr.Warnw("Content API request failed", "method", method, "path", path, "err", err)
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s %s: reading body: %w", method, path, err)
	}

	c.lggr.Debugw("Content API request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= 400 {
		return respBody, resp.StatusCode, newAPIError(method, path, resp.StatusCode, respBody)
	}

	return respBody, resp.StatusCode, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, _, err := c.sendRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("GET %s: decoding response: %w", path, err)
	}
	return nil
}

func langQuery(lang string) url.Values {
	if lang == "" {
		lang = "en"
	}
	return url.Values{"lang": {lang}}
}

// PageParam extracts the page query parameter from a list's next link.
// It reports false when next is empty or carries no usable page number.
func PageParam(next string) (int, bool) {
	if next == "" {
		return 0, false
	}
	u, err := url.Parse(next)
	if err != nil {
		return 0, false
	}
	page, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil || page <= 0 {
		return 0, false
	}
	return page, true
}
