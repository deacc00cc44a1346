package engine

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	URL        string
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// StatusError reports a non-2xx response. Callers wrap it so retry logic can
// classify the status with errors.As.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Client is the transport used by sources: GET and POST with followed
// redirects, returning the raw body and status. It never retries and never
// interprets the status; a non-2xx response is returned, not an error.
type Client struct {
	http      *http.Client
	browser   *BrowserClient
	limiter   *rate.Limiter
	maxBody   int64
	timeout   time.Duration
	userAgent string
}

// NewClient builds a transport from c.
func NewClient(c Config) *Client {
	hc := c.HTTPClient
	if hc == nil {
		hc = newFetchClient()
	}
	cl := &Client{
		http:      hc,
		browser:   c.BrowserClient,
		maxBody:   c.MaxBodyBytes,
		timeout:   c.FetchTimeout,
		userAgent: c.UserAgent,
	}
	if cl.maxBody <= 0 {
		cl.maxBody = DefaultMaxBodyBytes
	}
	if c.RequestsPerSecond > 0 {
		cl.limiter = rate.NewLimiter(rate.Limit(c.RequestsPerSecond), 1)
	}
	return cl
}

// newFetchClient creates an HTTP client with proper settings for page fetches.
func newFetchClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 15 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return nil
		},
	}
}

// Get fetches url. headers override the defaults.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, headers, nil)
}

// Post sends body to url.
func (c *Client) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, headers, body)
}

func (c *Client) do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*Response, error) {
	metrics.FetchRequests.Add(1)
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var (
		resp *Response
		err  error
	)
	if c.browser != nil {
		resp, err = c.doBrowser(method, url, headers, body)
	} else {
		resp, err = c.doHTTP(ctx, method, url, headers, body)
	}
	if err != nil {
		metrics.FetchErrors.Add(1)
		return nil, err
	}
	return resp, nil
}

func (c *Client) doHTTP(ctx context.Context, method, url string, headers map[string]string, body []byte) (*Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.agent())
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readResponseBody(resp, c.maxBody)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data, URL: resp.Request.URL.String()}, nil
}

func (c *Client) doBrowser(method, url string, headers map[string]string, body []byte) (*Response, error) {
	h := ChromeHeaders()
	if c.userAgent != "" {
		h["user-agent"] = c.userAgent
	}
	for k, v := range headers {
		h[k] = v
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	data, _, status, err := c.browser.Do(method, url, h, rd)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxBody {
		data = data[:c.maxBody]
	}
	return &Response{StatusCode: status, Body: data, URL: url}, nil
}

func (c *Client) agent() string {
	if c.userAgent != "" {
		return c.userAgent
	}
	return RandomUserAgent()
}

// readResponseBody reads at most limit bytes, handling gzip decompression if needed.
func readResponseBody(resp *http.Response, limit int64) ([]byte, error) {
	var r io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(io.LimitReader(r, limit))
}
