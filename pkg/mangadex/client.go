package mangadex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const apiBaseURL = "https://api.mangadex.org"

// Proactive pacing below the API's documented 5 req/s global limit, applied
// before every request. Separate from the reactive 429 cooldown.
const (
	rateLimitRequests = 5
	rateLimitInterval = time.Second
)

// Options configures a Client. The zero value gives production defaults.
type Options struct {
	// BaseURL replaces the live API base, used by tests.
	BaseURL string
	// Language is the preferred translation language code (default "en").
	Language string
	// HTTPClient replaces http.DefaultClient.
	HTTPClient *http.Client
	// Clock drives cooldown waits; tests inject a fake.
	Clock Clock
	// OnCooldown observes rate-limit cooldown progress.
	OnCooldown CooldownFunc
}

// Client talks to the MangaDex API and its page-serving CDNs. All requests are
// GETs carrying a truthful User-Agent; a 429 on the first attempt triggers one
// cooldown cycle and exactly one retry, whose response is returned as-is.
type Client struct {
	http      *http.Client
	baseURL   string
	lang      string
	userAgent string
	pacer     *rate.Limiter
	limiter   *RateLimiter
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = apiBaseURL
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	host, _ := os.Hostname()
	return &Client{
		http:      opts.HTTPClient,
		baseURL:   opts.BaseURL,
		lang:      opts.Language,
		userAgent: fmt.Sprintf("mdex/1.0 (%s; %s) %s/%s", runtime.GOOS, runtime.Version(), runtime.GOARCH, host),
		pacer:     rate.NewLimiter(rate.Every(rateLimitInterval/rateLimitRequests), rateLimitRequests),
		limiter:   NewRateLimiter(opts.Clock, opts.OnCooldown),
	}
}

// Language returns the preferred translation language code.
func (c *Client) Language() string { return c.lang }

// Get issues a GET against the API base (or overrideURL when non-empty, for
// CDN fetches). A 429 first response runs one cooldown cycle and re-issues the
// identical request once; the second response is returned whatever its status.
// Interpreting any other status is the caller's job.
func (c *Client) Get(endpoint string, params url.Values, overrideURL string) (*http.Response, error) {
	base := c.baseURL
	if overrideURL != "" {
		base = overrideURL
	}
	fullURL := strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(endpoint, "/")
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	resp, err := c.do(fullURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		c.limiter.Cooldown(endpoint)
		return c.do(fullURL)
	}
	return resp, nil
}

func (c *Client) do(fullURL string) (*http.Response, error) {
	if err := c.pacer.Wait(context.Background()); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}
	req, err := http.NewRequest(http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// getJSON issues a Get and unpacks the enveloped JSON body into v.
func (c *Client) getJSON(endpoint string, params url.Values, v any) error {
	resp, err := c.Get(endpoint, params, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	return decodeBody(body, v)
}
