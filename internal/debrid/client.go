package debrid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client calls the Real-Debrid REST API with a bearer token.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit paces requests to perMinute. Zero or negative disables
// pacing.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

// New creates a Real-Debrid client.
func New(token, baseURL string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("real-debrid api token required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("real-debrid base url required")
	}
	client := &Client{
		token:      token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// User returns the account the token belongs to.
func (c *Client) User(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListTorrents returns one page of the account's torrents, newest first.
// Pages start at 1; a page past the end comes back empty.
func (c *Client) ListTorrents(ctx context.Context, page, limit int) ([]Torrent, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := "/torrents"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var torrents []Torrent
	if err := c.do(ctx, http.MethodGet, path, nil, &torrents); err != nil {
		return nil, err
	}
	return torrents, nil
}

// AddMagnet submits a magnet reference and returns the new torrent id.
func (c *Client) AddMagnet(ctx context.Context, magnet string) (*AddMagnetResponse, error) {
	magnet = strings.TrimSpace(magnet)
	if magnet == "" {
		return nil, errors.New("magnet must not be empty")
	}
	form := url.Values{}
	form.Set("magnet", magnet)
	var payload AddMagnetResponse
	if err := c.do(ctx, http.MethodPost, "/torrents/addMagnet", form, &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		return nil, errors.New("real-debrid addMagnet returned no torrent id")
	}
	return &payload, nil
}

// SelectFiles selects every file of a torrent for download.
func (c *Client) SelectFiles(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("torrent id must not be empty")
	}
	form := url.Values{}
	form.Set("files", "all")
	return c.do(ctx, http.MethodPost, "/torrents/selectFiles/"+url.PathEscape(id), form, nil)
}

// TorrentInfo returns the current state of a torrent.
func (c *Client) TorrentInfo(ctx context.Context, id string) (*Torrent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("torrent id must not be empty")
	}
	var torrent Torrent
	if err := c.do(ctx, http.MethodGet, "/torrents/info/"+url.PathEscape(id), nil, &torrent); err != nil {
		return nil, err
	}
	return &torrent, nil
}

// Unrestrict converts a hoster link into a direct download link.
func (c *Client) Unrestrict(ctx context.Context, link string) (*UnrestrictedLink, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, errors.New("link must not be empty")
	}
	form := url.Values{}
	form.Set("link", link)
	var payload UnrestrictedLink
	if err := c.do(ctx, http.MethodPost, "/unrestrict/link", form, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("real-debrid %s (latency=%v): %w", path, latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Endpoint: path}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode real-debrid %s response: %w", path, err)
	}
	return nil
}
