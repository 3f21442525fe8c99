package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pitlane/internal/config"
)

const permalinkHost = "https://www.reddit.com"

// Post is one submission from the author's listing.
type Post struct {
	ID         string
	Title      string
	Permalink  string
	Author     string
	CreatedUTC time.Time
	Body       string
	BodyHTML   string
}

// Text returns the body the parser should read: the rendered HTML when the
// listing supplied it, otherwise the raw markdown.
func (p Post) Text() string {
	if strings.TrimSpace(p.BodyHTML) != "" {
		return p.BodyHTML
	}
	return p.Body
}

// Page is one listing page. After is empty when the cursor is exhausted.
type Page struct {
	Posts []Post
	After string
}

// Client fetches an author's submitted listing.
type Client struct {
	baseURL    string
	author     string
	userAgent  string
	pageSize   int
	httpClient *http.Client
	creds      *Credentials
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

// WithCredentials replaces the password-grant credential holder.
func WithCredentials(creds *Credentials) Option {
	return func(c *Client) {
		if creds != nil {
			c.creds = creds
		}
	}
}

// New builds a listing client from the [feed] config section.
func New(cfg config.Feed, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("feed base url required")
	}
	if strings.TrimSpace(cfg.Author) == "" {
		return nil, errors.New("feed author required")
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		author:     strings.TrimSpace(cfg.Author),
		userAgent:  cfg.UserAgent,
		pageSize:   cfg.PageSize,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.creds == nil {
		client.creds = NewCredentials(PasswordGrant(PasswordGrantConfig{
			TokenURL:     cfg.AuthURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Username:     cfg.Username,
			Password:     cfg.Password,
			UserAgent:    cfg.UserAgent,
		}, client.httpClient))
	}
	return client, nil
}

// RefreshCredentials forces a new access token.
func (c *Client) RefreshCredentials(ctx context.Context) error {
	return c.creds.Refresh(ctx)
}

// ListPage fetches the page after cursor; an empty cursor is the newest page.
func (c *Client) ListPage(ctx context.Context, after string) (*Page, error) {
	token, err := c.creds.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	path := "/user/" + url.PathEscape(c.author) + "/submitted"
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}
	params := url.Values{}
	if c.pageSize > 0 {
		params.Set("limit", strconv.Itoa(c.pageSize))
	}
	if after != "" {
		params.Set("after", after)
	}
	params.Set("raw_json", "1")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("fetch feed page (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.creds.Invalidate()
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{StatusCode: resp.StatusCode, Endpoint: path}
	}

	var payload listing
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode feed page: %w", err)
	}
	return payload.page(), nil
}

type listing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string   `json:"kind"`
			Data postData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type postData struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Permalink    string  `json:"permalink"`
	Author       string  `json:"author"`
	CreatedUTC   float64 `json:"created_utc"`
	Selftext     string  `json:"selftext"`
	SelftextHTML string  `json:"selftext_html"`
}

func (l listing) page() *Page {
	page := &Page{After: l.Data.After}
	for _, child := range l.Data.Children {
		if child.Kind != "" && child.Kind != "t3" {
			continue
		}
		d := child.Data
		if d.ID == "" {
			continue
		}
		permalink := d.Permalink
		if strings.HasPrefix(permalink, "/") {
			permalink = permalinkHost + permalink
		}
		sec, frac := math.Modf(d.CreatedUTC)
		page.Posts = append(page.Posts, Post{
			ID:         d.ID,
			Title:      d.Title,
			Permalink:  permalink,
			Author:     d.Author,
			CreatedUTC: time.Unix(int64(sec), int64(frac*1e9)).UTC(),
			Body:       d.Selftext,
			BodyHTML:   d.SelftextHTML,
		})
	}
	return page
}
