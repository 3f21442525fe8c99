package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// tokenLeeway is how long before expiry a cached token is replaced.
const tokenLeeway = time.Minute

// Exchanger obtains a fresh access token.
type Exchanger func(ctx context.Context) (*oauth2.Token, error)

// Credentials caches an access token and exchanges a new one when it is
// missing, expiring or invalidated. It is safe for concurrent use.
type Credentials struct {
	exchange Exchanger
	now      func() time.Time

	mu    sync.Mutex
	token *oauth2.Token
}

// NewCredentials wraps exchange with an expiring cache.
func NewCredentials(exchange Exchanger) *Credentials {
	return &Credentials{exchange: exchange, now: time.Now}
}

// AccessToken returns a cached token, exchanging a new one when needed.
func (c *Credentials) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.token.AccessToken, nil
	}
	return c.refreshLocked(ctx)
}

// Refresh discards the cached token and exchanges a new one.
func (c *Credentials) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = nil
	_, err := c.refreshLocked(ctx)
	return err
}

// Invalidate drops the cached token so the next request exchanges again.
func (c *Credentials) Invalidate() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}

func (c *Credentials) valid() bool {
	if c.token == nil || c.token.AccessToken == "" {
		return false
	}
	if c.token.Expiry.IsZero() {
		return true
	}
	return c.now().Add(tokenLeeway).Before(c.token.Expiry)
}

func (c *Credentials) refreshLocked(ctx context.Context) (string, error) {
	if c.exchange == nil {
		return "", errors.New("feed credentials: no exchanger configured")
	}
	token, err := c.exchange(ctx)
	if err != nil {
		if rejectedGrant(err) {
			return "", fmt.Errorf("exchange feed token: %w: %w", ErrUnauthorized, err)
		}
		return "", fmt.Errorf("exchange feed token: %w", err)
	}
	if token == nil || token.AccessToken == "" {
		return "", errors.New("exchange feed token: empty access token")
	}
	c.token = token
	return token.AccessToken, nil
}

// rejectedGrant reports whether the token endpoint refused the credentials
// themselves, as opposed to failing transiently.
func rejectedGrant(err error) bool {
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) || rerr.Response == nil {
		return false
	}
	switch rerr.Response.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

// PasswordGrantConfig holds the values for a resource-owner password grant.
type PasswordGrantConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

// PasswordGrant returns an Exchanger that performs the OAuth2 password grant
// with client credentials in the Authorization header.
func PasswordGrant(cfg PasswordGrantConfig, httpClient *http.Client) Exchanger {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	client := withUserAgent(httpClient, cfg.UserAgent)
	return func(ctx context.Context) (*oauth2.Token, error) {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
		return oauthCfg.PasswordCredentialsToken(ctx, cfg.Username, cfg.Password)
	}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}

func withUserAgent(client *http.Client, userAgent string) *http.Client {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return client
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *client
	wrapped.Transport = &userAgentTransport{base: base, userAgent: userAgent}
	return &wrapped
}
