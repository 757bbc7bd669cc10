package zimbra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	requestTimeout = 60 * time.Second

	// Fault messages containing this sentinel mark a business-level
	// "not found" rather than a real API failure.
	notFoundSentinel = "no such account"
)

// Client talks the admin SOAP API of the directory. It is safe for
// concurrent use: the auth token is cached process-wide behind a mutex and
// the first caller that finds no token authenticates while the others wait.
type Client struct {
	url        string
	username   string
	password   string
	httpClient *http.Client
	logger     zerolog.Logger

	mu        sync.Mutex
	authToken string
}

func NewClient(url, username, password string, logger zerolog.Logger) *Client {
	return &Client{
		url:        url,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// send posts one SOAP envelope and returns the raw response body. Failures
// split three ways: transport problems (including timeouts) are
// ConnectionError, non-2xx statuses are APIError, and faults inside a 200
// are left for the caller to classify.
func (c *Client) send(ctx context.Context, payload string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build directory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	if resp.StatusCode >= 300 {
		return nil, &APIError{Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}
	return body, nil
}

// authenticate performs an AuthRequest and returns the new token. Callers
// must hold c.mu.
func (c *Client) authenticate(ctx context.Context) (string, error) {
	body, err := c.send(ctx, buildAuthRequest(c.username, c.password))
	if err != nil {
		return "", err
	}
	inner, f, err := parseEnvelope(body)
	if err != nil {
		return "", err
	}
	if f != nil {
		return "", &AuthError{Message: f.Message}
	}
	token, err := parseAuthResponse(inner)
	if err != nil {
		return "", err
	}
	c.logger.Info().Str("user", c.username).Msg("authenticated with directory")
	return token, nil
}

// Authenticate forces a fresh authentication, replacing any cached token.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	token, err := c.authenticate(ctx)
	if err != nil {
		return err
	}
	c.authToken = token
	return nil
}

// token returns the cached auth token, authenticating under the lock if no
// token is held yet. Concurrent callers block on the single in-flight
// authentication instead of each issuing their own.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authToken != "" {
		return c.authToken, nil
	}
	token, err := c.authenticate(ctx)
	if err != nil {
		return "", err
	}
	c.authToken = token
	return token, nil
}

// SearchAccounts runs one page of a directory search. The response's More
// flag drives the caller's pagination: offset advances by the page size
// while More is true.
func (c *Client) SearchAccounts(ctx context.Context, p SearchParams) (*SearchResult, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	body, err := c.send(ctx, buildSearchDirectoryRequest(token, p, AccountAttrs))
	if err != nil {
		return nil, err
	}
	inner, f, err := parseEnvelope(body)
	if err != nil {
		return nil, err
	}
	if f != nil {
		return nil, &APIError{Message: f.Message, Code: f.Code}
	}
	return parseSearchResponse(inner)
}

// GetAccount fetches a single account by "id" or "name".
func (c *Client) GetAccount(ctx context.Context, key, by string) (*RemoteAccount, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	body, err := c.send(ctx, buildGetAccountRequest(token, key, by))
	if err != nil {
		return nil, err
	}
	inner, f, err := parseEnvelope(body)
	if err != nil {
		return nil, err
	}
	if f != nil {
		if strings.Contains(strings.ToLower(f.Message), notFoundSentinel) {
			return nil, &NotFoundError{Key: key}
		}
		return nil, &APIError{Message: f.Message, Code: f.Code}
	}
	return parseGetAccountResponse(inner)
}

// ModifyAccount sets attributes on a directory account.
func (c *Client) ModifyAccount(ctx context.Context, zimbraID string, attrs map[string]string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	body, err := c.send(ctx, buildModifyAccountRequest(token, zimbraID, attrs))
	if err != nil {
		return err
	}
	_, f, err := parseEnvelope(body)
	if err != nil {
		return err
	}
	if f != nil {
		return &APIError{Message: f.Message, Code: f.Code}
	}
	c.logger.Info().Str("zimbra_id", zimbraID).Int("attrs", len(attrs)).Msg("modified directory account")
	return nil
}

// SetAccountStatus pushes a local status change to the directory. The
// local status must have a remote counterpart.
func (c *Client) SetAccountStatus(ctx context.Context, zimbraID, status string) error {
	remote, ok := RemoteStatusFor(status)
	if !ok {
		return fmt.Errorf("status %q has no directory counterpart", status)
	}
	return c.ModifyAccount(ctx, zimbraID, map[string]string{AttrAccountStatus: remote})
}

// GetMailboxSize returns the mailbox size in bytes. A fault yields 0
// without error; mailbox size is non-critical telemetry and the directory
// reports a fault for mailboxes that were never provisioned.
func (c *Client) GetMailboxSize(ctx context.Context, zimbraID string) (int64, error) {
	token, err := c.token(ctx)
	if err != nil {
		return 0, err
	}
	body, err := c.send(ctx, buildGetMailboxRequest(token, zimbraID))
	if err != nil {
		return 0, err
	}
	inner, f, err := parseEnvelope(body)
	if err != nil {
		return 0, err
	}
	if f != nil {
		c.logger.Debug().Str("zimbra_id", zimbraID).Str("fault", f.Message).Msg("mailbox size unavailable")
		return 0, nil
	}
	return parseGetMailboxResponse(inner)
}

// DeleteAccount permanently deletes a directory account.
func (c *Client) DeleteAccount(ctx context.Context, zimbraID string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	body, err := c.send(ctx, buildDeleteAccountRequest(token, zimbraID))
	if err != nil {
		return err
	}
	_, f, err := parseEnvelope(body)
	if err != nil {
		return err
	}
	if f != nil {
		return &APIError{Message: f.Message, Code: f.Code}
	}
	c.logger.Info().Str("zimbra_id", zimbraID).Msg("deleted directory account")
	return nil
}

// TestConnection verifies the endpoint and credentials by authenticating.
func (c *Client) TestConnection(ctx context.Context) error {
	return c.Authenticate(ctx)
}
