// Package client is a Go client for the hostel issue API. Sessions are passed
// explicitly to every call; the client keeps no hidden credential state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrSessionExpired is returned when a call is made with a missing or expired session.
var ErrSessionExpired = errors.New("session expired")

// Client talks to the API over HTTP.
type Client struct {
	baseURL      string
	http         *http.Client
	now          func() time.Time
	sessionHours int
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock overrides the time source used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithSessionHours sets the cap applied to sessions that are not remembered.
func WithSessionHours(hours int) Option {
	return func(c *Client) {
		if hours > 0 {
			c.sessionHours = hours
		}
	}
}

// New returns a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: 15 * time.Second},
		now:          time.Now,
		sessionHours: DefaultSessionHours,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates an account and opens a session for it.
func (c *Client) Register(ctx context.Context, reg Registration, remember bool) (*Session, *User, error) {
	var res authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, reg, &res); err != nil {
		return nil, nil, err
	}
	return newSession(&res, remember, c.now(), c.sessionHours), &res.User, nil
}

// Login opens a session. Without remember the session ends after the
// configured number of hours regardless of the token's own expiry.
func (c *Client) Login(ctx context.Context, email, password string, role Role, remember bool) (*Session, *User, error) {
	body := map[string]any{"email": email, "password": password, "type": role}
	var res authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &res); err != nil {
		return nil, nil, err
	}
	return newSession(&res, remember, c.now(), c.sessionHours), &res.User, nil
}

// Logout discards the session locally.
func (c *Client) Logout(s *Session) {
	s.Clear()
}

// CheckToken asks the server to verify the session token.
func (c *Client) CheckToken(ctx context.Context, s *Session) (*TokenInfo, error) {
	var info TokenInfo
	if err := c.do(ctx, http.MethodPost, "/auth", s, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetUser returns the summary of a user, or nil when the id is unknown.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var user *User
	if err := c.do(ctx, http.MethodPost, "/auth/getUser", nil, map[string]string{"userId": id}, &user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListIssues returns the issues visible to the session's user.
func (c *Client) ListIssues(ctx context.Context, s *Session) ([]Issue, error) {
	q := url.Values{}
	q.Set("type", string(s.Role))
	if s.Designation != "" {
		q.Set("designation", s.Designation)
	}
	var res issueList
	if err := c.do(ctx, http.MethodGet, "/issues?"+q.Encode(), s, nil, &res); err != nil {
		return nil, err
	}
	return res.Issues, nil
}

// ListPublicIssues returns the public feed.
func (c *Client) ListPublicIssues(ctx context.Context, s *Session) ([]Issue, error) {
	var res issueList
	if err := c.do(ctx, http.MethodGet, "/issues?scope=public", s, nil, &res); err != nil {
		return nil, err
	}
	return res.Issues, nil
}

// CreateIssue files a new issue.
func (c *Client) CreateIssue(ctx context.Context, s *Session, in NewIssue) (*Issue, error) {
	var res issueEnvelope
	if err := c.do(ctx, http.MethodPost, "/issues", s, in, &res); err != nil {
		return nil, err
	}
	return &res.Issue, nil
}

// GetIssue fetches one issue.
func (c *Client) GetIssue(ctx context.Context, s *Session, id string) (*Issue, error) {
	var res issueEnvelope
	if err := c.do(ctx, http.MethodGet, "/issues/"+url.PathEscape(id), s, nil, &res); err != nil {
		return nil, err
	}
	return &res.Issue, nil
}

// UpdateIssue applies a partial update.
func (c *Client) UpdateIssue(ctx context.Context, s *Session, id string, in IssueUpdate) (*Issue, error) {
	var res issueEnvelope
	if err := c.do(ctx, http.MethodPatch, "/issues/"+url.PathEscape(id), s, in, &res); err != nil {
		return nil, err
	}
	return &res.Issue, nil
}

// UpvoteIssue adds one upvote.
func (c *Client) UpvoteIssue(ctx context.Context, s *Session, id string) (*Issue, error) {
	var res issueEnvelope
	if err := c.do(ctx, http.MethodPost, "/issues/"+url.PathEscape(id)+"/upvote", s, nil, &res); err != nil {
		return nil, err
	}
	return &res.Issue, nil
}

// DeleteIssue removes an issue owned by the session's user.
func (c *Client) DeleteIssue(ctx context.Context, s *Session, id string) error {
	return c.do(ctx, http.MethodDelete, "/issues/"+url.PathEscape(id), s, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, s *Session, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if s != nil {
		if !s.Valid(c.now()) {
			s.Clear()
			return ErrSessionExpired
		}
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
