// Package client is a typed HTTP client for the Folio API, used by folioctl
// and the admin inbox.
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

	"github.com/folio/backend/internal/model"
)

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client calls the Folio API with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a Client. token may be empty for public endpoints.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	cp := *c
	cp.httpClient = hc
	return &cp
}

// SessionInfo is the body of GET /api/auth/session.
type SessionInfo struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin"`
}

// Session returns the identity behind the client's token.
func (c *Client) Session(ctx context.Context) (*SessionInfo, error) {
	var s SessionInfo
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSubmissions returns every submission, most recent first.
func (c *Client) ListSubmissions(ctx context.Context) ([]*model.Submission, error) {
	subs := []*model.Submission{}
	if err := c.do(ctx, http.MethodGet, "/api/submissions", nil, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// UpdateSubmission applies a partial update.
func (c *Client) UpdateSubmission(ctx context.Context, id string, upd model.SubmissionUpdate) error {
	body := struct {
		ID      string                 `json:"id"`
		Updates model.SubmissionUpdate `json:"updates"`
	}{id, upd}
	return c.do(ctx, http.MethodPut, "/api/submissions", body, nil)
}

// DeleteSubmissions removes all ids or none.
func (c *Client) DeleteSubmissions(ctx context.Context, ids []string) error {
	body := struct {
		IDs []string `json:"ids"`
	}{ids}
	return c.do(ctx, http.MethodDelete, "/api/submissions", body, nil)
}

// SubmitContact posts the public contact form and returns the new id.
func (c *Client) SubmitContact(ctx context.Context, in model.ContactInput) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/contact", in, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ListProjects returns the public project list.
func (c *Client) ListProjects(ctx context.Context, filter model.ProjectFilter) ([]*model.Project, error) {
	q := url.Values{}
	if filter.Tag != "" {
		q.Set("tag", filter.Tag)
	}
	if filter.FeaturedOnly {
		q.Set("featured", "true")
	}
	path := "/api/projects"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	projects := []*model.Project{}
	if err := c.do(ctx, http.MethodGet, path, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
