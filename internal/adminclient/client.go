// Package adminclient calls the lead review API with the shared admin
// secret.
package adminclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	httpclient "franchise-leads/internal/common/http"
	"franchise-leads/internal/models"
)

var (
	ErrUnauthorized = errors.New("unauthorized: the admin token was rejected")
	ErrNotFound     = errors.New("lead not found")
)

// TokenSource supplies the bearer token for each request.
type TokenSource func() (string, error)

// StaticToken always returns token.
func StaticToken(token string) TokenSource {
	return func() (string, error) { return token, nil }
}

type Client struct {
	http  *httpclient.Client
	token TokenSource
}

func New(baseURL string, timeout time.Duration, token TokenSource) *Client {
	return &Client{
		http:  httpclient.NewClient(baseURL, timeout),
		token: token,
	}
}

type ListResult struct {
	Items      []models.Lead `json:"items"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

// ListLeads fetches one page; limit 0 asks for every lead.
func (c *Client) ListLeads(ctx context.Context, limit int, cursor string) (*ListResult, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	path := "/admin/leads"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out ListResult
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, status models.InterestStatus) error {
	body := map[string]string{"interestStatus": string(status)}
	return c.do(ctx, http.MethodPatch, "/admin/leads/"+url.PathEscape(id), body, nil)
}

// Verify checks a candidate token against the server without touching any
// session state.
func (c *Client) Verify(ctx context.Context, token string) error {
	probe := &Client{http: c.http, token: StaticToken(token)}
	_, err := probe.ListLeads(ctx, 1, "")
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := c.token()
	if err != nil {
		return err
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	err = c.http.DoJSON(ctx, method, path, header, body, out)
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized:
			return ErrUnauthorized
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusBadRequest:
			return fmt.Errorf("rejected by server: %s", statusErr.Message)
		}
	}
	return err
}
