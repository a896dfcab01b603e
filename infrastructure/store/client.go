package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client talks to a Supabase PostgREST endpoint. The apikey header is sent
// on every request; the Authorization bearer defaults to the API key and is
// replaced per request via WithToken so the backing store can enforce
// row-level authorization for the caller.
type Client struct {
	baseURL string
	apiKey  string
	token   string
	httpc   *http.Client
	logger  *zap.Logger
}

// StoreError captures a non-2xx PostgREST response.
type StoreError struct {
	StatusCode int
	Body       string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store responded %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a store client. The timeout bounds every request made
// through it.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		token:   apiKey,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// WithToken returns a copy of the client that authenticates as the caller
// owning the given bearer token. The underlying HTTP client is shared.
func (c *Client) WithToken(token string) *Client {
	scoped := *c
	scoped.token = token
	return &scoped
}

// From starts a read query against a table or view.
func (c *Client) From(relation string) *Query {
	return newQuery(c, relation)
}

// Rpc invokes a PostgREST function. A nil args posts an empty object.
func (c *Client) Rpc(ctx context.Context, fn string, args interface{}) error {
	if args == nil {
		args = map[string]interface{}{}
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal rpc args: %w", err)
	}

	url := c.baseURL + "/rest/v1/rpc/" + fn
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", fn, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Ping issues the cheapest possible read to verify the backing store is
// reachable and serving queries.
func (c *Client) Ping(ctx context.Context) error {
	var rows []struct {
		ID string `json:"id"`
	}
	_, err := c.From("patches").Select("id").Limit(1).Execute(ctx, &rows)
	return err
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StoreError{StatusCode: resp.StatusCode, Body: string(body)}
}
