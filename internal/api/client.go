// Package api is the retrieval layer for a PokeAPI-compatible server: a
// thin HTTP client with bounded retry and linear backoff that yields parsed
// JSON documents, plus JSONPath helpers for reading them.
package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ohler55/ojg/oj"
)

// Client fetches JSON documents from the API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetries sets the attempt bound for each fetch.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the base backoff interval; attempt n waits n*base.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// New creates a client for the given base URL (e.g. "https://pokeapi.co/api/v2").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchJSON retrieves one document. Transient failures (transport errors,
// non-200 responses) are retried with a linearly growing backoff; after the
// attempt bound is exhausted it returns ok=false. Callers must treat
// ok=false as "skip this unit of work", never as fatal.
func (c *Client) FetchJSON(ctx context.Context, url string) (any, bool) {
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		doc, err := c.fetchOnce(ctx, url)
		if err == nil {
			return doc, true
		}
		log.Printf("api: fetch %s (attempt %d/%d): %v", url, attempt, c.maxRetries, err)
		if attempt == c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
	return nil, false
}

func (c *Client) fetchOnce(ctx context.Context, url string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	doc, err := oj.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return doc, nil
}

// NamedRef is one {name, url} entry from a paginated list endpoint.
type NamedRef struct {
	Name string
	URL  string
}

// ListPokemon fetches one page of the pokemon list endpoint. Unlike the
// per-document fetches, an unavailable list is an error: there is no run
// without it.
func (c *Client) ListPokemon(ctx context.Context, limit, offset int) ([]NamedRef, error) {
	url := fmt.Sprintf("%s/pokemon?limit=%d&offset=%d", c.baseURL, limit, offset)
	doc, ok := c.FetchJSON(ctx, url)
	if !ok {
		return nil, fmt.Errorf("list pokemon: %s unavailable", url)
	}
	var refs []NamedRef
	for _, entry := range List(doc, "$.results[*]") {
		name, _ := String(entry, "$.name")
		u, _ := String(entry, "$.url")
		if name == "" || u == "" {
			continue
		}
		refs = append(refs, NamedRef{Name: name, URL: u})
	}
	return refs, nil
}
