// Package usda implements domain.ExternalFoodSource against USDA FoodData Central.
package usda

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"nourish/internal/domain"
	"nourish/internal/metrics"
)

const maxResponseBytes = 4 << 20

var searchDataTypes = []string{"Branded", "SR Legacy", "Foundation"}

var _ domain.ExternalFoodSource = (*Client)(nil)

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client talks to the FoodData Central REST API through a circuit breaker.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	breaker *breaker
}

// New returns a client for cfg. A zero Timeout defaults to five seconds.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:    &http.Client{Timeout: timeout},
		breaker: newBreaker("usda-api"),
	}
}

// Search returns up to limit normalized foods matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.ExternalFood, error) {
	start := time.Now()
	foods, err := execute(c.breaker, func() ([]domain.ExternalFood, error) {
		return c.search(ctx, query, limit)
	})
	metrics.RecordExternalLookup("search", time.Since(start), err)
	return foods, err
}

// Fetch returns one food by its FoodData Central id.
func (c *Client) Fetch(ctx context.Context, externalID string) (*domain.ExternalFood, error) {
	start := time.Now()
	food, err := execute(c.breaker, func() (*domain.ExternalFood, error) {
		return c.fetch(ctx, externalID)
	})
	metrics.RecordExternalLookup("fetch", time.Since(start), err)
	return food, err
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]domain.ExternalFood, error) {
	payload, err := json.Marshal(map[string]any{
		"query":    query,
		"pageSize": limit,
		"dataType": searchDataTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search payload: %w", err)
	}

	var parsed searchResponse
	if err := c.do(ctx, http.MethodPost, "/fdc/v1/foods/search", bytes.NewReader(payload), &parsed); err != nil {
		return nil, err
	}

	out := make([]domain.ExternalFood, 0, len(parsed.Foods))
	for _, f := range parsed.Foods {
		out = append(out, f.normalize())
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, externalID string) (*domain.ExternalFood, error) {
	var parsed food
	if err := c.do(ctx, http.MethodGet, "/fdc/v1/food/"+url.PathEscape(externalID), nil, &parsed); err != nil {
		return nil, err
	}
	out := parsed.normalize()
	if out.ExternalID == "" {
		out.ExternalID = externalID
	}
	return &out, nil
}

// do sends one request and decodes a 2xx JSON body into dst.
// A 404 yields domain.ErrNotFound.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, dst any) error {
	u := c.baseURL + path + "?" + url.Values{"api_key": {c.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create USDA request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			// The URL carries the api key.
			err = ue.Err
		}
		return fmt.Errorf("execute USDA request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("USDA request failed with status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(dst); err != nil {
		return fmt.Errorf("decode USDA response: %w", err)
	}
	return nil
}
