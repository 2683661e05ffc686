// Package source queries the external search API for candidate items.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"basegraph.app/scout/internal/model"
	"resty.dev/v3"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client fetches one result page per call. It does not retry.
type Client struct {
	http *resty.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		c.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: c}
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Price         price  `json:"price"`
	OriginalPrice price  `json:"original_price"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Fetch returns the candidates on one page, in source order. Results
// without a title or URL are skipped.
func (c *Client) Fetch(ctx context.Context, topic string, page int) ([]model.Candidate, error) {
	var body searchResponse
	var apiErr apiError

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":    topic,
			"page": strconv.Itoa(page),
		}).
		SetResult(&body).
		SetError(&apiErr).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("searching page %d: %w", page, err)
	}
	if resp.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error
		}
		return nil, fmt.Errorf("searching page %d: %s: %s", page, resp.Status(), msg)
	}

	out := make([]model.Candidate, 0, len(body.Results))
	for _, r := range body.Results {
		if r.Title == "" || r.URL == "" {
			continue
		}
		out = append(out, model.Candidate{
			Title:         strings.TrimSpace(r.Title),
			URL:           r.URL,
			Price:         r.Price.value,
			OriginalPrice: r.OriginalPrice.value,
		})
	}

	slog.DebugContext(ctx, "source page fetched",
		"page", page,
		"results", len(out),
		"duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

func (c *Client) Close() error {
	return c.http.Close()
}
