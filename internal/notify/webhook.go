// Package notify delivers a finished request's flat records to the
// outbound webhook.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"basegraph.app/scout/common/logger"
	"resty.dev/v3"
)

type Config struct {
	WebhookURL string
	Token      string
	Timeout    time.Duration
}

type Delivery struct {
	RequestID int64
	Topic     string
	Records   []Record
}

// Webhook posts one JSON document per delivery. A non-2xx response is an
// error; there is no retry.
type Webhook struct {
	http *resty.Client
	url  string
}

func NewWebhook(cfg Config) *Webhook {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.Token != "" {
		c.SetAuthToken(cfg.Token)
	}
	return &Webhook{http: c, url: cfg.WebhookURL}
}

type payload struct {
	RequestID string   `json:"request_id"`
	Topic     string   `json:"topic"`
	Columns   []string `json:"columns"`
	Rows      []Record `json:"rows"`
}

func (w *Webhook) Deliver(ctx context.Context, d Delivery) error {
	rows := d.Records
	if rows == nil {
		rows = []Record{}
	}

	start := time.Now()
	resp, err := w.http.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", "request-"+strconv.FormatInt(d.RequestID, 10)).
		SetBody(payload{
			RequestID: strconv.FormatInt(d.RequestID, 10),
			Topic:     d.Topic,
			Columns:   Columns,
			Rows:      rows,
		}).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("posting %d records: %w", len(rows), err)
	}
	if resp.IsError() {
		return fmt.Errorf("posting %d records: %s: %s", len(rows), resp.Status(), logger.Truncate(resp.String(), 200))
	}

	slog.InfoContext(ctx, "records delivered",
		"request_id", d.RequestID,
		"records", len(rows),
		"status", resp.StatusCode(),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (w *Webhook) Close() error {
	return w.http.Close()
}
