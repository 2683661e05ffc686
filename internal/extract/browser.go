// Package extract reads item descriptions with a headless browser.
//
// One Browser is shared by the worker. Each enrich batch opens a Session,
// which is an isolated browser context (its own cookies and cache); each
// item is loaded in its own tab inside that session.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

type Config struct {
	// RemoteURL attaches to a running browser's DevTools endpoint instead of
	// launching one.
	RemoteURL   string
	ExecPath    string
	Headless    bool
	ItemTimeout time.Duration
}

type Browser struct {
	cfg Config

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewBrowser allocates and starts the browser. ctx bounds the browser's
// lifetime.
func NewBrowser(ctx context.Context, cfg Config) (*Browser, error) {
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = 30 * time.Second
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if cfg.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
	} else {
		opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		if cfg.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
		}
		if !cfg.Headless {
			opts = append(opts, chromedp.Flag("headless", false))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	// The first Run starts the browser; sessions need it running before
	// they can create browser contexts.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	slog.InfoContext(ctx, "browser started", "remote", cfg.RemoteURL != "", "headless", cfg.Headless)

	return &Browser{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Open creates an isolated browser context. The caller must Close it.
func (b *Browser) Open(ctx context.Context) (*Session, error) {
	sessCtx, cancel := chromedp.NewContext(b.browserCtx, chromedp.WithNewBrowserContext())
	// Creates the browser context and its first target.
	if err := chromedp.Run(sessCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("opening browser context: %w", err)
	}
	slog.DebugContext(ctx, "browser session opened")
	return &Session{ctx: sessCtx, cancel: cancel, itemTimeout: b.cfg.ItemTimeout}, nil
}

// Close shuts the browser down and releases the allocator.
func (b *Browser) Close() error {
	err := chromedp.Cancel(b.browserCtx)
	b.browserCancel()
	b.allocCancel()
	if err != nil {
		return fmt.Errorf("closing browser: %w", err)
	}
	return nil
}
