package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// descriptionScript returns the first non-empty description the page
// offers, from structured markup down to meta tags.
const descriptionScript = `(() => {
  const pick = (sel, attr) => {
    const el = document.querySelector(sel);
    if (!el) return "";
    const v = attr ? el.getAttribute(attr) : el.innerText;
    return (v || "").trim();
  };
  const candidates = [
    pick('[itemprop="description"]'),
    pick('#bookDescription_feature_div'),
    pick('#productDescription'),
    pick('[data-testid="description"]'),
    pick('meta[property="og:description"]', 'content'),
    pick('meta[name="description"]', 'content'),
  ];
  return candidates.find(v => v.length > 0) || "";
})()`

// Session is one isolated browser context. Extract may be called
// concurrently; every call gets its own tab.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	itemTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

// Extract loads url in a fresh tab and reads its description. ok is false
// when the page has none.
func (s *Session) Extract(ctx context.Context, url string) (desc string, ok bool, err error) {
	tabCtx, cancelTab := chromedp.NewContext(s.ctx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, s.itemTimeout)
	defer cancelTimeout()

	// Tie the tab to the caller as well as to the session.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Evaluate(descriptionScript, &desc),
	); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", false, ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", false, fmt.Errorf("extracting %s: timed out after %s", url, s.itemTimeout)
		}
		return "", false, fmt.Errorf("extracting %s: %w", url, err)
	}

	desc = strings.TrimSpace(desc)
	return desc, desc != "", nil
}

// Close disposes of the browser context and every tab in it, waiting for
// the browser to acknowledge. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancel()
	})
	return s.closeErr
}
