package stage

import (
	"context"
	"log/slog"
	"sync"

	"basegraph.app/scout/internal/model"
)

// enrich fills the description of every item in one batch. The batch owns
// a single browsing session; items are extracted concurrently inside it.
func (e *executors) enrich(ctx context.Context, p EnrichPayload) ([]model.Item, error) {
	sess, err := e.deps.Browser.Open(ctx)
	if err != nil {
		return nil, collaboratorErr(TypeEnrichItemBatch, "open browser session", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			slog.WarnContext(ctx, "closing browser session failed", "error", err, "batch", p.Index)
		}
	}()

	out := make([]model.Item, len(p.Items))
	copy(out, p.Items)

	var wg sync.WaitGroup
	for i := range out {
		wg.Add(1)
		go func() {
			defer wg.Done()
			desc, ok, err := sess.Extract(ctx, out[i].URL)
			switch {
			case err != nil:
				slog.WarnContext(ctx, "description extraction failed",
					"error", err, "item_id", out[i].ID, "url", out[i].URL)
				desc = ""
			case !ok:
				desc = ""
			}
			out[i].Description = &desc
		}()
	}
	wg.Wait()

	// Cancellation is not an extraction miss.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "batch enriched", "batch", p.Index, "items", len(out))
	return out, nil
}
