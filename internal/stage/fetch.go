package stage

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"basegraph.app/scout/common/logger"
	"basegraph.app/scout/internal/model"
)

// fetch queries every result page in parallel and flattens the hits in
// page order. Any failed page aborts the stage.
func (e *executors) fetch(ctx context.Context, p FetchPayload) ([]model.Item, error) {
	pages := make([][]model.Candidate, e.deps.Pages)

	g, gctx := errgroup.WithContext(ctx)
	for i := range pages {
		page := i + 1
		g.Go(func() error {
			hits, err := e.deps.Source.Fetch(gctx, p.Topic, page)
			if err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
			pages[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, collaboratorErr(TypeFetchSource, "fetch", err)
	}

	var items []model.Item
	for _, hits := range pages {
		for _, c := range hits {
			items = append(items, model.Item{
				ID:            e.deps.NewID(),
				RequestID:     p.RequestID,
				Position:      len(items),
				Title:         c.Title,
				URL:           c.URL,
				Price:         c.Price,
				OriginalPrice: c.OriginalPrice,
			})
		}
	}

	slog.InfoContext(ctx, "source fetched",
		"pages", e.deps.Pages,
		"items", len(items),
		"topic", logger.Truncate(p.Topic, 80))
	return items, nil
}
