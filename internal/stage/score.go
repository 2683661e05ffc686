package stage

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"basegraph.app/scout/internal/model"
)

// aggregate receives each batch keyed by its index, restores discovery
// order and scores the full set in one call.
func (e *executors) aggregate(ctx context.Context, p ScorePayload, byBatch map[int][]model.Item) ([]model.Item, error) {
	indexes := make([]int, 0, len(byBatch))
	total := 0
	for idx, b := range byBatch {
		indexes = append(indexes, idx)
		total += len(b)
	}
	sort.Ints(indexes)

	items := make([]model.Item, 0, total)
	for _, idx := range indexes {
		items = append(items, byBatch[idx]...)
	}
	if len(items) == 0 {
		return items, nil
	}

	scores, err := e.deps.Scorer.Score(ctx, p.Topic, items)
	if err != nil {
		return nil, collaboratorErr(TypeAggregateScore, "score", err)
	}
	return e.applyScores(ctx, items, scores)
}

func (e *executors) applyScores(ctx context.Context, items []model.Item, scores []model.Score) ([]model.Item, error) {
	byID := make(map[int64]model.Score, len(scores))
	for _, s := range scores {
		if _, dup := byID[s.ItemID]; dup {
			continue
		}
		byID[s.ItemID] = s
	}

	prec := e.deps.Precision
	for i := range items {
		s, ok := byID[items[i].ID]
		if !ok {
			return nil, collaboratorErr(TypeAggregateScore, "match results", &UnmatchedResultError{ItemID: items[i].ID})
		}
		delete(byID, s.ItemID)

		author := strings.Join(s.Authors, ", ")
		summary := s.Summary
		items[i].Author = &author
		items[i].Summary = &summary
		items[i].DiscountAmount = roundPtr(s.DiscountAmount, prec)
		items[i].DiscountPercentage = roundPtr(s.DiscountPercentage, prec)
		items[i].RelevanceScore = roundPtr(s.RelevanceScore, prec)
		items[i].ValueScore = roundPtr(s.ValueScore, prec)
	}

	if len(byID) > 0 {
		slog.WarnContext(ctx, "scorer returned entries for unknown items", "count", len(byID))
	}
	return items, nil
}
