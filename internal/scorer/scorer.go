// Package scorer annotates a whole item set with one structured LLM call.
package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"basegraph.app/scout/common/llm"
	"basegraph.app/scout/internal/model"
)

const systemPrompt = `You evaluate products found for a shopping topic.
For every input item return exactly one entry with the same item_id.
- authors: the item's authors or brand, empty if unknown
- summary: one or two sentences from the title and description
- discount_amount: original_price minus price, 0 when either is missing
- discount_percentage: discount_amount as a percentage of original_price, 0 when unknown
- relevance_score: 0 to 10, how well the item matches the topic
- value_score: 0 to 10, quality for the price
Return numbers unrounded. Do not invent items.`

type Config struct {
	MaxTokens   int
	Temperature *float64
}

type Scorer struct {
	client llm.Client
	cfg    Config
}

func New(client llm.Client, cfg Config) *Scorer {
	return &Scorer{client: client, cfg: cfg}
}

type promptItem struct {
	ItemID        string   `json:"item_id"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Price         *float64 `json:"price"`
	OriginalPrice *float64 `json:"original_price"`
	Description   string   `json:"description"`
}

type entry struct {
	ItemID             string   `json:"item_id" jsonschema:"description=The item_id of the input item"`
	Authors            []string `json:"authors"`
	DiscountAmount     float64  `json:"discount_amount"`
	DiscountPercentage float64  `json:"discount_percentage"`
	RelevanceScore     float64  `json:"relevance_score"`
	Summary            string   `json:"summary"`
	ValueScore         float64  `json:"value_score"`
}

type response struct {
	Items []entry `json:"items"`
}

// Score returns one entry per item the model answered for. Entries whose
// id does not parse are dropped; matching them back is the caller's job.
func (s *Scorer) Score(ctx context.Context, topic string, items []model.Item) ([]model.Score, error) {
	prompt, err := userPrompt(topic, items)
	if err != nil {
		return nil, err
	}

	var resp response
	start := time.Now()
	usage, err := s.client.Chat(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		SchemaName:   "item_scores",
		Schema:       llm.GenerateSchema[response](),
		MaxTokens:    s.cfg.MaxTokens,
		Temperature:  s.cfg.Temperature,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("scoring %d items: %w", len(items), err)
	}

	out := make([]model.Score, 0, len(resp.Items))
	for _, e := range resp.Items {
		id, err := strconv.ParseInt(strings.TrimSpace(e.ItemID), 10, 64)
		if err != nil {
			slog.WarnContext(ctx, "scorer returned unparseable item id", "item_id", e.ItemID)
			continue
		}
		out = append(out, model.Score{
			ItemID:             id,
			Authors:            e.Authors,
			DiscountAmount:     e.DiscountAmount,
			DiscountPercentage: e.DiscountPercentage,
			RelevanceScore:     e.RelevanceScore,
			Summary:            e.Summary,
			ValueScore:         e.ValueScore,
		})
	}

	attrs := []any{
		"items", len(items),
		"entries", len(out),
		"model", s.client.Model(),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if usage != nil {
		attrs = append(attrs, "prompt_tokens", usage.PromptTokens, "completion_tokens", usage.CompletionTokens)
	}
	slog.InfoContext(ctx, "items scored", attrs...)
	return out, nil
}

func userPrompt(topic string, items []model.Item) (string, error) {
	in := make([]promptItem, len(items))
	for i, it := range items {
		desc := ""
		if it.Description != nil {
			desc = *it.Description
		}
		in[i] = promptItem{
			ItemID:        strconv.FormatInt(it.ID, 10),
			Title:         it.Title,
			URL:           it.URL,
			Price:         it.Price,
			OriginalPrice: it.OriginalPrice,
			Description:   desc,
		}
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encoding items: %w", err)
	}
	return fmt.Sprintf("Topic: %s\n\nItems:\n%s", topic, raw), nil
}
