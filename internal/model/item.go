package model

import "time"

// Item is one enriched unit belonging to a Request. Enrichment fields stay
// nil until the stage that owns them has run.
type Item struct {
	ID            int64    `json:"id"`
	RequestID     int64    `json:"request_id"`
	Position      int      `json:"position"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Price         *float64 `json:"price,omitempty"`
	OriginalPrice *float64 `json:"original_price,omitempty"`

	Description        *string  `json:"description,omitempty"`
	Author             *string  `json:"author,omitempty"`
	Summary            *string  `json:"summary,omitempty"`
	DiscountAmount     *float64 `json:"discount_amount,omitempty"`
	DiscountPercentage *float64 `json:"discount_percentage,omitempty"`
	RelevanceScore     *float64 `json:"relevance_score,omitempty"`
	ValueScore         *float64 `json:"value_score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Candidate is a raw search hit before it becomes an Item.
type Candidate struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Price         *float64 `json:"price,omitempty"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
}

// Score is the scorer's annotation for one item, matched back by ItemID.
type Score struct {
	ItemID             int64    `json:"item_id"`
	Authors            []string `json:"authors"`
	DiscountAmount     float64  `json:"discount_amount"`
	DiscountPercentage float64  `json:"discount_percentage"`
	RelevanceScore     float64  `json:"relevance_score"`
	Summary            string   `json:"summary"`
	ValueScore         float64  `json:"value_score"`
}
