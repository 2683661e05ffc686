package notify

import (
	"basegraph.app/scout/internal/model"
)

// Columns lists the flat record keys in the order the sink expects.
var Columns = []string{
	"Title",
	"Author",
	"Description",
	"Summary",
	"Current Price",
	"Original Price",
	"Discount Amount",
	"Discount %",
	"Value Score",
	"Relevance Score",
	"URL",
}

// Record is one item flattened for the sink. Field order matches Columns.
type Record struct {
	Title          string   `json:"Title"`
	Author         string   `json:"Author"`
	Description    string   `json:"Description"`
	Summary        string   `json:"Summary"`
	CurrentPrice   *float64 `json:"Current Price"`
	OriginalPrice  *float64 `json:"Original Price"`
	DiscountAmount *float64 `json:"Discount Amount"`
	DiscountPct    *float64 `json:"Discount %"`
	ValueScore     *float64 `json:"Value Score"`
	RelevanceScore *float64 `json:"Relevance Score"`
	URL            string   `json:"URL"`
}

// Values returns the record as a row in Columns order.
func (r Record) Values() []any {
	return []any{
		r.Title,
		r.Author,
		r.Description,
		r.Summary,
		r.CurrentPrice,
		r.OriginalPrice,
		r.DiscountAmount,
		r.DiscountPct,
		r.ValueScore,
		r.RelevanceScore,
		r.URL,
	}
}

func FromItem(it model.Item) Record {
	return Record{
		Title:          it.Title,
		Author:         deref(it.Author),
		Description:    deref(it.Description),
		Summary:        deref(it.Summary),
		CurrentPrice:   it.Price,
		OriginalPrice:  it.OriginalPrice,
		DiscountAmount: it.DiscountAmount,
		DiscountPct:    it.DiscountPercentage,
		ValueScore:     it.ValueScore,
		RelevanceScore: it.RelevanceScore,
		URL:            it.URL,
	}
}

// FromItems flattens items preserving their order.
func FromItems(items []model.Item) []Record {
	out := make([]Record, len(items))
	for i, it := range items {
		out[i] = FromItem(it)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
