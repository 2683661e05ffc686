package sqlc

import (
	"time"
)

type Item struct {
	ID                 int64     `json:"id"`
	RequestID          int64     `json:"request_id"`
	Position           int32     `json:"position"`
	Title              string    `json:"title"`
	Url                string    `json:"url"`
	Price              *float64  `json:"price"`
	OriginalPrice      *float64  `json:"original_price"`
	Description        *string   `json:"description"`
	Author             *string   `json:"author"`
	Summary            *string   `json:"summary"`
	DiscountAmount     *float64  `json:"discount_amount"`
	DiscountPercentage *float64  `json:"discount_percentage"`
	RelevanceScore     *float64  `json:"relevance_score"`
	ValueScore         *float64  `json:"value_score"`
	CreatedAt          time.Time `json:"created_at"`
}

type Request struct {
	ID        int64     `json:"id"`
	Topic     string    `json:"topic"`
	Status    string    `json:"status"`
	Error     *string   `json:"error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
