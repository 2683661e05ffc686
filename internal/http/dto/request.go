package dto

import (
	"time"

	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/service"
)

type CreateRequestRequest struct {
	Topic string `json:"topic" binding:"required,min=1,max=500"`
}

type ItemResponse struct {
	ID                 int64    `json:"id,string"`
	Position           int      `json:"position"`
	Title              string   `json:"title"`
	URL                string   `json:"url"`
	Price              *float64 `json:"price"`
	OriginalPrice      *float64 `json:"original_price"`
	Description        *string  `json:"description"`
	Author             *string  `json:"author"`
	Summary            *string  `json:"summary"`
	DiscountAmount     *float64 `json:"discount_amount"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	RelevanceScore     *float64 `json:"relevance_score"`
	ValueScore         *float64 `json:"value_score"`
}

type RequestResponse struct {
	ID        int64          `json:"id,string"`
	Topic     string         `json:"topic"`
	Status    string         `json:"status"`
	Error     *string        `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Items     []ItemResponse `json:"items,omitempty"`
}

func ToRequestResponse(req *model.Request) *RequestResponse {
	return &RequestResponse{
		ID:        req.ID,
		Topic:     req.Topic,
		Status:    string(req.Status),
		Error:     req.Error,
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}
}

func ToRequestDetailResponse(d *service.RequestDetail) *RequestResponse {
	resp := ToRequestResponse(d.Request)
	if len(d.Items) == 0 {
		return resp
	}
	resp.Items = make([]ItemResponse, len(d.Items))
	for i, it := range d.Items {
		resp.Items[i] = ItemResponse{
			ID:                 it.ID,
			Position:           it.Position,
			Title:              it.Title,
			URL:                it.URL,
			Price:              it.Price,
			OriginalPrice:      it.OriginalPrice,
			Description:        it.Description,
			Author:             it.Author,
			Summary:            it.Summary,
			DiscountAmount:     it.DiscountAmount,
			DiscountPercentage: it.DiscountPercentage,
			RelevanceScore:     it.RelevanceScore,
			ValueScore:         it.ValueScore,
		}
	}
	return resp
}
