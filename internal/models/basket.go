// internal/models/basket.go
package models

import "time"

// BasketMode identifies which objective produced a basket.
type BasketMode string

const (
	ModeHealth BasketMode = "health"
	ModePrice  BasketMode = "price"
)

// OutputRecord is the per-item shape returned to callers.
type OutputRecord struct {
	ID     string `json:"id"`
	Genre  string `json:"genre"`
	Name   string `json:"name"`
	Price  int64  `json:"price"`
	ImgURL string `json:"imgUrl"`
}

// BasketSummary is the structured result shape.
type BasketSummary struct {
	Mode            BasketMode `json:"mode"`
	AggregateHealth *float64   `json:"aggregateHealth,omitempty"`
	AggregateSpend  int64      `json:"aggregateSpend"`
	SelectedIDs     []string   `json:"selectedIds"`
}

// BasketRecord is a persisted basket in basket_history.
type BasketRecord struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Mode            BasketMode `json:"mode"`
	Budget          int64      `json:"budget"`
	AggregateSpend  int64      `json:"aggregateSpend"`
	AggregateHealth *float64   `json:"aggregateHealth,omitempty"`
	ItemIDs         []string   `json:"itemIds"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// UserContact holds the delivery addresses of a shopper.
type UserContact struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}
