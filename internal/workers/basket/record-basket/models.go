// internal/workers/basket/record-basket/models.go
package recordbasket

import "basket-optimizer/internal/models"

// Input mirrors the optimize-basket output plus the owning user.
type Input struct {
	UserID          string            `json:"userId"`
	Mode            models.BasketMode `json:"mode"`
	Budget          int64             `json:"budget"`
	AggregateSpend  int64             `json:"aggregateSpend"`
	AggregateHealth *float64          `json:"aggregateHealth,omitempty"`
	SelectedIDs     []string          `json:"selectedIds"`
}

type Output struct {
	BasketID   string `json:"basketId"`
	RecordedAt string `json:"recordedAt"` // ISO 8601
}
