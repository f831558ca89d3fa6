// internal/workers/basket/optimize-basket/models.go
package optimizebasket

import "basket-optimizer/internal/models"

type Input struct {
	UserID             string               `json:"userId,omitempty"`
	Budget             *int64               `json:"budget,omitempty"`
	IsHealthImportance bool                 `json:"isHealthImportance"`
	Genres             []string             `json:"genres,omitempty"`
	Preferences        models.Preference    `json:"preferences,omitempty"`
	Catalog            []models.CatalogItem `json:"catalog,omitempty"`
	AvoidRepeats       bool                 `json:"avoidRepeats,omitempty"`
	ResultShape        string               `json:"resultShape,omitempty"`
}

type Output struct {
	Mode            models.BasketMode     `json:"mode"`
	Budget          int64                 `json:"budget"`
	AggregateHealth *float64              `json:"aggregateHealth,omitempty"`
	AggregateSpend  int64                 `json:"aggregateSpend"`
	SelectedIDs     []string              `json:"selectedIds"`
	Items           []models.OutputRecord `json:"items,omitempty"`
	Skipped         int                   `json:"skipped"`
	FellBackToPrice bool                  `json:"fellBackToPrice,omitempty"`
	AvoidedBasketID string                `json:"avoidedBasketId,omitempty"`
}

// Result shapes
const (
	ShapeSummary = "summary"
	ShapeItems   = "items"
	ShapeBoth    = "both"
)
