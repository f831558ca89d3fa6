// internal/optimizer/builder.go
package optimizer

import (
	"sort"

	"basket-optimizer/internal/models"
)

// SolverItem is the reduced record the solver works on.
type SolverItem struct {
	ID          string
	Category    string
	Price       int64
	HealthScore *float64
}

// Diagnostic explains why an item was left out of the solver pool.
type Diagnostic struct {
	ItemID string `json:"itemId"`
	Reason string `json:"reason"`
}

const (
	ReasonMissingID     = "missing_id"
	ReasonDuplicateID   = "duplicate_id"
	ReasonMissingPrice  = "missing_price"
	ReasonNegativePrice = "negative_price"
	ReasonMissingHealth = "missing_health_score"
)

// BuildSolverItems turns normalized items into solver items sorted by id.
// Items that cannot take part in the optimization are dropped and reported
// through diagnostics; processing always continues with the remaining items.
func BuildSolverItems(items []models.NormalizedItem, requireHealth bool, opts Options) ([]SolverItem, []Diagnostic) {
	var (
		pool  = make([]SolverItem, 0, len(items))
		diags []Diagnostic
		seen  = make(map[string]bool, len(items))
	)

	for i := range items {
		it := items[i].Item

		if it.ID == "" {
			diags = append(diags, Diagnostic{Reason: ReasonMissingID})
			continue
		}
		// Only the first record of an id is ever a candidate, even when it is
		// dropped below; Project emits that same record.
		if seen[it.ID] {
			diags = append(diags, Diagnostic{ItemID: it.ID, Reason: ReasonDuplicateID})
			continue
		}
		seen[it.ID] = true

		switch {
		case it.Price == nil:
			diags = append(diags, Diagnostic{ItemID: it.ID, Reason: ReasonMissingPrice})
			continue
		case it.Price.IsNegative():
			diags = append(diags, Diagnostic{ItemID: it.ID, Reason: ReasonNegativePrice})
			continue
		case requireHealth && items[i].HealthScore == nil:
			diags = append(diags, Diagnostic{ItemID: it.ID, Reason: ReasonMissingHealth})
			continue
		}

		category := it.Category
		if category == "" {
			category = it.Genre
		}
		pool = append(pool, SolverItem{
			ID:          it.ID,
			Category:    category,
			Price:       opts.roundPrice(*it.Price),
			HealthScore: items[i].HealthScore,
		})
	}

	sort.Slice(pool, func(a, b int) bool { return pool[a].ID < pool[b].ID })
	return pool, diags
}
