// internal/optimizer/projector.go
package optimizer

import (
	"basket-optimizer/internal/models"
)

// Project maps selected ids back to catalog records in catalog order. Each
// selected id is emitted exactly once, from its first catalog record, which
// is the only record BuildSolverItems lets into the pool. Ids that are not in
// the catalog are never emitted.
func Project(catalog []models.CatalogItem, selected []string, opts Options) []models.OutputRecord {
	want := make(map[string]bool, len(selected))
	for _, id := range selected {
		want[id] = true
	}

	out := make([]models.OutputRecord, 0, len(selected))
	for i := range catalog {
		it := catalog[i]
		if !want[it.ID] {
			continue
		}
		delete(want, it.ID)
		if it.Price == nil || it.Price.IsNegative() {
			continue
		}

		out = append(out, models.OutputRecord{
			ID:     it.ID,
			Genre:  it.DisplayGenre(),
			Name:   it.Name,
			Price:  opts.roundPrice(*it.Price),
			ImgURL: it.ImgURL,
		})
	}
	return out
}

// Summarize converts a solution into the structured result shape. The
// aggregate health is only reported for health-mode baskets.
func Summarize(sol *Solution) models.BasketSummary {
	summary := models.BasketSummary{
		Mode:           sol.Mode,
		AggregateSpend: sol.AggregateSpend,
		SelectedIDs:    append([]string{}, sol.SelectedIDs...),
	}
	if sol.Mode == models.ModeHealth {
		h := sol.AggregateHealth
		summary.AggregateHealth = &h
	}
	return summary
}
