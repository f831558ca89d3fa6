// internal/optimizer/builder_test.go
package optimizer

import (
	"testing"

	"basket-optimizer/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalized(id string, price *decimal.Decimal, score *float64) models.NormalizedItem {
	return models.NormalizedItem{
		Item: models.CatalogItem{
			ID:       id,
			Category: "snacks",
			Price:    price,
		},
		HealthScore: score,
	}
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func floatPtr(f float64) *float64 { return &f }

func TestBuildSolverItems_DropsInvalidItems(t *testing.T) {
	items := []models.NormalizedItem{
		normalized("c", decimalPtr("300"), floatPtr(0.2)),
		normalized("", decimalPtr("100"), floatPtr(0.5)),
		normalized("a", nil, floatPtr(0.5)),
		normalized("b", decimalPtr("-5"), floatPtr(0.5)),
		normalized("d", decimalPtr("120"), nil),
		normalized("c", decimalPtr("10"), floatPtr(0.9)),
		normalized("e", decimalPtr("99.4"), floatPtr(1)),
	}

	tests := []struct {
		name          string
		requireHealth bool
		expectedIDs   []string
		expectedDrops map[string]string
	}{
		{
			name:          "price mode keeps unscored items",
			requireHealth: false,
			expectedIDs:   []string{"c", "d", "e"},
			expectedDrops: map[string]string{
				"":  ReasonMissingID,
				"a": ReasonMissingPrice,
				"b": ReasonNegativePrice,
				"c": ReasonDuplicateID,
			},
		},
		{
			name:          "health mode drops unscored items",
			requireHealth: true,
			expectedIDs:   []string{"c", "e"},
			expectedDrops: map[string]string{
				"":  ReasonMissingID,
				"a": ReasonMissingPrice,
				"b": ReasonNegativePrice,
				"c": ReasonDuplicateID,
				"d": ReasonMissingHealth,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, diags := BuildSolverItems(items, tt.requireHealth, DefaultOptions())

			ids := make([]string, 0, len(pool))
			for _, it := range pool {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)

			drops := map[string]string{}
			for _, d := range diags {
				drops[d.ItemID] = d.Reason
			}
			assert.Equal(t, tt.expectedDrops, drops)

			for _, it := range pool {
				if it.ID == "c" {
					assert.Equal(t, int64(300), it.Price, "first occurrence wins")
				}
				if it.ID == "e" {
					assert.Equal(t, int64(99), it.Price)
				}
			}
		})
	}
}

func TestBuildSolverItems_DroppedRecordKeepsItsID(t *testing.T) {
	tests := []struct {
		name          string
		items         []models.NormalizedItem
		requireHealth bool
	}{
		{
			name: "unscored first record",
			items: []models.NormalizedItem{
				normalized("a", decimalPtr("100"), nil),
				normalized("a", decimalPtr("200"), floatPtr(0.9)),
			},
			requireHealth: true,
		},
		{
			name: "unpriced first record",
			items: []models.NormalizedItem{
				normalized("a", nil, floatPtr(0.5)),
				normalized("a", decimalPtr("200"), floatPtr(0.9)),
			},
		},
		{
			name: "negative first record",
			items: []models.NormalizedItem{
				normalized("a", decimalPtr("-1"), floatPtr(0.5)),
				normalized("a", decimalPtr("200"), floatPtr(0.9)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, diags := BuildSolverItems(tt.items, tt.requireHealth, DefaultOptions())

			assert.Empty(t, pool)
			require.Len(t, diags, 2)
			assert.NotEqual(t, ReasonDuplicateID, diags[0].Reason)
			assert.Equal(t, Diagnostic{ItemID: "a", Reason: ReasonDuplicateID}, diags[1])
		})
	}
}

func TestBuildSolverItems_Rounding(t *testing.T) {
	tests := []struct {
		name     string
		mode     RoundingMode
		price    string
		expected int64
	}{
		{name: "half up rounds .5 away from zero", mode: RoundHalfUp, price: "100.5", expected: 101},
		{name: "half up on odd", mode: RoundHalfUp, price: "101.5", expected: 102},
		{name: "half even rounds .5 to even", mode: RoundHalfEven, price: "100.5", expected: 100},
		{name: "half even on odd", mode: RoundHalfEven, price: "101.5", expected: 102},
		{name: "below half", mode: RoundHalfUp, price: "99.49", expected: 99},
		{name: "integer unchanged", mode: RoundHalfUp, price: "250", expected: 250},
		{name: "zero", mode: RoundHalfUp, price: "0", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Rounding = tt.mode

			pool, diags := BuildSolverItems([]models.NormalizedItem{
				normalized("x", decimalPtr(tt.price), nil),
			}, false, opts)

			assert.Empty(t, diags)
			require.Len(t, pool, 1)
			assert.Equal(t, tt.expected, pool[0].Price)
		})
	}
}

func TestBuildSolverItems_CategoryFallsBackToGenre(t *testing.T) {
	item := normalized("x", decimalPtr("10"), nil)
	item.Item.Category = ""
	item.Item.Genre = "drinks"

	pool, _ := BuildSolverItems([]models.NormalizedItem{item}, false, DefaultOptions())
	require.Len(t, pool, 1)
	assert.Equal(t, "drinks", pool[0].Category)
}
