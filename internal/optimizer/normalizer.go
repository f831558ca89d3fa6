// internal/optimizer/normalizer.go
package optimizer

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"basket-optimizer/internal/models"
)

// Bounds are the clipping bounds of one active nutrient.
type Bounds struct {
	Nutrient  string           `json:"nutrient"`
	Direction models.Direction `json:"direction"`
	Low       float64          `json:"low"`
	High      float64          `json:"high"`
}

// ComputeBounds returns the bounds of every active nutrient in sorted key
// order. A nutrient is active when the preference marks it up or down and at
// least one item carries a usable value for it. Nutrients whose bounds
// coincide are left out because they cannot discriminate between items.
func ComputeBounds(items []models.CatalogItem, prefs models.Preference, pair PercentilePair) []Bounds {
	keys := prefs.Keys()
	out := make([]Bounds, 0, len(keys))

	for _, key := range keys {
		values := make([]float64, 0, len(items))
		for i := range items {
			if v, ok := NutrientValue(items[i].Nutrients[key]); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		sort.Float64s(values)

		low := percentile(values, pair.Low)
		high := percentile(values, pair.High)
		if low == high {
			continue
		}
		out = append(out, Bounds{
			Nutrient:  key,
			Direction: prefs[key],
			Low:       low,
			High:      high,
		})
	}
	return out
}

// Normalize attaches a health score to every item, preserving input order.
func Normalize(items []models.CatalogItem, prefs models.Preference, opts Options) []models.NormalizedItem {
	return applyBounds(items, ComputeBounds(items, prefs, opts.Percentiles))
}

func applyBounds(items []models.CatalogItem, bounds []Bounds) []models.NormalizedItem {
	out := make([]models.NormalizedItem, len(items))
	for i := range items {
		out[i] = models.NormalizedItem{
			Item:        items[i],
			HealthScore: scoreItem(items[i], bounds),
		}
	}
	return out
}

func scoreItem(item models.CatalogItem, bounds []Bounds) *float64 {
	var (
		sum   float64
		count int
	)
	for _, b := range bounds {
		v, ok := NutrientValue(item.Nutrients[b.Nutrient])
		if !ok {
			continue
		}
		sum += b.score(v)
		count++
	}
	if count == 0 {
		return nil
	}
	mean := sum / float64(count)
	return &mean
}

// score clips v into [Low, High] and scales it to [0,1].
func (b Bounds) score(v float64) float64 {
	span := b.High - b.Low
	if b.Direction == models.DirectionDown {
		switch {
		case v <= b.Low:
			return 1
		case v >= b.High:
			return 0
		}
		return (b.High - v) / span
	}
	switch {
	case v <= b.Low:
		return 0
	case v >= b.High:
		return 1
	}
	return (v - b.Low) / span
}

// percentile interpolates linearly between the closest ranks of an
// ascending slice, matching numpy's default method.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// NutrientValue parses a raw nutrient value. Missing, empty, boolean,
// non-numeric and non-finite values are reported as absent.
func NutrientValue(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
