// internal/optimizer/options.go
package optimizer

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PercentilePair holds the clipping percentiles used by the normalizer.
type PercentilePair struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

var (
	// PercentilesP10P90 is the default pair.
	PercentilesP10P90 = PercentilePair{Low: 10, High: 90}
	// PercentilesP1P99 clips only the extreme tails.
	PercentilesP1P99 = PercentilePair{Low: 1, High: 99}
)

// ParsePercentilePair resolves a named pair ("p10-p90", "p1-p99").
func ParsePercentilePair(name string) (PercentilePair, error) {
	switch name {
	case "", "p10-p90":
		return PercentilesP10P90, nil
	case "p1-p99":
		return PercentilesP1P99, nil
	}
	return PercentilePair{}, fmt.Errorf("unknown percentile pair %q", name)
}

// RoundingMode controls how fractional prices become integers.
type RoundingMode string

const (
	RoundHalfUp   RoundingMode = "half-up"
	RoundHalfEven RoundingMode = "half-even"
)

// FallbackPolicy decides what happens when a health-mode request has no
// health-eligible items.
type FallbackPolicy string

const (
	// FallbackNone fails the request with ErrNoEligibleItems.
	FallbackNone FallbackPolicy = "none"
	// FallbackPriceOnly reruns the request in price-only mode.
	FallbackPriceOnly FallbackPolicy = "price-only"
)

const (
	DefaultEpsilon         = 1e-9
	DefaultSolveTimeout    = 10 * time.Second
	DefaultMinNoveltyRatio = 0.3
)

// Options is the engine configuration object.
type Options struct {
	Percentiles     PercentilePair
	Epsilon         float64
	Rounding        RoundingMode
	HealthFallback  FallbackPolicy
	SolveTimeout    time.Duration
	MinNoveltyRatio float64
}

func DefaultOptions() Options {
	return Options{
		Percentiles:     PercentilesP10P90,
		Epsilon:         DefaultEpsilon,
		Rounding:        RoundHalfUp,
		HealthFallback:  FallbackNone,
		SolveTimeout:    DefaultSolveTimeout,
		MinNoveltyRatio: DefaultMinNoveltyRatio,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	p := o.Percentiles
	if p.Low < 0 || p.High > 100 || p.Low >= p.High {
		return fmt.Errorf("%w: percentiles must satisfy 0 <= low < high <= 100, got %v/%v", ErrInvalidOptions, p.Low, p.High)
	}
	if o.Epsilon < 0 {
		return fmt.Errorf("%w: epsilon must be non-negative", ErrInvalidOptions)
	}
	switch o.Rounding {
	case RoundHalfUp, RoundHalfEven:
	default:
		return fmt.Errorf("%w: unknown rounding mode %q", ErrInvalidOptions, o.Rounding)
	}
	switch o.HealthFallback {
	case FallbackNone, FallbackPriceOnly:
	default:
		return fmt.Errorf("%w: unknown health fallback %q", ErrInvalidOptions, o.HealthFallback)
	}
	if o.SolveTimeout <= 0 {
		return fmt.Errorf("%w: solve timeout must be positive", ErrInvalidOptions)
	}
	if o.MinNoveltyRatio < 0 || o.MinNoveltyRatio > 1 {
		return fmt.Errorf("%w: novelty ratio must be within [0,1]", ErrInvalidOptions)
	}
	return nil
}

// roundPrice converts a price to whole currency units.
func (o Options) roundPrice(d decimal.Decimal) int64 {
	if o.Rounding == RoundHalfEven {
		return d.RoundBank(0).IntPart()
	}
	return d.Round(0).IntPart()
}
