// internal/optimizer/engine.go

// Package optimizer picks a budget-bounded basket of catalog items that is
// as healthy as possible for a shopper's nutrient preferences and, among the
// healthiest baskets, spends the most of the budget.
package optimizer

import (
	"context"
	"fmt"

	"basket-optimizer/internal/common/logger"
	"basket-optimizer/internal/models"
)

// Request is one basket optimization.
type Request struct {
	Catalog     []models.CatalogItem
	Preferences models.Preference
	Budget      int64
	HealthMode  bool
	Categories  []string
	// PreviousSelection enables the novelty constraint.
	PreviousSelection []string
}

// Result carries both output shapes plus what was learned along the way.
type Result struct {
	Solution    *Solution
	Summary     models.BasketSummary
	Items       []models.OutputRecord
	Diagnostics []Diagnostic
	Bounds      []Bounds
	// FellBackToPrice is set when a health request ran in price-only mode.
	FellBackToPrice bool
}

// Engine runs normalize, build, solve and project.
type Engine struct {
	opts   Options
	solver *LexicographicSolver
	logger logger.Logger
}

// NewEngine validates opts and wires the given strategy (branch-and-bound
// when nil).
func NewEngine(opts Options, strategy Strategy, log logger.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		opts:   opts,
		solver: NewLexicographicSolver(strategy, opts, log),
		logger: log,
	}, nil
}

// Options returns the engine configuration.
func (e *Engine) Options() Options { return e.opts }

func (e *Engine) Optimize(ctx context.Context, req Request) (*Result, error) {
	if req.Budget < 0 {
		return nil, fmt.Errorf("%w: negative budget %d", ErrInvalidRequest, req.Budget)
	}
	if len(req.Catalog) == 0 {
		return nil, fmt.Errorf("%w: empty catalog", ErrNoEligibleItems)
	}

	bounds := ComputeBounds(req.Catalog, req.Preferences, e.opts.Percentiles)
	normalized := applyBounds(req.Catalog, bounds)

	mode := models.ModePrice
	if req.HealthMode {
		mode = models.ModeHealth
	}

	pool, diags := BuildSolverItems(normalized, mode == models.ModeHealth, e.opts)
	fellBack := false
	if len(pool) == 0 && mode == models.ModeHealth && e.opts.HealthFallback == FallbackPriceOnly {
		e.logger.Warn("no health-scored items, falling back to price-only mode", map[string]interface{}{
			"catalogSize":     len(req.Catalog),
			"activeNutrients": len(bounds),
		})
		mode = models.ModePrice
		fellBack = true
		pool, diags = BuildSolverItems(normalized, false, e.opts)
	}
	if len(diags) > 0 {
		e.logger.Debug("items dropped from solver pool", map[string]interface{}{
			"dropped": len(diags),
			"kept":    len(pool),
		})
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: all %d catalog items were filtered out", ErrNoEligibleItems, len(req.Catalog))
	}

	sol, err := e.solver.Solve(ctx, pool, Constraints{
		Budget:     req.Budget,
		Categories: req.Categories,
		Previous:   req.PreviousSelection,
	}, mode)
	if err != nil {
		return nil, err
	}

	return &Result{
		Solution:        sol,
		Summary:         Summarize(sol),
		Items:           Project(req.Catalog, sol.SelectedIDs, e.opts),
		Diagnostics:     diags,
		Bounds:          bounds,
		FellBackToPrice: fellBack,
	}, nil
}
