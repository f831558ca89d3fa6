// internal/optimizer/lexicographic.go
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"basket-optimizer/internal/common/logger"
	"basket-optimizer/internal/models"
)

// Constraints shared by every solve stage.
type Constraints struct {
	Budget     int64
	Categories []string
	// Previous is the id set of an earlier basket. When non-empty, at most
	// p - ceil(MinNoveltyRatio*p) of its p pool items may be chosen again.
	Previous []string
}

// Solution is the outcome of a solve.
type Solution struct {
	Mode            models.BasketMode `json:"mode"`
	SelectedIDs     []string          `json:"selectedIds"`
	AggregateHealth float64           `json:"aggregateHealth"`
	AggregateSpend  int64             `json:"aggregateSpend"`
	// HealthOptimum is the stage-1 optimum H* (health mode only).
	HealthOptimum float64 `json:"healthOptimum"`
	// SpendStageFallback is set when stage 2 was infeasible and the stage-1
	// selection was kept.
	SpendStageFallback bool          `json:"spendStageFallback,omitempty"`
	Nodes              int64         `json:"nodes"`
	Elapsed            time.Duration `json:"elapsed"`
}

// LexicographicSolver maximizes health first and spend second, or spend
// alone in price-only mode.
type LexicographicSolver struct {
	strategy Strategy
	opts     Options
	logger   logger.Logger
}

func NewLexicographicSolver(strategy Strategy, opts Options, log logger.Logger) *LexicographicSolver {
	if strategy == nil {
		strategy = NewBranchAndBound()
	}
	return &LexicographicSolver{
		strategy: strategy,
		opts:     opts,
		logger:   log,
	}
}

// Solve selects a basket from items, which must be sorted by id.
func (s *LexicographicSolver) Solve(ctx context.Context, items []SolverItem, c Constraints, mode models.BasketMode) (*Solution, error) {
	if len(items) == 0 {
		return nil, ErrNoEligibleItems
	}
	if c.Budget < 0 {
		return nil, fmt.Errorf("%w: negative budget %d", ErrInvalidRequest, c.Budget)
	}

	base, err := s.baseProblem(items, c)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.SolveTimeout)
	defer cancel()
	start := time.Now()

	var sol *Solution
	switch mode {
	case models.ModePrice:
		sol, err = s.solvePrice(ctx, items, base)
	case models.ModeHealth:
		sol, err = s.solveHealth(ctx, items, base)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, mode)
	}
	if err != nil {
		return nil, err
	}
	sol.Elapsed = time.Since(start)
	return sol, nil
}

// baseProblem fills in prices and the shared constraints, and diagnoses the
// infeasibilities that can be named before searching.
func (s *LexicographicSolver) baseProblem(items []SolverItem, c Constraints) (*Problem, error) {
	n := len(items)
	p := &Problem{
		Price:  make([]int64, n),
		Budget: c.Budget,
	}
	for i := range items {
		p.Price[i] = items[i].Price
	}

	groupOf := make(map[string]int, len(c.Categories))
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		if _, dup := groupOf[cat]; dup {
			continue
		}
		groupOf[cat] = len(names)
		names = append(names, cat)
	}

	if len(names) > 0 {
		p.Groups = len(names)
		p.Group = make([]int, n)
		cheapest := make([]int64, len(names))
		for g := range cheapest {
			cheapest[g] = -1
		}
		for i := range items {
			g, ok := groupOf[items[i].Category]
			if !ok {
				p.Group[i] = -1
				continue
			}
			p.Group[i] = g
			if cheapest[g] < 0 || items[i].Price < cheapest[g] {
				cheapest[g] = items[i].Price
			}
		}

		var need int64
		for g, m := range cheapest {
			if m < 0 {
				return nil, fmt.Errorf("%w: %w: %q", ErrInfeasible, ErrCategoryUnsatisfiable, names[g])
			}
			need += m
		}
		if need > c.Budget {
			return nil, fmt.Errorf("%w: %w: cheapest cover costs %d, budget is %d", ErrInfeasible, ErrBudgetTooSmall, need, c.Budget)
		}
	}

	if len(c.Previous) > 0 {
		prev := make(map[string]bool, len(c.Previous))
		for _, id := range c.Previous {
			prev[id] = true
		}
		capped := make([]bool, n)
		count := 0
		for i := range items {
			if prev[items[i].ID] {
				capped[i] = true
				count++
			}
		}
		if count > 0 {
			p.Capped = capped
			p.Cap = count - int(math.Ceil(s.opts.MinNoveltyRatio*float64(count)))
		}
	}
	return p, nil
}

func (s *LexicographicSolver) solvePrice(ctx context.Context, items []SolverItem, base *Problem) (*Solution, error) {
	p := *base
	p.Objective = priceObjective(items)
	p.Integral = true

	a, err := s.strategy.Solve(ctx, &p)
	if err != nil {
		return nil, err
	}

	sol := s.solution(items, a.Selected, models.ModePrice)
	sol.Nodes = a.Nodes
	s.logger.Info("price stage solved", map[string]interface{}{
		"selected": len(sol.SelectedIDs),
		"spend":    sol.AggregateSpend,
		"nodes":    a.Nodes,
	})
	return sol, nil
}

func (s *LexicographicSolver) solveHealth(ctx context.Context, items []SolverItem, base *Problem) (*Solution, error) {
	health := make([]float64, len(items))
	for i := range items {
		if items[i].HealthScore != nil {
			health[i] = *items[i].HealthScore
		}
	}

	stage1 := *base
	stage1.Objective = health
	a1, err := s.strategy.Solve(ctx, &stage1)
	if err != nil {
		return nil, err
	}
	first := s.solution(items, a1.Selected, models.ModeHealth)
	hStar := first.AggregateHealth
	s.logger.Info("health stage solved", map[string]interface{}{
		"healthOptimum": hStar,
		"spend":         first.AggregateSpend,
		"nodes":         a1.Nodes,
	})

	stage2 := *base
	stage2.Objective = priceObjective(items)
	stage2.Integral = true
	stage2.Floor = health
	stage2.FloorMin = hStar - s.opts.Epsilon
	stage2.Seed = a1.Selected

	a2, err := s.strategy.Solve(ctx, &stage2)
	switch {
	case errors.Is(err, ErrInfeasible):
		s.logger.Warn("spend stage infeasible, keeping health stage selection", map[string]interface{}{
			"healthOptimum": hStar,
		})
		first.HealthOptimum = hStar
		first.SpendStageFallback = true
		first.Nodes = a1.Nodes
		return first, nil
	case err != nil:
		return nil, err
	}

	sol := s.solution(items, a2.Selected, models.ModeHealth)
	sol.HealthOptimum = hStar
	sol.Nodes = a1.Nodes + a2.Nodes
	s.logger.Info("spend stage solved", map[string]interface{}{
		"health": sol.AggregateHealth,
		"spend":  sol.AggregateSpend,
		"nodes":  a2.Nodes,
	})
	return sol, nil
}

func priceObjective(items []SolverItem) []float64 {
	obj := make([]float64, len(items))
	for i := range items {
		obj[i] = float64(items[i].Price)
	}
	return obj
}

// solution collects the selected ids in pool (id) order and sums their
// price and health in that order.
func (s *LexicographicSolver) solution(items []SolverItem, selected []bool, mode models.BasketMode) *Solution {
	sol := &Solution{
		Mode:        mode,
		SelectedIDs: []string{},
	}
	for i, on := range selected {
		if !on {
			continue
		}
		sol.SelectedIDs = append(sol.SelectedIDs, items[i].ID)
		sol.AggregateSpend += items[i].Price
		if items[i].HealthScore != nil {
			sol.AggregateHealth += *items[i].HealthScore
		}
	}
	return sol
}
