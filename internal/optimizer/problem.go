// internal/optimizer/problem.go
package optimizer

import (
	"context"
	"fmt"
)

// Problem is a 0/1 selection program over n items:
//
//	maximize   Σ Objective[i]·x[i]
//	subject to Σ Price[i]·x[i] ≤ Budget
//	           Σ x[i] ≥ 1 over items with Group[i] == g, for every g < Groups
//	           Σ Floor[i]·x[i] ≥ FloorMin                  (if Floor != nil)
//	           Σ x[i] ≤ Cap over items with Capped[i]      (if Capped != nil)
type Problem struct {
	Price     []int64
	Objective []float64
	// Integral marks objectives that only take whole values, which lets the
	// search round its bounds down.
	Integral bool
	Budget   int64

	Group  []int // -1 when the item belongs to no required group
	Groups int

	Floor    []float64
	FloorMin float64

	Capped []bool
	Cap    int

	// Seed is an optional feasible starting selection.
	Seed []bool
}

// Assignment is a certified-optimal solution of a Problem.
type Assignment struct {
	Selected  []bool
	Objective float64
	Nodes     int64
}

// Strategy solves a Problem exactly. Implementations return ErrInfeasible
// when the program has no solution and ErrSolverTimeout when the context
// deadline expires before optimality is proven.
type Strategy interface {
	Solve(ctx context.Context, p *Problem) (*Assignment, error)
}

// Size returns the number of items.
func (p *Problem) Size() int { return len(p.Price) }

func (p *Problem) validate() error {
	n := len(p.Price)
	if len(p.Objective) != n {
		return fmt.Errorf("%w: objective has %d entries, want %d", ErrInvalidRequest, len(p.Objective), n)
	}
	if p.Budget < 0 {
		return fmt.Errorf("%w: negative budget %d", ErrInvalidRequest, p.Budget)
	}
	if p.Groups > 0 && len(p.Group) != n {
		return fmt.Errorf("%w: group has %d entries, want %d", ErrInvalidRequest, len(p.Group), n)
	}
	if p.Floor != nil && len(p.Floor) != n {
		return fmt.Errorf("%w: floor has %d entries, want %d", ErrInvalidRequest, len(p.Floor), n)
	}
	if p.Capped != nil && len(p.Capped) != n {
		return fmt.Errorf("%w: capped has %d entries, want %d", ErrInvalidRequest, len(p.Capped), n)
	}
	if p.Seed != nil && len(p.Seed) != n {
		return fmt.Errorf("%w: seed has %d entries, want %d", ErrInvalidRequest, len(p.Seed), n)
	}
	for i := 0; i < n; i++ {
		if p.Price[i] < 0 {
			return fmt.Errorf("%w: item %d has negative price", ErrInvalidRequest, i)
		}
		if p.Floor != nil && p.Floor[i] < 0 {
			return fmt.Errorf("%w: item %d has negative floor coefficient", ErrInvalidRequest, i)
		}
		if p.Groups > 0 && p.Group[i] >= p.Groups {
			return fmt.Errorf("%w: item %d has group %d out of range", ErrInvalidRequest, i, p.Group[i])
		}
	}
	return nil
}

// Feasible reports whether sel satisfies every constraint of p.
func (p *Problem) Feasible(sel []bool) bool {
	if len(sel) != len(p.Price) {
		return false
	}
	var (
		spend   int64
		floor   float64
		capped  int
		covered = make([]bool, p.Groups)
	)
	for i, on := range sel {
		if !on {
			continue
		}
		spend += p.Price[i]
		if p.Floor != nil {
			floor += p.Floor[i]
		}
		if p.Capped != nil && p.Capped[i] {
			capped++
		}
		if p.Groups > 0 && p.Group[i] >= 0 {
			covered[p.Group[i]] = true
		}
	}
	if spend > p.Budget {
		return false
	}
	for _, c := range covered {
		if !c {
			return false
		}
	}
	if p.Floor != nil && floor < p.FloorMin-floorSlack(p.FloorMin) {
		return false
	}
	if p.Capped != nil && capped > p.Cap {
		return false
	}
	return true
}

// Value evaluates the objective of sel.
func (p *Problem) Value(sel []bool) float64 {
	var v float64
	for i, on := range sel {
		if on {
			v += p.Objective[i]
		}
	}
	return v
}

// floorSlack absorbs summation-order differences when comparing float sums.
func floorSlack(floorMin float64) float64 {
	if floorMin < 0 {
		floorMin = -floorMin
	}
	if floorMin < 1 {
		floorMin = 1
	}
	return 1e-12 * floorMin
}
