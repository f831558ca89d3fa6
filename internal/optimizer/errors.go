// internal/optimizer/errors.go
package optimizer

import "errors"

var (
	ErrInvalidOptions = errors.New("invalid optimizer options")
	ErrInvalidRequest = errors.New("invalid optimization request")

	// ErrNoEligibleItems is returned when filtering leaves nothing to choose from.
	ErrNoEligibleItems = errors.New("no eligible items")

	// ErrInfeasible is returned when no selection satisfies the constraints.
	ErrInfeasible = errors.New("no feasible selection")
	// ErrBudgetTooSmall and ErrCategoryUnsatisfiable are always wrapped
	// together with ErrInfeasible.
	ErrBudgetTooSmall        = errors.New("budget too small to cover requested categories")
	ErrCategoryUnsatisfiable = errors.New("requested category has no eligible items")

	// ErrSolverTimeout is returned when optimality could not be certified in time.
	ErrSolverTimeout = errors.New("solver timed out before proving optimality")
)
