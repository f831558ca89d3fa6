// internal/common/errors/optimizer.go
package errors

import (
	stderrors "errors"

	"basket-optimizer/internal/optimizer"
)

// FromOptimizerError maps an optimizer failure to a StandardError. The more
// specific infeasibility causes are checked before the generic one.
func FromOptimizerError(err error) *StandardError {
	if err == nil {
		return nil
	}

	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	switch {
	case stderrors.Is(err, optimizer.ErrCategoryUnsatisfiable):
		return NewCategoryUnsatisfiableError(err.Error())
	case stderrors.Is(err, optimizer.ErrBudgetTooSmall):
		return NewBudgetInsufficientError(err.Error())
	case stderrors.Is(err, optimizer.ErrInfeasible):
		return NewOptimizationInfeasibleError(err.Error())
	case stderrors.Is(err, optimizer.ErrNoEligibleItems):
		return NewNoEligibleItemsError(err.Error())
	case stderrors.Is(err, optimizer.ErrSolverTimeout):
		return NewSolverTimeoutError(err.Error())
	case stderrors.Is(err, optimizer.ErrInvalidRequest),
		stderrors.Is(err, optimizer.ErrInvalidOptions):
		return NewInvalidInputError(err.Error())
	}

	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}
