// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Optimization outcomes
const (
	ErrCodeNoEligibleItems        ErrorCode = "NO_ELIGIBLE_ITEMS"
	ErrCodeBudgetInsufficient     ErrorCode = "BUDGET_INSUFFICIENT"
	ErrCodeCategoryUnsatisfiable  ErrorCode = "CATEGORY_UNSATISFIABLE"
	ErrCodeOptimizationInfeasible ErrorCode = "OPTIMIZATION_INFEASIBLE"
	ErrCodeSolverTimeout          ErrorCode = "SOLVER_TIMEOUT"
	ErrCodeInvalidInput           ErrorCode = "INVALID_INPUT"
)

// Storage and delivery
const (
	ErrCodeCatalogLoadFailed       ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodePreferencesLookupFailed ErrorCode = "PREFERENCES_LOOKUP_FAILED"
	ErrCodeHistoryWriteFailed      ErrorCode = "HISTORY_WRITE_FAILED"
	ErrCodeHistoryLookupFailed     ErrorCode = "HISTORY_LOOKUP_FAILED"
	ErrCodeNotificationSendFailed  ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// Generic
const (
	ErrCodeBusinessRuleViolation ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeExternalService       ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout               ErrorCode = "TIMEOUT_ERROR"
	ErrCodeResourceNotFound      ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoEligibleItemsError is returned when filtering leaves nothing to optimize over.
func NewNoEligibleItemsError(details string) *StandardError {
	return newError(ErrCodeNoEligibleItems, "No eligible items to build a basket from", details, false)
}

// NewBudgetInsufficientError is returned when the budget cannot cover the requested categories.
func NewBudgetInsufficientError(details string) *StandardError {
	return newError(ErrCodeBudgetInsufficient, "Budget is too small for the requested categories", details, false)
}

// NewCategoryUnsatisfiableError is returned when a requested category has no eligible items.
func NewCategoryUnsatisfiableError(details string) *StandardError {
	return newError(ErrCodeCategoryUnsatisfiable, "Requested category has no eligible items", details, false)
}

// NewOptimizationInfeasibleError covers every other proven infeasibility.
func NewOptimizationInfeasibleError(details string) *StandardError {
	return newError(ErrCodeOptimizationInfeasible, "No basket satisfies the constraints", details, false)
}

// NewSolverTimeoutError is not retried: the same input would time out again.
func NewSolverTimeoutError(details string) *StandardError {
	return newError(ErrCodeSolverTimeout, "Solver timed out before proving optimality", details, false)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false)
}

// NewCatalogLoadFailedError creates a retryable catalog index error.
func NewCatalogLoadFailedError(err error) *StandardError {
	return newError(ErrCodeCatalogLoadFailed, "Catalog could not be loaded", err.Error(), true)
}

// NewPreferencesLookupFailedError creates a retryable preferences lookup error.
func NewPreferencesLookupFailedError(userID string, err error) *StandardError {
	return newError(ErrCodePreferencesLookupFailed, "User preferences could not be loaded",
		fmt.Sprintf("userId: %s, error: %s", userID, err.Error()), true)
}

// NewHistoryWriteFailedError creates a retryable database insert error.
func NewHistoryWriteFailedError(err error) *StandardError {
	return newError(ErrCodeHistoryWriteFailed, "Basket history insert failed", err.Error(), true)
}

func NewHistoryLookupFailedError(userID string, err error) *StandardError {
	return newError(ErrCodeHistoryLookupFailed, "Basket history lookup failed",
		fmt.Sprintf("userId: %s, error: %s", userID, err.Error()), true)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return newError(ErrCodeBusinessRuleViolation, message, details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), details, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes caught by
// boundary events in the basket process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNoEligibleItems:         "NO_ELIGIBLE_ITEMS",
	ErrCodeBudgetInsufficient:      "BUDGET_INSUFFICIENT",
	ErrCodeCategoryUnsatisfiable:   "CATEGORY_UNSATISFIABLE",
	ErrCodeOptimizationInfeasible:  "OPTIMIZATION_INFEASIBLE",
	ErrCodeSolverTimeout:           "SOLVER_TIMEOUT",
	ErrCodeInvalidInput:            "INVALID_INPUT",
	ErrCodeCatalogLoadFailed:       "CATALOG_LOAD_FAILED",
	ErrCodePreferencesLookupFailed: "PREFERENCES_LOOKUP_FAILED",
	ErrCodeHistoryWriteFailed:      "HISTORY_WRITE_FAILED",
	ErrCodeHistoryLookupFailed:     "HISTORY_LOOKUP_FAILED",
	ErrCodeNotificationSendFailed:  "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogLoadFailed,
		ErrCodePreferencesLookupFailed,
		ErrCodeHistoryWriteFailed,
		ErrCodeHistoryLookupFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeExternalService:
		return 3 // Retryable technical errors

	case ErrCodeTimeout:
		return 2

	default:
		return 0 // Optimization and business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeNoEligibleItems ||
		code == ErrCodeBudgetInsufficient ||
		code == ErrCodeCategoryUnsatisfiable ||
		code == ErrCodeOptimizationInfeasible ||
		code == ErrCodeSolverTimeout:
		return "OPTIMIZATION"
	case strings.Contains(codeStr, "CATALOG"):
		return "SEARCH"
	case strings.Contains(codeStr, "PREFERENCES") || strings.Contains(codeStr, "HISTORY"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "TIMEOUT") || strings.Contains(codeStr, "EXTERNAL"):
		return "EXTERNAL"
	default:
		return "BUSINESS"
	}
}
