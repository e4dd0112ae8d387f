// Package market holds the snapshot pipeline's pure logic: listing
// filtering, statistical aggregation, and cross-snapshot trend analysis.
package market

import (
	"errors"
	"fmt"
)

// Code identifies an expected, recoverable pipeline outcome. Each code maps
// to a distinct operator-facing message when reported through the notifier.
type Code string

const (
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	CodeEmptyDataset        Code = "EMPTY_DATASET"
	CodeInsufficientHistory Code = "INSUFFICIENT_HISTORY"
	CodeDuplicateDate       Code = "DUPLICATE_DATE"
	CodePersistenceFailure  Code = "PERSISTENCE_FAILURE"
	CodeDeliveryFailure     Code = "DELIVERY_FAILURE"
)

// Condition is an expected pipeline outcome carried as an error value.
// Callers branch on the code instead of crashing; only errors without a
// condition code are treated as unexpected.
type Condition struct {
	Code    Code
	Message string
	cause   error
}

// NewCondition creates a condition with no underlying cause.
func NewCondition(code Code, message string) *Condition {
	return &Condition{Code: code, Message: message}
}

// WrapCondition attaches a condition code to an underlying error.
func WrapCondition(code Code, err error, message string) *Condition {
	return &Condition{Code: code, Message: message, cause: err}
}

func (c *Condition) Error() string {
	if c.cause != nil {
		return fmt.Sprintf("%s: %s: %v", c.Code, c.Message, c.cause)
	}
	return fmt.Sprintf("%s: %s", c.Code, c.Message)
}

func (c *Condition) Unwrap() error {
	return c.cause
}

// CodeOf returns the condition code carried by err, or "" when err is not a
// condition.
func CodeOf(err error) Code {
	var cond *Condition
	if errors.As(err, &cond) {
		return cond.Code
	}
	return ""
}

// IsCondition reports whether err carries the given condition code.
func IsCondition(err error, code Code) bool {
	return CodeOf(err) == code
}
