package engine

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failure produced while computing or executing a plan
// wraps exactly one of these, so callers can classify it with errors.Is.
var (
	// ErrInvalidExpression marks malformed desired-state syntax.
	ErrInvalidExpression = errors.New("invalid desired-state expression")
	// ErrUnknownNote marks a Note identifier missing from the inventory.
	ErrUnknownNote = errors.New("unknown Note")
	// ErrUnknownSolution marks a Solution identifier missing from the inventory.
	ErrUnknownSolution = errors.New("unknown Solution")
	// ErrMultipleSolutions marks an expression naming more than one Solution.
	ErrMultipleSolutions = errors.New("only one Solution is allowed")

	// ErrInventoryUnavailable marks a failure to enumerate Notes or Solutions.
	ErrInventoryUnavailable = errors.New("inventory unavailable")
	// ErrStatusUnavailable marks a missing, malformed or empty status payload.
	ErrStatusUnavailable = errors.New("status unavailable")

	// ErrNonCompliant marks a tuning that does not match the live system.
	ErrNonCompliant = errors.New("tuning is non-compliant")
	// ErrSystemDegraded marks a degraded systemd system state.
	ErrSystemDegraded = errors.New("systemd system state is degraded")

	// ErrCommandFailed marks a plan command that exited non-zero.
	ErrCommandFailed = errors.New("command failed")
)

// ExpressionError reports which entry of a desired-state expression was rejected.
type ExpressionError struct {
	// Index is the position of the entry in the expression.
	Index int
	// Entry is the raw entry as given by the user.
	Entry string
	// Reason is an optional human readable explanation.
	Reason string
	// Err is one of ErrInvalidExpression, ErrUnknownNote, ErrUnknownSolution
	// or ErrMultipleSolutions.
	Err error
}

// Error implements the error interface.
func (e *ExpressionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("entry %d %q: %v: %s", e.Index, e.Entry, e.Err, e.Reason)
	}
	return fmt.Sprintf("entry %d %q: %v", e.Index, e.Entry, e.Err)
}

// Unwrap returns the taxonomy sentinel.
func (e *ExpressionError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err rejects the desired state itself,
// as opposed to a collaborator or post-condition failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidExpression) ||
		errors.Is(err, ErrUnknownNote) ||
		errors.Is(err, ErrUnknownSolution) ||
		errors.Is(err, ErrMultipleSolutions)
}
