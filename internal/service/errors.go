package service

import (
	"errors"
	"fmt"

	"github.com/noah-isme/revu-go-api/internal/utils"
)

// Sentinel errors surfaced to handlers. All of these are
// caller-correctable; none is retried inside the services.
var (
	ErrCycleNotFound      = errors.New("cycle not found")
	ErrAssignmentNotFound = errors.New("assignment not found in this cycle")
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrFormNotFound       = errors.New("form not found")
	ErrFieldDefNotFound   = errors.New("field definition not found")
	ErrUserNotFound       = errors.New("user not found")

	// ErrCycleNotActive guards every evaluation mutation.
	ErrCycleNotActive = errors.New("cycle is not ACTIVE")

	// ErrNotReviewer / ErrNotApprover are the role-guard failures of the
	// evaluation state machine.
	ErrNotReviewer = errors.New("only the assigned reviewer can perform this action")
	ErrNotApprover = errors.New("only the assigned approver can perform this action")

	// ErrFormNotAssigned / ErrFormInactive are schema-resolution failures.
	ErrFormNotAssigned = errors.New("cycle has no form template assigned")
	ErrFormInactive    = errors.New("form template not found or inactive")

	// ErrDuplicateEntity is a uniqueness violation surfaced on insert.
	ErrDuplicateEntity = errors.New("duplicate entity")

	// ErrIdempotencyKeyReuse means the same key arrived with a different
	// request body; never silently accepted.
	ErrIdempotencyKeyReuse = errors.New("idempotency key reuse with different request body")
	// ErrIdempotencyInFlight means a request with this key is still
	// running; the client should back off and retry.
	ErrIdempotencyInFlight = errors.New("request with this idempotency key is already in progress")
)

// StaleVersionError reports a version-guard failure. Expected is the
// stored version, Got the caller's If-Match value, so clients can offer
// refresh-and-reapply flows.
type StaleVersionError struct {
	Expected int
	Got      int
}

func (e *StaleVersionError) Error() string {
	return fmt.Sprintf("stale version: expected %d, got %d", e.Expected, e.Got)
}

// InvalidTransitionError reports a status-guard failure.
type InvalidTransitionError struct {
	Action string
	From   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s an evaluation in status %s", e.Action, e.From)
}

// ValidationError aggregates every field-level failure of one draft or
// submit validation pass.
type ValidationError struct {
	Message string
	Errors  []utils.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%d field errors)", e.Message, len(e.Errors))
}
