package apperrors

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the resource is in a state that does not allow the operation.
var ErrConflict = errors.New("conflict")

// ErrDependency indicates that a collaborator (e.g. the rate provider) could not supply required data.
var ErrDependency = errors.New("dependency unavailable")

// ErrInternal indicates an unexpected failure, usually from storage.
var ErrInternal = errors.New("internal error")

// Kind is the machine-readable name of an error surfaced by the ledger core.
type Kind string

const (
	KindUnbalancedEntry    Kind = "unbalanced_entry"
	KindInsufficientLines  Kind = "insufficient_lines"
	KindAmbiguousEmptyLine Kind = "ambiguous_empty_line"
	KindParentNotFound     Kind = "parent_not_found"
	KindCircularReference  Kind = "circular_reference"
	KindInvalidCurrency    Kind = "invalid_currency"
	KindDuplicate          Kind = "duplicate"
	KindNoRateAvailable    Kind = "no_rate_available"
	KindInvalidTransition  Kind = "invalid_transition"
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindInternal           Kind = "internal"
)

// KindOf returns the kind of the first typed error found in err's chain.
// Untyped errors are classified by the sentinel they wrap.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrDuplicate):
		return KindDuplicate
	case errors.Is(err, ErrConflict):
		return KindConflict
	}
	return KindInternal
}

// UnbalancedEntryError reports the first currency group of an entry whose lines do not net to zero.
type UnbalancedEntryError struct {
	Currency string
	Residual decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("journal entry does not balance in %s: residual %s", e.Currency, e.Residual.String())
}
func (e *UnbalancedEntryError) Kind() Kind    { return KindUnbalancedEntry }
func (e *UnbalancedEntryError) Unwrap() error { return ErrValidation }

// InsufficientLinesError is returned when fewer than two lines are supplied.
type InsufficientLinesError struct {
	Count int
}

func (e *InsufficientLinesError) Error() string {
	return fmt.Sprintf("at least two lines are required, got %d", e.Count)
}
func (e *InsufficientLinesError) Kind() Kind    { return KindInsufficientLines }
func (e *InsufficientLinesError) Unwrap() error { return ErrValidation }

// AmbiguousEmptyLineError is returned by the auto-balance calculator unless exactly one line is empty.
type AmbiguousEmptyLineError struct {
	EmptyCount int
}

func (e *AmbiguousEmptyLineError) Error() string {
	return fmt.Sprintf("exactly one line must have an empty amount, found %d", e.EmptyCount)
}
func (e *AmbiguousEmptyLineError) Kind() Kind    { return KindAmbiguousEmptyLine }
func (e *AmbiguousEmptyLineError) Unwrap() error { return ErrValidation }

// ParentNotFoundError is returned when a parent account does not exist in the caller's tenant.
type ParentNotFoundError struct {
	ParentID string
}

func (e *ParentNotFoundError) Error() string {
	return fmt.Sprintf("parent account %s not found", e.ParentID)
}
func (e *ParentNotFoundError) Kind() Kind    { return KindParentNotFound }
func (e *ParentNotFoundError) Unwrap() error { return ErrValidation }

// CircularReferenceError is returned when a reparent would make an account its own ancestor.
type CircularReferenceError struct {
	AccountID string
	ParentID  string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("account %s cannot be placed under %s: circular reference", e.AccountID, e.ParentID)
}
func (e *CircularReferenceError) Kind() Kind    { return KindCircularReference }
func (e *CircularReferenceError) Unwrap() error { return ErrValidation }

// InvalidCurrencyError is returned for currency codes that are not known ISO-4217 codes.
type InvalidCurrencyError struct {
	Code string
}

func (e *InvalidCurrencyError) Error() string {
	return fmt.Sprintf("invalid currency code %q", e.Code)
}
func (e *InvalidCurrencyError) Kind() Kind    { return KindInvalidCurrency }
func (e *InvalidCurrencyError) Unwrap() error { return ErrValidation }

// DuplicateError reports a uniqueness violation enforced by the store.
type DuplicateError struct {
	Resource string // e.g. "journal_entry", "account"
	Key      string // e.g. entry number or account path
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Resource, e.Key)
}
func (e *DuplicateError) Kind() Kind    { return KindDuplicate }
func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// NoRateAvailableError is returned when no exchange rate is known for a pair at a point in time.
type NoRateAvailableError struct {
	From string
	To   string
	AsOf time.Time
}

func (e *NoRateAvailableError) Error() string {
	return fmt.Sprintf("no exchange rate available for %s->%s as of %s", e.From, e.To, e.AsOf.Format(time.RFC3339))
}
func (e *NoRateAvailableError) Kind() Kind    { return KindNoRateAvailable }
func (e *NoRateAvailableError) Unwrap() error { return ErrDependency }

// InvalidTransitionError is returned for state-machine transitions that are not allowed.
type InvalidTransitionError struct {
	Resource string
	From     string
	To       string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s cannot transition from %s to %s", e.Resource, e.From, e.To)
}
func (e *InvalidTransitionError) Kind() Kind    { return KindInvalidTransition }
func (e *InvalidTransitionError) Unwrap() error { return ErrConflict }

// AppError wraps an underlying failure with an HTTP-like status code and a message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInternal
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewValidationError creates a validation error with a message.
func NewValidationError(message string) error {
	return fmt.Errorf("%w: %s", ErrValidation, message)
}

// NewNotFoundError creates a not-found error with a message.
func NewNotFoundError(message string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, message)
}
