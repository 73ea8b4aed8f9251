package core

import "errors"

var (
	// Validation errors: fail fast at construction or update time.
	ErrNegativeAmount        = errors.New("payment amount cannot be negative")
	ErrMissingChargedAccount = errors.New("charged account is required")
	ErrInvalidEndDate        = errors.New("end date must be after start date")
	ErrInvalidPaymentType    = errors.New("invalid payment type")
	ErrInvalidRecurrence     = errors.New("invalid recurrence")
	ErrNoteRequired          = errors.New("category requires a note")
	ErrSameAccountTransfer   = errors.New("transfer target must differ from charged account")
	ErrEmptyName             = errors.New("name cannot be empty")

	// Integrity warnings: the offending side effect is skipped, the rest of
	// the operation goes through. Callers decide whether to escalate.
	ErrAccountMismatch      = errors.New("payment does not reference this account")
	ErrMissingTargetAccount = errors.New("transfer payment has no target account")
)

// IsIntegrityWarning reports whether err is a referential-integrity hazard
// that services log and surface as a diagnostic instead of failing the
// whole operation.
func IsIntegrityWarning(err error) bool {
	return errors.Is(err, ErrAccountMismatch) || errors.Is(err, ErrMissingTargetAccount)
}
