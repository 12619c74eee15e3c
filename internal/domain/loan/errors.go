package loan

import "p2p-lending/internal/domain/apperr"

var (
	ErrNotFound = apperr.NotFound("loan_not_found", "loan not found")

	ErrInvalidAmount   = apperr.Validation("invalid_amount", "amount must be between 1,000 and 10,000,000")
	ErrInvalidDuration = apperr.Validation("invalid_duration", "duration must be between 1 and 60 months")
	ErrInvalidBorrower = apperr.Validation("invalid_borrower", "borrower_id must be 32-char lowercase hex")
	ErrInvalidActor    = apperr.Validation("invalid_actor", "actor is required")

	ErrPendingLoanExists       = apperr.StateConflict("pending_loan_exists", "borrower already has a pending loan")
	ErrInvalidTransition       = apperr.StateConflict("invalid_transition", "invalid state transition")
	ErrAlreadyDecided          = apperr.Refine(ErrInvalidTransition, "already_decided", "loan has already been decided")
	ErrNotFullyFunded          = apperr.StateConflict("not_fully_funded", "loan is not fully funded")
	ErrInstallmentsOutstanding = apperr.StateConflict("installments_outstanding", "loan has unpaid installments")
)
