package loan

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match with errors.Is; detail is wrapped around them.
var (
	ErrNotFound              = errors.New("loan not found")
	ErrInvalidState          = errors.New("invalid loan state")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrValidation            = errors.New("validation failed")
	ErrEligibilityExceeded   = errors.New("amount exceeds eligibility")
	ErrInsufficientFunds     = errors.New("insufficient community funds")
	ErrOutstandingLoanExists = errors.New("member already has an outstanding loan")
	ErrNoContributionHistory = errors.New("member has no approved contributions")
	ErrMemberInactive        = errors.New("member is not active")
)

var (
	ErrNotOwner               = fmt.Errorf("%w: payer is not the loan owner", ErrUnauthorized)
	ErrNonPositiveAmount      = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrAmountExceedsRemaining = fmt.Errorf("%w: amount exceeds remaining balance", ErrValidation)
	ErrEmptyReason            = fmt.Errorf("%w: rejection reason is required", ErrValidation)
)

func invalidState(l *Loan, op string) error {
	return fmt.Errorf("%w: cannot %s loan %s in status %s", ErrInvalidState, op, l.LoanID, l.Status)
}
