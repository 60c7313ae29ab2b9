package http

import (
	"errors"
	"net/http"

	"community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/member"
	"community-ledger/internal/usecase/eligibility"

	"github.com/labstack/echo/v4"
)

// statusFor maps domain error kinds to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, loan.ErrNotFound), errors.Is(err, member.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, loan.ErrValidation),
		errors.Is(err, loan.ErrNoContributionHistory),
		errors.Is(err, loan.ErrEligibilityExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, loan.ErrUnauthorized), errors.Is(err, loan.ErrMemberInactive):
		return http.StatusForbidden
	case errors.Is(err, loan.ErrInvalidState),
		errors.Is(err, loan.ErrInsufficientFunds),
		errors.Is(err, loan.ErrOutstandingLoanExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a usecase error. Unknown errors are logged and hidden.
func writeError(c echo.Context, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
		return c.JSON(status, ErrorResponse{Error: "internal error"})
	}
	resp := ErrorResponse{Error: err.Error()}
	var ee *eligibility.ExceededError
	if errors.As(err, &ee) {
		a := ee.Assessment
		resp.Eligibility = &a
	}
	return c.JSON(status, resp)
}

func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
