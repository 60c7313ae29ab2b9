package http

import (
	"net/http"
	"time"

	"community-ledger/internal/usecase/loan"
	"community-ledger/internal/usecase/overdue"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type LoanHandler struct {
	uc      *loan.Usecase
	overdue *overdue.Scanner
}

func NewLoanHandler(uc *loan.Usecase, scanner *overdue.Scanner) *LoanHandler {
	return &LoanHandler{uc: uc, overdue: scanner}
}

type requestLoanReq struct {
	MemberID string          `json:"member_id" validate:"required,hex32"`
	Amount   decimal.Decimal `json:"amount"    validate:"dpos,dec2"`
	Purpose  string          `json:"purpose"   validate:"max=500"`
}

func (h *LoanHandler) RequestLoan(c echo.Context) error {
	var req requestLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Request(c.Request().Context(), loan.RequestLoanInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListPending(c echo.Context) error {
	out, err := h.uc.ListPending(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ListOverdue is a read-only view; it emits no events.
func (h *LoanHandler) ListOverdue(c echo.Context) error {
	ls, err := h.overdue.Overdue(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, loan.ToDTOs(ls, time.Now().UTC()))
}

func (h *LoanHandler) ListMemberLoans(c echo.Context) error {
	out, err := h.uc.ListFor(c.Request().Context(), c.Param("member_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Eligibility(c echo.Context) error {
	a, err := h.uc.Eligibility(c.Request().Context(), c.Param("member_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *LoanHandler) Summary(c echo.Context) error {
	s, err := h.uc.Summary(c.Request().Context(), c.Param("member_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
