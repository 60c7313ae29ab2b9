package http

import (
	"net/http"

	"community-ledger/internal/usecase/repayment"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct{ uc *repayment.Usecase }

func NewPaymentHandler(uc *repayment.Usecase) *PaymentHandler { return &PaymentHandler{uc: uc} }

type payLoanReq struct {
	PayerID          string          `json:"payer_id"          validate:"required,hex32"`
	Amount           decimal.Decimal `json:"amount"            validate:"dpos,dec2"`
	PaymentReference string          `json:"payment_reference" validate:"required,max=128"`
	Notes            *string         `json:"notes"             validate:"omitempty,max=1000"`
}

func (h *PaymentHandler) PayLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	var req payLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.uc.Pay(c.Request().Context(), repayment.PayInput{
		LoanID:           loanID,
		PayerID:          req.PayerID,
		Amount:           req.Amount,
		PaymentReference: req.PaymentReference,
		Notes:            req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *PaymentHandler) ListPayments(c echo.Context) error {
	out, err := h.uc.ListPayments(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
