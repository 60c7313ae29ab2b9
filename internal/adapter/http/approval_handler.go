package http

import (
	"net/http"
	"strings"

	"community-ledger/internal/domain/member"
	"community-ledger/internal/usecase/approval"

	"github.com/labstack/echo/v4"
)

// HeaderMemberRole carries the caller's role, set by the auth gateway.
const HeaderMemberRole = "Ax-Member-Role"

type ApprovalHandler struct{ uc *approval.Usecase }

func NewApprovalHandler(uc *approval.Usecase) *ApprovalHandler { return &ApprovalHandler{uc: uc} }

type approveLoanReq struct {
	ApproverID string `json:"approver_id" validate:"required,hex32"`
}

type rejectLoanReq struct {
	RejectorID string `json:"rejector_id" validate:"required,hex32"`
	Reason     string `json:"reason"      validate:"required,max=500"`
}

// requireAdmin answers 403 unless the caller presents the admin role.
func requireAdmin(c echo.Context) bool {
	return strings.EqualFold(strings.TrimSpace(c.Request().Header.Get(HeaderMemberRole)), string(member.RoleAdmin))
}

func (h *ApprovalHandler) ApproveLoan(c echo.Context) error {
	// Validate path param
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	if !requireAdmin(c) {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "admin role required"})
	}
	var req approveLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Approve(c.Request().Context(), approval.ApproveInput{LoanID: loanID, ApproverID: req.ApproverID})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) RejectLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	if !requireAdmin(c) {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "admin role required"})
	}
	var req rejectLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Reject(c.Request().Context(), approval.RejectInput{LoanID: loanID, RejectorID: req.RejectorID, Reason: req.Reason})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
