package http

import "github.com/labstack/echo/v4"

type Handlers struct {
	Health    *Handler
	Loans     *LoanHandler
	Approvals *ApprovalHandler
	Payments  *PaymentHandler
}

// Register mounts every route. mw wraps the whole /loans and /members
// groups (idempotency only acts on mutating methods).
func Register(e *echo.Echo, h Handlers, mw ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	loans := e.Group("/loans", mw...)
	loans.POST("", h.Loans.RequestLoan)
	loans.GET("/pending", h.Loans.ListPending)
	loans.GET("/overdue", h.Loans.ListOverdue)
	loans.GET("/:loan_id", h.Loans.GetLoan)
	loans.POST("/:loan_id/approve", h.Approvals.ApproveLoan)
	loans.POST("/:loan_id/reject", h.Approvals.RejectLoan)
	loans.POST("/:loan_id/payments", h.Payments.PayLoan)
	loans.GET("/:loan_id/payments", h.Payments.ListPayments)

	members := e.Group("/members", mw...)
	members.GET("/:member_id/loans", h.Loans.ListMemberLoans)
	members.GET("/:member_id/eligibility", h.Loans.Eligibility)
	members.GET("/:member_id/summary", h.Loans.Summary)
}
