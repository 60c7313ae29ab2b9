package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"community-ledger/internal/domain/decision"
	"community-ledger/internal/domain/event"
	domain "community-ledger/internal/domain/loan"
	"community-ledger/internal/usecase/eligibility"
	uc "community-ledger/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func asAdmin() []string { return []string{HeaderMemberRole, "admin"} }

func TestApproveLoan_Success(t *testing.T) {
	app := newTestApp(t)
	l := app.requestLoan(t, alice, "800")
	app.events.Reset()

	rec := app.do(stdhttp.MethodPost, "/loans/"+l.LoanID+"/approve", map[string]any{"approver_id": admin}, asAdmin()...)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	got := decode[uc.LoanDTO](t, rec)
	if got.Status != string(domain.StatusApproved) {
		t.Fatalf("status = %s, want approved", got.Status)
	}
	if got.ApprovedBy == nil || *got.ApprovedBy != admin {
		t.Fatalf("approved_by = %v, want %s", got.ApprovedBy, admin)
	}
	d, ok := app.st.Decision(l.LoanID)
	if !ok || d.Decision != decision.KindApproved {
		t.Fatalf("decision record = %+v (found=%v)", d, ok)
	}
	if types := app.events.Types(); len(types) != 1 || types[0] != event.LoanApproved {
		t.Fatalf("events = %v, want [loan.approved]", types)
	}
}

func TestApproveLoan_RequiresAdminRole(t *testing.T) {
	app := newTestApp(t)
	l := app.requestLoan(t, alice, "800")

	for _, role := range []string{"", "member"} {
		rec := app.do(stdhttp.MethodPost, "/loans/"+l.LoanID+"/approve", map[string]any{"approver_id": admin}, HeaderMemberRole, role)
		if rec.Code != stdhttp.StatusForbidden {
			t.Fatalf("role %q: status = %d, want 403", role, rec.Code)
		}
	}
	if stored, _ := app.st.Loan(l.LoanID); stored.Status != domain.StatusPending {
		t.Fatalf("loan status = %s, want pending", stored.Status)
	}
}

func TestApproveLoan_ValidationFailed(t *testing.T) {
	app := newTestApp(t)
	l := app.requestLoan(t, alice, "800")

	rec := app.do(stdhttp.MethodPost, "/loans/"+l.LoanID+"/approve", map[string]any{"approver_id": "nope"}, asAdmin()...)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	resp := decode[ErrorResponse](t, rec)
	if !containsFieldMsg(resp.Details, "ApproverID", "32-char lowercase hex") {
		t.Fatalf("missing ApproverID detail: %+v", resp.Details)
	}
}

func TestApproveLoan_Conflicts(t *testing.T) {
	t.Run("already approved", func(t *testing.T) {
		app := newTestApp(t)
		l := app.requestLoan(t, alice, "800")
		path := "/loans/" + l.LoanID + "/approve"
		if rec := app.do(stdhttp.MethodPost, path, map[string]any{"approver_id": admin}, asAdmin()...); rec.Code != stdhttp.StatusOK {
			t.Fatalf("first approve: status = %d", rec.Code)
		}
		if rec := app.do(stdhttp.MethodPost, path, map[string]any{"approver_id": admin}, asAdmin()...); rec.Code != stdhttp.StatusConflict {
			t.Fatalf("second approve: status = %d, want 409", rec.Code)
		}
	})

	t.Run("interest not covered by available funds", func(t *testing.T) {
		app := newTestApp(t)
		l := app.requestLoan(t, alice, "100")
		// funds shrink after the request: the 105 total no longer fits the 100 left
		seed := domain.New(strings.Repeat("e", 32), bob, "seed", dec("9900"), decimal.Zero, clock.Add(-time.Hour), 30*24*time.Hour)
		seed.Status = domain.StatusApproved
		app.st.PutLoan(*seed)

		rec := app.do(stdhttp.MethodPost, "/loans/"+l.LoanID+"/approve", map[string]any{"approver_id": admin}, asAdmin()...)
		if rec.Code != stdhttp.StatusConflict {
			t.Fatalf("status = %d, want 409; body=%s", rec.Code, rec.Body.String())
		}
		if stored, _ := app.st.Loan(l.LoanID); stored.Status != domain.StatusPending {
			t.Fatalf("loan status = %s, want pending", stored.Status)
		}
		if _, ok := app.st.Decision(l.LoanID); ok {
			t.Fatalf("decision must not be recorded")
		}
	})

	t.Run("unknown loan", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.do(stdhttp.MethodPost, "/loans/"+strings.Repeat("f", 32)+"/approve", map[string]any{"approver_id": admin}, asAdmin()...)
		if rec.Code != stdhttp.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestApproveLoan_AtQuotedMaximum(t *testing.T) {
	app := newTestApp(t)
	seed := domain.New(strings.Repeat("e", 32), bob, "seed", dec("9900.01"), decimal.Zero, clock.Add(-time.Hour), 30*24*time.Hour)
	seed.Status = domain.StatusApproved
	app.st.PutLoan(*seed)

	rec := app.do(stdhttp.MethodGet, "/members/"+alice+"/eligibility", nil)
	a := decode[eligibility.Assessment](t, rec)
	if a.Binding != eligibility.CeilingAvailableFunds {
		t.Fatalf("binding = %s, want available funds", a.Binding)
	}

	l := app.requestLoan(t, alice, a.MaxBorrowable.StringFixed(2))
	rec = app.do(stdhttp.MethodPost, "/loans/"+l.LoanID+"/approve", map[string]any{"approver_id": admin}, asAdmin()...)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("approve at max %s: status = %d; body=%s", a.MaxBorrowable, rec.Code, rec.Body.String())
	}
}

func TestRejectLoan_Success(t *testing.T) {
	app := newTestApp(t)
	l := app.requestLoan(t, alice, "800")

	rec := app.do(stdhttp.MethodPost, "/loans/"+l.LoanID+"/reject",
		map[string]any{"rejector_id": admin, "reason": "  income not verified "}, asAdmin()...)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	got := decode[uc.LoanDTO](t, rec)
	if got.Status != string(domain.StatusRejected) {
		t.Fatalf("status = %s, want rejected", got.Status)
	}
	if got.RejectionReason == nil || *got.RejectionReason != "income not verified" {
		t.Fatalf("rejection_reason = %v", got.RejectionReason)
	}

	// a rejected loan no longer blocks a new request
	app.requestLoan(t, alice, "100")
}

func TestRejectLoan_ReasonRequired(t *testing.T) {
	app := newTestApp(t)
	l := app.requestLoan(t, alice, "800")
	path := "/loans/" + l.LoanID + "/reject"

	rec := app.do(stdhttp.MethodPost, path, map[string]any{"rejector_id": admin}, asAdmin()...)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("missing reason: status = %d, want 422", rec.Code)
	}
	if !containsFieldMsg(decode[ErrorResponse](t, rec).Details, "Reason", "is required") {
		t.Fatalf("missing Reason detail: %s", rec.Body.String())
	}

	rec = app.do(stdhttp.MethodPost, path, map[string]any{"rejector_id": admin, "reason": "   "}, asAdmin()...)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("blank reason: status = %d, want 422", rec.Code)
	}
	if stored, _ := app.st.Loan(l.LoanID); stored.Status != domain.StatusPending {
		t.Fatalf("loan status = %s, want pending", stored.Status)
	}
}

func TestApprovalHandlers_MissingPathParam(t *testing.T) {
	e := newEchoWithValidator()
	h := NewApprovalHandler(nil)

	for name, fn := range map[string]echo.HandlerFunc{"approve": h.ApproveLoan, "reject": h.RejectLoan} {
		req := httptest.NewRequest(stdhttp.MethodPost, "/loans//"+name, strings.NewReader(`{}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := fn(c); err != nil {
			t.Fatalf("%s: handler error: %v", name, err)
		}
		if rec.Code != stdhttp.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}
