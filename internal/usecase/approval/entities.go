package approval

type ApproveInput struct {
	LoanID     string
	ApproverID string // 32-char hex; role checked by the caller
}

type RejectInput struct {
	LoanID     string
	RejectorID string
	Reason     string
}
