package mysql

import (
	"context"
	"errors"

	decisionDomain "community-ledger/internal/domain/decision"

	"gorm.io/gorm"
)

type DecisionRepository struct{ db *gorm.DB }

func NewDecisionRepository(db *gorm.DB) *DecisionRepository { return &DecisionRepository{db: db} }

func (r *DecisionRepository) Create(ctx context.Context, d *decisionDomain.LoanDecision) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DecisionRepository) GetByLoanID(ctx context.Context, loanID string) (*decisionDomain.LoanDecision, error) {
	var out decisionDomain.LoanDecision
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, decisionDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
