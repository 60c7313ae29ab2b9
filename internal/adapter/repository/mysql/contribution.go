package mysql

import (
	"context"

	"community-ledger/internal/domain/contribution"
	"community-ledger/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContributionRepository reads approved totals from the contributions table
// and appends interest credits to it.
type ContributionRepository struct{ db *gorm.DB }

func NewContributionRepository(db *gorm.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

func (r *ContributionRepository) approved(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&contribution.Contribution{}).
		Where("status = ?", contribution.StatusApproved)
}

func (r *ContributionRepository) TotalFor(ctx context.Context, memberID string) (decimal.Decimal, error) {
	return sum(r.approved(ctx).Where("member_id = ?", memberID), "amount")
}

func (r *ContributionRepository) CommunityTotal(ctx context.Context) (decimal.Decimal, error) {
	return sum(r.approved(ctx), "amount")
}

func (r *ContributionRepository) Credit(ctx context.Context, memberID string, amount decimal.Decimal, reference string) error {
	return r.db.WithContext(ctx).Create(&contribution.Contribution{
		ContributionID: id.NewID32(),
		MemberID:       memberID,
		Amount:         amount,
		Status:         contribution.StatusApproved,
		Source:         contribution.SourceInterestDistribution,
		Reference:      reference,
	}).Error
}
