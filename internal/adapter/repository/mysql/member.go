package mysql

import (
	"context"
	"errors"

	"community-ledger/internal/domain/member"

	"gorm.io/gorm"
)

type MemberRepository struct{ db *gorm.DB }

func NewMemberRepository(db *gorm.DB) *MemberRepository { return &MemberRepository{db: db} }

func (r *MemberRepository) IsActive(ctx context.Context, memberID string) (bool, error) {
	var m member.Member
	err := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, member.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return m.Active, nil
}

func (r *MemberRepository) ListActive(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&member.Member{}).
		Where("active = ?", true).
		Order("member_id ASC").
		Pluck("member_id", &ids).Error
	return ids, err
}
