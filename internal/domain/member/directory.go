package member

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("member not found")

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

type Member struct {
	ID        uint64    `gorm:"primaryKey;column:id"`
	MemberID  string    `gorm:"size:32;uniqueIndex:ux_members_member_id"`
	FullName  string    `gorm:"size:128"`
	Role      Role      `gorm:"size:16"`
	Active    bool      `gorm:"index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Member) TableName() string { return "members" }

type Directory interface {
	// IsActive returns ErrNotFound for unknown members.
	IsActive(ctx context.Context, memberID string) (bool, error)
	// ListActive returns active member IDs in ascending order.
	ListActive(ctx context.Context) ([]string, error)
}
