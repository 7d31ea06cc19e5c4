package model

import (
	"time"
)

type FollowStatus string

const FollowStatusActive FollowStatus = "active"

// Follow 关注关系（A 关注 B），有向
// 复合唯一键 ux_follow_pair = (follower_id, following_id)，避免重复关注
type Follow struct {
	ID            string       `gorm:"primaryKey;type:varchar(36)"`
	FollowerID    string       `gorm:"type:varchar(36);index:idx_follow_follower;uniqueIndex:ux_follow_pair;not null"`
	FollowingID   string       `gorm:"type:varchar(36);index:idx_follow_following;uniqueIndex:ux_follow_pair;not null"`
	Status        FollowStatus `gorm:"type:varchar(16);not null;default:active"`
	IsCloseFriend bool         `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Follow) TableName() string { return "user_follows" }
