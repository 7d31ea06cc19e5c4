package model

import "time"

// User 外部用户目录的只读投影；关注数等计数字段是快照，引擎不回写
type User struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	Username       string `gorm:"type:varchar(64);index"`
	Email          string `gorm:"type:varchar(255)"`
	FirstName      string `gorm:"type:varchar(64)"`
	LastName       string `gorm:"type:varchar(64)"`
	DisplayName    string `gorm:"type:varchar(128)"`
	AvatarURL      string `gorm:"type:varchar(512)"`
	IsVerified     bool   `gorm:"not null"`
	IsActive       bool   `gorm:"not null;index"`
	FollowersCount int64  `gorm:"not null;default:0"`
	FollowingCount int64  `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (User) TableName() string { return "users" }
