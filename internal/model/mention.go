package model

import "time"

// Mention 帖子中 @ 用户的记录，由内容库写入
type Mention struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)"`
	PostID          string    `gorm:"type:varchar(36);index;not null"`
	MentionerID     string    `gorm:"type:varchar(36);not null"`
	MentionedUserID string    `gorm:"type:varchar(36);index:idx_mention_user;not null"`
	CreatedAt       time.Time `gorm:"index:idx_mention_user"`
}

func (Mention) TableName() string { return "social_mentions" }
