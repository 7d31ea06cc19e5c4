package model

import (
	"strings"
	"time"
)

// Hashtag 话题。Tag 保留首次写入的原始大小写，NormalizedTag 承担唯一约束
type Hashtag struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Tag           string    `json:"tag" gorm:"type:varchar(128);not null"`
	NormalizedTag string    `json:"normalized_tag" gorm:"type:varchar(128);uniqueIndex:ux_hashtag_normalized;not null"`
	IsBlocked     bool      `json:"is_blocked" gorm:"not null;index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Hashtag) TableName() string { return "hashtags" }

// PostHashtag 内容与话题的多对多关联，由内容库写入
type PostHashtag struct {
	PostID    string `gorm:"primaryKey;type:varchar(36);index:idx_ph_post"`
	HashtagID string `gorm:"primaryKey;type:varchar(36);index:idx_ph_hashtag"`
	CreatedAt time.Time
}

func (PostHashtag) TableName() string { return "post_hashtags" }

// NormalizeTag 去空白、去掉一个前导 #、转小写
func NormalizeTag(tag string) string {
	t := strings.TrimSpace(tag)
	t = strings.TrimPrefix(t, "#")
	return strings.ToLower(strings.TrimSpace(t))
}
