package model

import "time"

type ContentStatus string

const (
	ContentStatusActive  ContentStatus = "active"
	ContentStatusDeleted ContentStatus = "deleted"
)

// ContentItem 外部内容库中的帖子；只有 active 的内容参与发现类查询
type ContentItem struct {
	ID        string        `gorm:"primaryKey;type:varchar(36)"`
	OwnerID   string        `gorm:"type:varchar(36);index:idx_content_owner;not null"`
	Body      string        `gorm:"type:text"`
	Status    ContentStatus `gorm:"type:varchar(16);index;not null;default:active"`
	CreatedAt time.Time     `gorm:"index"`
	UpdatedAt time.Time
}

func (ContentItem) TableName() string { return "content_items" }
