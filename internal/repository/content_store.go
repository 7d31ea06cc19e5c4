package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/socialgraph/internal/model"
)

// ContentStore 外部内容库（只读）
type ContentStore interface {
	// GetActive 按 ids 取 active 内容，缺失或已删除的不返回
	GetActive(ctx context.Context, ids []string) (map[string]*model.ContentItem, error)
}

type contentStore struct{ db *gorm.DB }

func NewContentStore(db *gorm.DB) ContentStore { return &contentStore{db: db} }

func (s *contentStore) GetActive(ctx context.Context, ids []string) (map[string]*model.ContentItem, error) {
	out := make(map[string]*model.ContentItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []*model.ContentItem
	err := s.db.WithContext(ctx).
		Where("id IN ? AND status = ?", dedupe(ids), model.ContentStatusActive).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}
