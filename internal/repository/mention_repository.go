package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/socialgraph/internal/model"
)

type MentionRepository interface {
	ListForUser(ctx context.Context, userID string, offset, limit int) ([]*model.Mention, error)
}

type mentionRepository struct{ db *gorm.DB }

func NewMentionRepository(db *gorm.DB) MentionRepository { return &mentionRepository{db: db} }

func (r *mentionRepository) ListForUser(ctx context.Context, userID string, offset, limit int) ([]*model.Mention, error) {
	var res []*model.Mention
	err := r.db.WithContext(ctx).
		Where("mentioned_user_id = ?", userID).
		Order("created_at DESC").Order("id").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}
