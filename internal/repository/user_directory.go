package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/socialgraph/internal/model"
)

// UserDirectory 外部用户目录（只读），仅用于资料补全
type UserDirectory interface {
	GetUsers(ctx context.Context, ids []string) (map[string]*model.User, error)
}

type userDirectory struct{ db *gorm.DB }

func NewUserDirectory(db *gorm.DB) UserDirectory { return &userDirectory{db: db} }

func (d *userDirectory) GetUsers(ctx context.Context, ids []string) (map[string]*model.User, error) {
	out := make(map[string]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []*model.User
	if err := d.db.WithContext(ctx).Where("id IN ?", dedupe(ids)).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
