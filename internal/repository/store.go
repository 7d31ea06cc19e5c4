package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Store 共享的存储句柄，聚合引擎用到的全部仓储。
// Transaction 内拿到的 Store 上所有仓储都绑定同一个事务。
type Store struct {
	db *gorm.DB

	Follows        FollowRepository
	FriendRequests FriendRequestRepository
	Hashtags       HashtagRepository
	Mentions       MentionRepository
	Users          UserDirectory
	Contents       ContentStore
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:             db,
		Follows:        NewFollowRepository(db),
		FriendRequests: NewFriendRequestRepository(db),
		Hashtags:       NewHashtagRepository(db),
		Mentions:       NewMentionRepository(db),
		Users:          NewUserDirectory(db),
		Contents:       NewContentStore(db),
	}
}

// DB 返回底层连接
func (s *Store) DB() *gorm.DB { return s.db }

// Transaction 在一个事务内执行 fn；fn 返回错误或 panic 时整体回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
