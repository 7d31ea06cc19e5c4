// Package testutil 提供测试用的内存数据库与数据构造函数。
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/pkg/database"
)

// NewDB 每个测试独立的 sqlite 内存库；单连接，事务天然串行
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn), gormlogger.Default.LogMode(gormlogger.Silent))
	require.NoError(tb, err)

	sqlDB, err := db.DB()
	require.NoError(tb, err)
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(tb, database.Migrate(db))
	return db
}

// UserOpt 调整种子用户字段
type UserOpt func(*model.User)

func Followers(n int64) UserOpt { return func(u *model.User) { u.FollowersCount = n } }

func Inactive() UserOpt { return func(u *model.User) { u.IsActive = false } }

func Verified() UserOpt { return func(u *model.User) { u.IsVerified = true } }

// SeedUser 以 id 作为用户名，displayName 作为展示名
func SeedUser(tb testing.TB, db *gorm.DB, id, displayName string, opts ...UserOpt) *model.User {
	tb.Helper()
	u := &model.User{
		ID:          id,
		Username:    id,
		Email:       id + "@example.com",
		DisplayName: displayName,
		IsActive:    true,
	}
	for _, opt := range opts {
		opt(u)
	}
	require.NoError(tb, db.Create(u).Error)
	return u
}

// SeedFollow 直接写入有效关注边
func SeedFollow(tb testing.TB, db *gorm.DB, followerID, followingID string, closeFriend bool) {
	tb.Helper()
	now := time.Now().UTC()
	require.NoError(tb, db.Create(&model.Follow{
		ID:            uuid.New().String(),
		FollowerID:    followerID,
		FollowingID:   followingID,
		Status:        model.FollowStatusActive,
		IsCloseFriend: closeFriend,
		CreatedAt:     now,
		UpdatedAt:     now,
	}).Error)
}

// SeedPost 写入内容，并把 tags 关联到该内容（话题不存在时创建）
func SeedPost(tb testing.TB, db *gorm.DB, id, ownerID string, createdAt time.Time, status model.ContentStatus, tags ...string) *model.ContentItem {
	tb.Helper()
	c := &model.ContentItem{
		ID:        id,
		OwnerID:   ownerID,
		Body:      "post " + id,
		Status:    status,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	}
	require.NoError(tb, db.Create(c).Error)
	for _, tag := range tags {
		h := SeedHashtag(tb, db, tag)
		require.NoError(tb, db.Create(&model.PostHashtag{PostID: id, HashtagID: h.ID, CreatedAt: createdAt.UTC()}).Error)
	}
	return c
}

// SeedHashtag 按规范化文本查找或创建话题
func SeedHashtag(tb testing.TB, db *gorm.DB, tag string) *model.Hashtag {
	tb.Helper()
	var h model.Hashtag
	err := db.Where("normalized_tag = ?", model.NormalizeTag(tag)).First(&h).Error
	if err == nil {
		return &h
	}
	now := time.Now().UTC()
	h = model.Hashtag{ID: uuid.New().String(), Tag: tag, NormalizedTag: model.NormalizeTag(tag), CreatedAt: now, UpdatedAt: now}
	require.NoError(tb, db.Create(&h).Error)
	return &h
}

// SeedMention 写入一条 @ 记录
func SeedMention(tb testing.TB, db *gorm.DB, postID, mentionerID, mentionedID string, at time.Time) {
	tb.Helper()
	require.NoError(tb, db.Create(&model.Mention{
		ID:              uuid.New().String(),
		PostID:          postID,
		MentionerID:     mentionerID,
		MentionedUserID: mentionedID,
		CreatedAt:       at.UTC(),
	}).Error)
}
