package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/socialgraph/internal/model"
)

// Suggestion 推荐候选：共同关注数 + 粉丝数快照
type Suggestion struct {
	UserID         string `json:"user_id"`
	MutualCount    int64  `json:"mutual_friends_count"`
	FollowersCount int64  `json:"followers_count"`
}

// FollowStats 实时统计，不依赖用户表上的冗余计数
type FollowStats struct {
	FollowingCount    int64 `json:"following_count"`
	FollowersCount    int64 `json:"followers_count"`
	CloseFriendsCount int64 `json:"close_friends_count"`
	SelfFollowing     int64 `json:"self_following"`
}

type FollowRepository interface {
	Upsert(ctx context.Context, followerID, followingID string) error
	Delete(ctx context.Context, followerID, followingID string) (int64, error)
	SetCloseFriend(ctx context.Context, followerID, followingID string, closeFriend bool) (int64, error)
	Exists(ctx context.Context, followerID, followingID string) (bool, error)
	IsCloseFriend(ctx context.Context, followerID, followingID string) (bool, error)
	CloseFriendIDs(ctx context.Context, userID string) ([]string, error)
	MutualFollowingIDs(ctx context.Context, userA, userB string) ([]string, error)
	Suggestions(ctx context.Context, userID string, limit int) ([]Suggestion, error)
	Stats(ctx context.Context, userID string) (*FollowStats, error)
	ListFollowing(ctx context.Context, userID string, offset, limit int) ([]*model.Follow, error)
	ListFollowers(ctx context.Context, userID string, offset, limit int) ([]*model.Follow, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Follow{}).Where("status = ?", model.FollowStatusActive)
}

// Upsert 幂等：重复关注只刷新 status/updated_at，保留密友标记
func (r *followRepository) Upsert(ctx context.Context, followerID, followingID string) error {
	now := time.Now().UTC()
	f := &model.Follow{
		ID:          uuid.New().String(),
		FollowerID:  followerID,
		FollowingID: followingID,
		Status:      model.FollowStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(f).Error
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&model.Follow{})
	return res.RowsAffected, res.Error
}

// SetCloseFriend 只更新已存在的有效关注，不会创建新边
func (r *followRepository) SetCloseFriend(ctx context.Context, followerID, followingID string, closeFriend bool) (int64, error) {
	res := r.active(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Updates(map[string]any{"is_close_friend": closeFriend, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	var cnt int64
	if err := r.active(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Limit(1).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followRepository) IsCloseFriend(ctx context.Context, followerID, followingID string) (bool, error) {
	var cnt int64
	if err := r.active(ctx).
		Where("follower_id = ? AND following_id = ? AND is_close_friend = ?", followerID, followingID, true).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followRepository) CloseFriendIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.active(ctx).
		Where("follower_id = ? AND is_close_friend = ?", userID, true).
		Pluck("following_id", &ids).Error
	return ids, err
}

// MutualFollowingIDs 返回 a、b 都关注的用户（不含 a、b 本身）；对参数顺序对称
func (r *followRepository) MutualFollowingIDs(ctx context.Context, userA, userB string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT e1.following_id
		FROM user_follows e1
		JOIN user_follows e2 ON e2.following_id = e1.following_id
		WHERE e1.follower_id = ? AND e2.follower_id = ?
		  AND e1.status = ? AND e2.status = ?
		  AND e1.following_id NOT IN (?, ?)
	`, userA, userB, model.FollowStatusActive, model.FollowStatusActive, userA, userB).
		Scan(&ids).Error
	return ids, err
}

// Suggestions 候选为除自己与已关注者之外的活跃用户；
// 排序：共同关注数（我关注的人中有多少关注了候选人）降序，粉丝数降序，id 升序保证稳定
func (r *followRepository) Suggestions(ctx context.Context, userID string, limit int) ([]Suggestion, error) {
	active := model.FollowStatusActive
	var rows []Suggestion
	err := r.db.WithContext(ctx).Raw(`
		SELECT u.id AS user_id,
		       COUNT(DISTINCT mutual.follower_id) AS mutual_count,
		       u.followers_count AS followers_count
		FROM users u
		LEFT JOIN user_follows mutual
		  ON mutual.following_id = u.id
		 AND mutual.status = ?
		 AND mutual.follower_id IN (
		     SELECT following_id FROM user_follows WHERE follower_id = ? AND status = ?
		 )
		WHERE u.id <> ?
		  AND u.is_active = ?
		  AND u.id NOT IN (
		      SELECT following_id FROM user_follows WHERE follower_id = ? AND status = ?
		  )
		GROUP BY u.id, u.followers_count
		ORDER BY mutual_count DESC, u.followers_count DESC, u.id ASC
		LIMIT ?
	`, active, userID, active, userID, true, userID, active, limit).
		Scan(&rows).Error
	return rows, err
}

func (r *followRepository) Stats(ctx context.Context, userID string) (*FollowStats, error) {
	active := model.FollowStatusActive
	var stats FollowStats
	err := r.db.WithContext(ctx).Raw(`
		SELECT
		  (SELECT COUNT(*) FROM user_follows WHERE follower_id = ? AND status = ?) AS following_count,
		  (SELECT COUNT(*) FROM user_follows WHERE following_id = ? AND status = ?) AS followers_count,
		  (SELECT COUNT(*) FROM user_follows WHERE follower_id = ? AND is_close_friend = ? AND status = ?) AS close_friends_count,
		  (SELECT COUNT(*) FROM user_follows WHERE follower_id = ? AND following_id = ? AND status = ?) AS self_following
	`, userID, active, userID, active, userID, true, active, userID, userID, active).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *followRepository) ListFollowing(ctx context.Context, userID string, offset, limit int) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.active(ctx).
		Where("follower_id = ?", userID).
		Order("created_at DESC").Order("following_id").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *followRepository) ListFollowers(ctx context.Context, userID string, offset, limit int) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.active(ctx).
		Where("following_id = ?", userID).
		Order("created_at DESC").Order("follower_id").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}
