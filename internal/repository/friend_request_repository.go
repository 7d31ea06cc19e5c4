package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/socialgraph/internal/model"
)

type FriendRequestRepository interface {
	Create(ctx context.Context, req *model.FriendRequest) error
	Get(ctx context.Context, id string) (*model.FriendRequest, error)
	// FindLivePending 查找同一 (sender, receiver) 仍有效的待处理申请；liveAt 为 nil 时不看过期
	FindLivePending(ctx context.Context, senderID, receiverID string, liveAt *time.Time) (*model.FriendRequest, error)
	// Transition 条件更新：仅当当前状态为 from（且 liveAt 非 nil 时未过期）才改为 to
	Transition(ctx context.Context, id string, from, to model.FriendRequestStatus, liveAt *time.Time) (bool, error)
	DeletePending(ctx context.Context, id string) (int64, error)
	ListPendingReceived(ctx context.Context, userID string, liveAt *time.Time) ([]*model.FriendRequest, error)
	ListPendingSent(ctx context.Context, userID string, liveAt *time.Time) ([]*model.FriendRequest, error)
}

type friendRequestRepository struct {
	db *gorm.DB
}

func NewFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &friendRequestRepository{db: db}
}

func (r *friendRequestRepository) pending(ctx context.Context, liveAt *time.Time) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.FriendRequest{}).Where("status = ?", model.FriendRequestPending)
	if liveAt != nil {
		q = q.Where("expires_at > ?", *liveAt)
	}
	return q
}

func (r *friendRequestRepository) Create(ctx context.Context, req *model.FriendRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *friendRequestRepository) Get(ctx context.Context, id string) (*model.FriendRequest, error) {
	var req model.FriendRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *friendRequestRepository) FindLivePending(ctx context.Context, senderID, receiverID string, liveAt *time.Time) (*model.FriendRequest, error) {
	var req model.FriendRequest
	err := r.pending(ctx, liveAt).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		Order("created_at DESC").
		First(&req).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *friendRequestRepository) Transition(ctx context.Context, id string, from, to model.FriendRequestStatus, liveAt *time.Time) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.FriendRequest{}).Where("id = ? AND status = ?", id, from)
	if liveAt != nil {
		q = q.Where("expires_at > ?", *liveAt)
	}
	res := q.Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *friendRequestRepository) DeletePending(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, model.FriendRequestPending).
		Delete(&model.FriendRequest{})
	return res.RowsAffected, res.Error
}

func (r *friendRequestRepository) ListPendingReceived(ctx context.Context, userID string, liveAt *time.Time) ([]*model.FriendRequest, error) {
	var res []*model.FriendRequest
	err := r.pending(ctx, liveAt).
		Where("receiver_id = ?", userID).
		Order("created_at DESC").Order("id").
		Find(&res).Error
	return res, err
}

func (r *friendRequestRepository) ListPendingSent(ctx context.Context, userID string, liveAt *time.Time) ([]*model.FriendRequest, error) {
	var res []*model.FriendRequest
	err := r.pending(ctx, liveAt).
		Where("sender_id = ?", userID).
		Order("created_at DESC").Order("id").
		Find(&res).Error
	return res, err
}
