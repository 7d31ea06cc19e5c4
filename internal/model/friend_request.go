package model

import "time"

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestDeclined FriendRequestStatus = "declined"
)

// FriendRequest 好友申请；pending -> accepted/declined 终态，或 pending 时被撤回删除
type FriendRequest struct {
	ID         string              `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SenderID   string              `json:"sender_id" gorm:"type:varchar(36);index:idx_fr_sender;not null"`
	ReceiverID string              `json:"receiver_id" gorm:"type:varchar(36);index:idx_fr_receiver;not null"`
	Status     FriendRequestStatus `json:"status" gorm:"type:varchar(16);index;not null;default:pending"`
	Message    *string             `json:"message,omitempty" gorm:"type:text"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	ExpiresAt  time.Time           `json:"expires_at" gorm:"index"`
}

func (FriendRequest) TableName() string { return "friend_requests" }

// Live 是否仍可被接受
func (r *FriendRequest) Live(now time.Time, enforceExpiry bool) bool {
	if r.Status != FriendRequestPending {
		return false
	}
	return !enforceExpiry || now.Before(r.ExpiresAt)
}
