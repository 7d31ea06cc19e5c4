package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// SuggestedUser 推荐结果：资料 + 共同关注数
type SuggestedUser struct {
	Profile
	MutualFriendsCount int64 `json:"mutual_friends_count"`
}

// FriendRequestView 好友申请 + 对端资料
type FriendRequestView struct {
	ID         string                    `json:"id"`
	SenderID   string                    `json:"sender_id"`
	ReceiverID string                    `json:"receiver_id"`
	Status     model.FriendRequestStatus `json:"status"`
	Message    *string                   `json:"message,omitempty"`
	CreatedAt  time.Time                 `json:"created_at"`
	ExpiresAt  time.Time                 `json:"expires_at"`
	Sender     *Profile                  `json:"sender,omitempty"`
	Receiver   *Profile                  `json:"receiver,omitempty"`
}

// Relationship viewer 视角下与 target 的关系
type Relationship struct {
	ViewerID     string `json:"viewer_id"`
	TargetID     string `json:"target_id"`
	Following    bool   `json:"is_following"`
	FollowedBy   bool   `json:"is_followed_by"`
	CloseFriends bool   `json:"is_close_friend"`
}

// FollowService 关注关系、密友与好友申请
type FollowService interface {
	FollowUser(ctx context.Context, followerID, followingID string) error
	UnfollowUser(ctx context.Context, followerID, followingID string) error
	MarkAsCloseFriend(ctx context.Context, userID, friendID string) error
	UnmarkAsCloseFriend(ctx context.Context, userID, friendID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	AreCloseFriends(ctx context.Context, userA, userB string) (bool, error)
	GetRelationship(ctx context.Context, viewerID, targetID string) (*Relationship, error)

	GetCloseFriends(ctx context.Context, userID string) ([]Profile, error)
	GetMutualFriends(ctx context.Context, userA, userB string) ([]Profile, error)
	GetUserSuggestions(ctx context.Context, userID string, limit int) ([]SuggestedUser, error)
	GetFollowStats(ctx context.Context, userID string) (*repository.FollowStats, error)
	ListFollowers(ctx context.Context, userID string, page, pageSize int) ([]Profile, error)
	ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]Profile, error)

	SendFriendRequest(ctx context.Context, senderID, receiverID string, message *string) (*model.FriendRequest, error)
	AcceptFriendRequest(ctx context.Context, requestID string) (bool, error)
	DeclineFriendRequest(ctx context.Context, requestID string) (bool, error)
	CancelFriendRequest(ctx context.Context, requestID string) (bool, error)
	GetFriendRequest(ctx context.Context, requestID string) (*model.FriendRequest, error)
	GetReceivedFriendRequests(ctx context.Context, userID string) ([]FriendRequestView, error)
	GetSentFriendRequests(ctx context.Context, userID string) ([]FriendRequestView, error)
}

type followService struct {
	store *repository.Store
	cache *cache.Cache
	opts  Options
}

func NewFollowService(store *repository.Store, c *cache.Cache, opts Options) FollowService {
	return &followService{store: store, cache: c, opts: opts.withDefaults()}
}

func requireIDs(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return ErrEmptyUserID
		}
	}
	return nil
}

// liveAt 开启过期校验时返回当前时间，否则 nil（不过滤）
func (s *followService) liveAt() *time.Time {
	if !s.opts.EnforceExpiry {
		return nil
	}
	now := s.opts.Now()
	return &now
}

func (s *followService) FollowUser(ctx context.Context, followerID, followingID string) error {
	if err := requireIDs(followerID, followingID); err != nil {
		return err
	}
	if followerID == followingID {
		return ErrFollowSelf
	}
	if err := s.store.Follows.Upsert(ctx, followerID, followingID); err != nil {
		return apperr.Unavailable("follow user", err)
	}
	s.cache.Invalidate(ctx, cache.NamespaceFollow)
	logger.Debug("user followed", zap.String("follower", followerID), zap.String("following", followingID))
	return nil
}

// UnfollowUser 边不存在时静默成功
func (s *followService) UnfollowUser(ctx context.Context, followerID, followingID string) error {
	if err := requireIDs(followerID, followingID); err != nil {
		return err
	}
	n, err := s.store.Follows.Delete(ctx, followerID, followingID)
	if err != nil {
		return apperr.Unavailable("unfollow user", err)
	}
	if n > 0 {
		s.cache.Invalidate(ctx, cache.NamespaceFollow)
	}
	return nil
}

// MarkAsCloseFriend 只作用于已有的关注边，没有边时不做任何事
func (s *followService) MarkAsCloseFriend(ctx context.Context, userID, friendID string) error {
	return s.setCloseFriend(ctx, userID, friendID, true)
}

func (s *followService) UnmarkAsCloseFriend(ctx context.Context, userID, friendID string) error {
	return s.setCloseFriend(ctx, userID, friendID, false)
}

func (s *followService) setCloseFriend(ctx context.Context, userID, friendID string, flag bool) error {
	if err := requireIDs(userID, friendID); err != nil {
		return err
	}
	n, err := s.store.Follows.SetCloseFriend(ctx, userID, friendID, flag)
	if err != nil {
		return apperr.Unavailable("update close friend", err)
	}
	if n > 0 {
		s.cache.Invalidate(ctx, cache.NamespaceFollow)
	}
	return nil
}

func (s *followService) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	if err := requireIDs(followerID, followingID); err != nil {
		return false, err
	}
	ok, err := s.store.Follows.Exists(ctx, followerID, followingID)
	if err != nil {
		return false, apperr.Unavailable("check follow", err)
	}
	return ok, nil
}

// AreCloseFriends 有向：a 是否把 b 标为密友
func (s *followService) AreCloseFriends(ctx context.Context, userA, userB string) (bool, error) {
	if err := requireIDs(userA, userB); err != nil {
		return false, err
	}
	ok, err := s.store.Follows.IsCloseFriend(ctx, userA, userB)
	if err != nil {
		return false, apperr.Unavailable("check close friend", err)
	}
	return ok, nil
}

// GetRelationship 三个判断互不依赖，并发执行
func (s *followService) GetRelationship(ctx context.Context, viewerID, targetID string) (*Relationship, error) {
	if err := requireIDs(viewerID, targetID); err != nil {
		return nil, err
	}
	rel := &Relationship{ViewerID: viewerID, TargetID: targetID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rel.Following, err = s.store.Follows.Exists(gctx, viewerID, targetID)
		return err
	})
	g.Go(func() error {
		var err error
		rel.FollowedBy, err = s.store.Follows.Exists(gctx, targetID, viewerID)
		return err
	})
	g.Go(func() error {
		var err error
		rel.CloseFriends, err = s.store.Follows.IsCloseFriend(gctx, viewerID, targetID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Unavailable("load relationship", err)
	}
	return rel, nil
}

// GetCloseFriends 按展示名排序
func (s *followService) GetCloseFriends(ctx context.Context, userID string) ([]Profile, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	ids, err := s.store.Follows.CloseFriendIDs(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable("list close friends", err)
	}
	profiles, err := hydrateProfiles(ctx, s.store.Users, ids)
	if err != nil {
		return nil, apperr.Unavailable("load profiles", err)
	}
	for i := range profiles {
		profiles[i].IsCloseFriend = true
	}
	sortByDisplayName(profiles)
	return profiles, nil
}

// GetMutualFriends a 和 b 都关注的用户，结果与参数顺序无关
func (s *followService) GetMutualFriends(ctx context.Context, userA, userB string) ([]Profile, error) {
	if err := requireIDs(userA, userB); err != nil {
		return nil, err
	}
	ids, err := s.store.Follows.MutualFollowingIDs(ctx, userA, userB)
	if err != nil {
		return nil, apperr.Unavailable("list mutual friends", err)
	}
	profiles, err := hydrateProfiles(ctx, s.store.Users, ids)
	if err != nil {
		return nil, apperr.Unavailable("load profiles", err)
	}
	sortByDisplayName(profiles)
	return profiles, nil
}

func (s *followService) GetUserSuggestions(ctx context.Context, userID string, limit int) ([]SuggestedUser, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	limit = s.opts.limit(limit, s.opts.DefaultLimit)

	ctx, span := tracer.Start(ctx, "FollowService.GetUserSuggestions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int("limit", limit))

	key := fmt.Sprintf("suggestions:%s:%d", userID, limit)
	out, err := cache.Fetch(ctx, s.cache, cache.NamespaceFollow, key, func(ctx context.Context) ([]SuggestedUser, error) {
		return s.loadSuggestions(ctx, userID, limit)
	})
	if err != nil {
		return degrade(ctx, s.opts, "user suggestions", err, []SuggestedUser{})
	}
	return out, nil
}

func (s *followService) loadSuggestions(ctx context.Context, userID string, limit int) ([]SuggestedUser, error) {
	candidates, err := s.store.Follows.Suggestions(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.UserID
	}
	byID, err := lookupProfiles(ctx, s.store.Users, ids)
	if err != nil {
		return nil, err
	}
	out := make([]SuggestedUser, 0, len(candidates))
	for _, c := range candidates {
		p, ok := byID[c.UserID]
		if !ok {
			continue
		}
		out = append(out, SuggestedUser{Profile: p, MutualFriendsCount: c.MutualCount})
	}
	return out, nil
}

func (s *followService) GetFollowStats(ctx context.Context, userID string) (*repository.FollowStats, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	stats, err := s.store.Follows.Stats(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable("load follow stats", err)
	}
	return stats, nil
}

func (s *followService) ListFollowers(ctx context.Context, userID string, page, pageSize int) ([]Profile, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	offset, limit := s.opts.page(page, pageSize)
	items, err := s.store.Follows.ListFollowers(ctx, userID, offset, limit)
	if err != nil {
		return nil, apperr.Unavailable("list followers", err)
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.FollowerID
	}
	profiles, err := hydrateProfiles(ctx, s.store.Users, ids)
	if err != nil {
		return nil, apperr.Unavailable("load profiles", err)
	}
	return profiles, nil
}

func (s *followService) ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]Profile, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	offset, limit := s.opts.page(page, pageSize)
	items, err := s.store.Follows.ListFollowing(ctx, userID, offset, limit)
	if err != nil {
		return nil, apperr.Unavailable("list following", err)
	}
	ids := make([]string, len(items))
	profilesCF := make(map[string]bool, len(items))
	for i, it := range items {
		ids[i] = it.FollowingID
		profilesCF[it.FollowingID] = it.IsCloseFriend
	}
	profiles, err := hydrateProfiles(ctx, s.store.Users, ids)
	if err != nil {
		return nil, apperr.Unavailable("load profiles", err)
	}
	for i := range profiles {
		profiles[i].IsCloseFriend = profilesCF[profiles[i].ID]
	}
	return profiles, nil
}

// SendFriendRequest 同一方向已有未过期的 pending 申请时直接返回它
func (s *followService) SendFriendRequest(ctx context.Context, senderID, receiverID string, message *string) (*model.FriendRequest, error) {
	if err := requireIDs(senderID, receiverID); err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, ErrFriendRequestSelf
	}
	if message != nil {
		trimmed := strings.TrimSpace(*message)
		if trimmed == "" {
			message = nil
		} else {
			message = &trimmed
		}
	}

	var out *model.FriendRequest
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		existing, err := tx.FriendRequests.FindLivePending(ctx, senderID, receiverID, s.liveAt())
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		now := s.opts.Now()
		req := &model.FriendRequest{
			ID:         uuid.New().String(),
			SenderID:   senderID,
			ReceiverID: receiverID,
			Status:     model.FriendRequestPending,
			Message:    message,
			CreatedAt:  now,
			UpdatedAt:  now,
			ExpiresAt:  now.Add(s.opts.RequestTTL),
		}
		if err := tx.FriendRequests.Create(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, apperr.Unavailable("send friend request", err)
	}
	return out, nil
}

// AcceptFriendRequest 状态迁移和两条关注边在同一事务里；
// 申请不存在、已处理或已过期时返回 false。并发接受只有一个能成功。
func (s *followService) AcceptFriendRequest(ctx context.Context, requestID string) (bool, error) {
	if strings.TrimSpace(requestID) == "" {
		return false, nil
	}
	ctx, span := tracer.Start(ctx, "FollowService.AcceptFriendRequest")
	defer span.End()
	span.SetAttributes(attribute.String("friend_request.id", requestID))

	accepted := false
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		ok, err := tx.FriendRequests.Transition(ctx, requestID, model.FriendRequestPending, model.FriendRequestAccepted, s.liveAt())
		if err != nil || !ok {
			return err
		}
		req, err := tx.FriendRequests.Get(ctx, requestID)
		if err != nil {
			return err
		}
		if err := tx.Follows.Upsert(ctx, req.ReceiverID, req.SenderID); err != nil {
			return err
		}
		if err := tx.Follows.Upsert(ctx, req.SenderID, req.ReceiverID); err != nil {
			return err
		}
		accepted = true
		return nil
	})
	if err != nil {
		recordSpanError(ctx, err)
		logger.Error("accept friend request rolled back", zap.String("request_id", requestID), zap.Error(err))
		return false, apperr.Wrap(apperr.KindTransaction, "accept friend request aborted", err)
	}
	if accepted {
		s.cache.Invalidate(ctx, cache.NamespaceFollow)
		logger.Info("friend request accepted", zap.String("request_id", requestID))
	}
	return accepted, nil
}

// DeclineFriendRequest 过期的 pending 申请也可以拒绝
func (s *followService) DeclineFriendRequest(ctx context.Context, requestID string) (bool, error) {
	if strings.TrimSpace(requestID) == "" {
		return false, nil
	}
	ok, err := s.store.FriendRequests.Transition(ctx, requestID, model.FriendRequestPending, model.FriendRequestDeclined, nil)
	if err != nil {
		return false, apperr.Unavailable("decline friend request", err)
	}
	return ok, nil
}

// CancelFriendRequest 发送方撤回；已处理的申请不受影响
func (s *followService) CancelFriendRequest(ctx context.Context, requestID string) (bool, error) {
	if strings.TrimSpace(requestID) == "" {
		return false, nil
	}
	n, err := s.store.FriendRequests.DeletePending(ctx, requestID)
	if err != nil {
		return false, apperr.Unavailable("cancel friend request", err)
	}
	return n > 0, nil
}

func (s *followService) GetFriendRequest(ctx context.Context, requestID string) (*model.FriendRequest, error) {
	req, err := s.store.FriendRequests.Get(ctx, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrFriendRequestNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("get friend request", err)
	}
	return req, nil
}

// GetReceivedFriendRequests 待处理且未过期，最新在前，带发送方资料
func (s *followService) GetReceivedFriendRequests(ctx context.Context, userID string) ([]FriendRequestView, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	reqs, err := s.store.FriendRequests.ListPendingReceived(ctx, userID, s.liveAt())
	if err != nil {
		return nil, apperr.Unavailable("list received friend requests", err)
	}
	return s.views(ctx, reqs, func(r *model.FriendRequest) string { return r.SenderID }, true)
}

func (s *followService) GetSentFriendRequests(ctx context.Context, userID string) ([]FriendRequestView, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	reqs, err := s.store.FriendRequests.ListPendingSent(ctx, userID, s.liveAt())
	if err != nil {
		return nil, apperr.Unavailable("list sent friend requests", err)
	}
	return s.views(ctx, reqs, func(r *model.FriendRequest) string { return r.ReceiverID }, false)
}

func (s *followService) views(ctx context.Context, reqs []*model.FriendRequest, peer func(*model.FriendRequest) string, senderSide bool) ([]FriendRequestView, error) {
	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = peer(r)
	}
	byID, err := lookupProfiles(ctx, s.store.Users, ids)
	if err != nil {
		return nil, apperr.Unavailable("load profiles", err)
	}
	out := make([]FriendRequestView, 0, len(reqs))
	for _, r := range reqs {
		v := FriendRequestView{
			ID:         r.ID,
			SenderID:   r.SenderID,
			ReceiverID: r.ReceiverID,
			Status:     r.Status,
			Message:    r.Message,
			CreatedAt:  r.CreatedAt,
			ExpiresAt:  r.ExpiresAt,
		}
		if p, ok := byID[peer(r)]; ok {
			if senderSide {
				v.Sender = &p
			} else {
				v.Receiver = &p
			}
		}
		out = append(out, v)
	}
	return out, nil
}
