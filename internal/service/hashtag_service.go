package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

const (
	defaultPostsLimit    = 50
	defaultSearchLimit   = 20
	defaultUsageLimit    = 20
	defaultMentionsLimit = 50
)

// Author 帖子作者的精简资料
type Author struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	IsVerified  bool   `json:"is_verified"`
}

// PostWithAuthor 话题下的帖子；作者不在目录中时只有 ID
type PostWithAuthor struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    Author    `json:"author"`
}

// MentionView @ 记录 + 发起人资料
type MentionView struct {
	ID          string    `json:"id"`
	PostID      string    `json:"post_id"`
	MentionerID string    `json:"mentioner_id"`
	CreatedAt   time.Time `json:"created_at"`
	Mentioner   *Author   `json:"mentioner,omitempty"`
}

// HashtagService 话题发现：热门、搜索、统计、共现
type HashtagService interface {
	UpsertHashtag(ctx context.Context, tag string) (*model.Hashtag, error)
	BlockHashtag(ctx context.Context, tag string) error
	UnblockHashtag(ctx context.Context, tag string) error
	GetPostsByHashtag(ctx context.Context, tag string, limit, offset int) ([]PostWithAuthor, error)
	GetTrendingHashtags(ctx context.Context, limit int) ([]repository.TrendingHashtag, error)
	SearchHashtags(ctx context.Context, query string, limit int) ([]repository.HashtagCount, error)
	GetHashtagAnalytics(ctx context.Context, tag string) (*repository.HashtagAnalytics, error)
	GetUserHashtagUsage(ctx context.Context, userID string) ([]repository.HashtagUsage, error)
	GetRelatedHashtags(ctx context.Context, tag string, limit int) ([]repository.RelatedHashtag, error)
	GetUserMentions(ctx context.Context, userID string, limit, offset int) ([]MentionView, error)
}

type hashtagService struct {
	store *repository.Store
	cache *cache.Cache
	opts  Options
}

func NewHashtagService(store *repository.Store, c *cache.Cache, opts Options) HashtagService {
	return &hashtagService{store: store, cache: c, opts: opts.withDefaults()}
}

func requireTag(tag string) error {
	if model.NormalizeTag(tag) == "" {
		return ErrEmptyTag
	}
	return nil
}

func newAuthor(u *model.User) Author {
	p := NewProfile(u)
	return Author{ID: p.ID, Username: p.Username, DisplayName: p.DisplayName, AvatarURL: p.AvatarURL, IsVerified: p.IsVerified}
}

// visible 查找未屏蔽的话题；不存在或被屏蔽时返回 nil
func (s *hashtagService) visible(ctx context.Context, tag string) (*model.Hashtag, error) {
	h, err := s.store.Hashtags.FindByTag(ctx, tag)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if h.IsBlocked {
		return nil, nil
	}
	return h, nil
}

// UpsertHashtag 大小写不同的同名话题只有一条记录
func (s *hashtagService) UpsertHashtag(ctx context.Context, tag string) (*model.Hashtag, error) {
	if err := requireTag(tag); err != nil {
		return nil, err
	}
	h, err := s.store.Hashtags.Upsert(ctx, tag)
	if err != nil {
		return nil, apperr.Unavailable("upsert hashtag", err)
	}
	s.cache.Invalidate(ctx, cache.NamespaceHashtag)
	return h, nil
}

func (s *hashtagService) BlockHashtag(ctx context.Context, tag string) error {
	return s.setBlocked(ctx, tag, true)
}

func (s *hashtagService) UnblockHashtag(ctx context.Context, tag string) error {
	return s.setBlocked(ctx, tag, false)
}

// setBlocked 话题不存在时不做任何事
func (s *hashtagService) setBlocked(ctx context.Context, tag string, blocked bool) error {
	if err := requireTag(tag); err != nil {
		return err
	}
	n, err := s.store.Hashtags.SetBlocked(ctx, tag, blocked)
	if err != nil {
		return apperr.Unavailable("update hashtag", err)
	}
	if n > 0 {
		s.cache.Invalidate(ctx, cache.NamespaceHashtag)
		logger.Info("hashtag moderation changed", zap.String("tag", model.NormalizeTag(tag)), zap.Bool("blocked", blocked))
	}
	return nil
}

// GetPostsByHashtag 只返回 active 内容，最新在前
func (s *hashtagService) GetPostsByHashtag(ctx context.Context, tag string, limit, offset int) ([]PostWithAuthor, error) {
	if err := requireTag(tag); err != nil {
		return nil, err
	}
	limit = s.opts.limit(limit, defaultPostsLimit)
	if offset < 0 {
		offset = 0
	}
	h, err := s.visible(ctx, tag)
	if err != nil {
		return nil, apperr.Unavailable("find hashtag", err)
	}
	if h == nil {
		return []PostWithAuthor{}, nil
	}
	ids, err := s.store.Hashtags.PostIDs(ctx, h.ID, offset, limit)
	if err != nil {
		return nil, apperr.Unavailable("list hashtag posts", err)
	}
	items, err := s.store.Contents.GetActive(ctx, ids)
	if err != nil {
		return nil, apperr.Unavailable("load content", err)
	}
	owners := make([]string, 0, len(items))
	for _, it := range items {
		owners = append(owners, it.OwnerID)
	}
	users, err := s.store.Users.GetUsers(ctx, owners)
	if err != nil {
		return nil, apperr.Unavailable("load authors", err)
	}

	out := make([]PostWithAuthor, 0, len(ids))
	for _, id := range ids {
		it, ok := items[id]
		if !ok {
			continue
		}
		author := Author{ID: it.OwnerID}
		if u, ok := users[it.OwnerID]; ok {
			author = newAuthor(u)
		}
		out = append(out, PostWithAuthor{ID: it.ID, Content: it.Body, CreatedAt: it.CreatedAt, Author: author})
	}
	return out, nil
}

// GetTrendingHashtags 最近窗口内使用次数达到阈值的未屏蔽话题
func (s *hashtagService) GetTrendingHashtags(ctx context.Context, limit int) ([]repository.TrendingHashtag, error) {
	limit = s.opts.limit(limit, s.opts.DefaultLimit)

	ctx, span := tracer.Start(ctx, "HashtagService.GetTrendingHashtags")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", limit))

	key := fmt.Sprintf("trending:%d", limit)
	out, err := cache.Fetch(ctx, s.cache, cache.NamespaceHashtag, key, func(ctx context.Context) ([]repository.TrendingHashtag, error) {
		since := s.opts.Now().Add(-s.opts.TrendingWindow)
		return s.store.Hashtags.Trending(ctx, since, s.opts.TrendingMinUses, limit)
	})
	if err != nil {
		return degrade(ctx, s.opts, "trending hashtags", err, []repository.TrendingHashtag{})
	}
	return out, nil
}

// SearchHashtags 前后缀不限的子串匹配，空查询返回空结果
func (s *hashtagService) SearchHashtags(ctx context.Context, query string, limit int) ([]repository.HashtagCount, error) {
	q := model.NormalizeTag(query)
	if q == "" {
		return []repository.HashtagCount{}, nil
	}
	limit = s.opts.limit(limit, defaultSearchLimit)
	key := fmt.Sprintf("search:%s:%d", q, limit)
	out, err := cache.Fetch(ctx, s.cache, cache.NamespaceHashtag, key, func(ctx context.Context) ([]repository.HashtagCount, error) {
		return s.store.Hashtags.Search(ctx, query, limit)
	})
	if err != nil {
		return nil, apperr.Unavailable("search hashtags", err)
	}
	return out, nil
}

// GetHashtagAnalytics 话题不存在、被屏蔽或从未使用时返回 nil
func (s *hashtagService) GetHashtagAnalytics(ctx context.Context, tag string) (*repository.HashtagAnalytics, error) {
	if err := requireTag(tag); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "HashtagService.GetHashtagAnalytics")
	defer span.End()

	key := "analytics:" + model.NormalizeTag(tag)
	out, err := cache.Fetch(ctx, s.cache, cache.NamespaceHashtag, key, func(ctx context.Context) (*repository.HashtagAnalytics, error) {
		h, err := s.visible(ctx, tag)
		if err != nil || h == nil {
			return nil, err
		}
		a, err := s.store.Hashtags.Analytics(ctx, h.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return a, err
	})
	if err != nil {
		return degrade[*repository.HashtagAnalytics](ctx, s.opts, "hashtag analytics", err, nil)
	}
	return out, nil
}

// GetUserHashtagUsage 用户最常用的话题
func (s *hashtagService) GetUserHashtagUsage(ctx context.Context, userID string) ([]repository.HashtagUsage, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	out, err := s.store.Hashtags.UserUsage(ctx, userID, defaultUsageLimit)
	if err != nil {
		return nil, apperr.Unavailable("hashtag usage", err)
	}
	return out, nil
}

// GetRelatedHashtags 与 tag 出现在同一帖子中的其他话题，按共现帖子数降序
func (s *hashtagService) GetRelatedHashtags(ctx context.Context, tag string, limit int) ([]repository.RelatedHashtag, error) {
	if err := requireTag(tag); err != nil {
		return nil, err
	}
	limit = s.opts.limit(limit, s.opts.DefaultLimit)
	key := fmt.Sprintf("related:%s:%d", model.NormalizeTag(tag), limit)
	out, err := cache.Fetch(ctx, s.cache, cache.NamespaceHashtag, key, func(ctx context.Context) ([]repository.RelatedHashtag, error) {
		h, err := s.visible(ctx, tag)
		if err != nil || h == nil {
			return []repository.RelatedHashtag{}, err
		}
		return s.store.Hashtags.Related(ctx, h.ID, limit)
	})
	if err != nil {
		return degrade(ctx, s.opts, "related hashtags", err, []repository.RelatedHashtag{})
	}
	return out, nil
}

func (s *hashtagService) GetUserMentions(ctx context.Context, userID string, limit, offset int) ([]MentionView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}
	limit = s.opts.limit(limit, defaultMentionsLimit)
	if offset < 0 {
		offset = 0
	}
	mentions, err := s.store.Mentions.ListForUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, apperr.Unavailable("list mentions", err)
	}
	ids := make([]string, len(mentions))
	for i, m := range mentions {
		ids[i] = m.MentionerID
	}
	users, err := s.store.Users.GetUsers(ctx, ids)
	if err != nil {
		return nil, apperr.Unavailable("load mentioners", err)
	}
	out := make([]MentionView, 0, len(mentions))
	for _, m := range mentions {
		v := MentionView{ID: m.ID, PostID: m.PostID, MentionerID: m.MentionerID, CreatedAt: m.CreatedAt}
		if u, ok := users[m.MentionerID]; ok {
			a := newAuthor(u)
			v.Mentioner = &a
		}
		out = append(out, v)
	}
	return out, nil
}
