package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/socialgraph/internal/model"
)

// TrendingHashtag 热门话题：窗口内使用次数与去重帖子数
type TrendingHashtag struct {
	Tag         string `json:"tag"`
	PostCount   int64  `json:"post_count"`
	UniquePosts int64  `json:"unique_posts"`
}

type HashtagCount struct {
	Tag       string `json:"tag"`
	PostCount int64  `json:"post_count"`
}

type HashtagAnalytics struct {
	Tag           string    `json:"tag"`
	TotalPosts    int64     `json:"total_posts"`
	UniquePosts   int64     `json:"unique_posts"`
	UniqueAuthors int64     `json:"unique_authors"`
	FirstUsed     time.Time `json:"first_used"`
	LastUsed      time.Time `json:"last_used"`
}

type HashtagUsage struct {
	Tag        string    `json:"tag"`
	UsageCount int64     `json:"usage_count"`
	LastUsed   time.Time `json:"last_used"`
}

type RelatedHashtag struct {
	Tag               string `json:"tag"`
	CoOccurrenceCount int64  `json:"co_occurrence_count"`
}

type HashtagRepository interface {
	Upsert(ctx context.Context, tag string) (*model.Hashtag, error)
	FindByTag(ctx context.Context, tag string) (*model.Hashtag, error)
	SetBlocked(ctx context.Context, tag string, blocked bool) (int64, error)
	PostIDs(ctx context.Context, hashtagID string, offset, limit int) ([]string, error)
	Trending(ctx context.Context, since time.Time, minUses, limit int) ([]TrendingHashtag, error)
	Search(ctx context.Context, query string, limit int) ([]HashtagCount, error)
	Analytics(ctx context.Context, hashtagID string) (*HashtagAnalytics, error)
	UserUsage(ctx context.Context, userID string, limit int) ([]HashtagUsage, error)
	Related(ctx context.Context, hashtagID string, limit int) ([]RelatedHashtag, error)
}

type hashtagRepository struct {
	db *gorm.DB
}

func NewHashtagRepository(db *gorm.DB) HashtagRepository { return &hashtagRepository{db: db} }

// Upsert 按规范化文本插入或刷新 updated_at；已存在时保留原始大小写
func (r *hashtagRepository) Upsert(ctx context.Context, tag string) (*model.Hashtag, error) {
	now := time.Now().UTC()
	h := &model.Hashtag{
		ID:            uuid.New().String(),
		Tag:           strings.TrimSpace(tag),
		NormalizedTag: model.NormalizeTag(tag),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "normalized_tag"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
	}).Create(h).Error
	if err != nil {
		return nil, err
	}
	return r.FindByTag(ctx, tag)
}

// FindByTag 不区分大小写；被屏蔽的话题同样返回，由调用方判断
func (r *hashtagRepository) FindByTag(ctx context.Context, tag string) (*model.Hashtag, error) {
	var h model.Hashtag
	err := r.db.WithContext(ctx).Where("normalized_tag = ?", model.NormalizeTag(tag)).First(&h).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &h, nil
}

func (r *hashtagRepository) SetBlocked(ctx context.Context, tag string, blocked bool) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Hashtag{}).
		Where("normalized_tag = ?", model.NormalizeTag(tag)).
		Updates(map[string]any{"is_blocked": blocked, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// PostIDs 话题下的 active 内容，按发布时间倒序分页
func (r *hashtagRepository) PostIDs(ctx context.Context, hashtagID string, offset, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT c.id
		FROM post_hashtags ph
		JOIN content_items c ON c.id = ph.post_id
		WHERE ph.hashtag_id = ? AND c.status = ?
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT ? OFFSET ?
	`, hashtagID, model.ContentStatusActive, limit, offset).Scan(&ids).Error
	return ids, err
}

// Trending 窗口 [since, now) 内按话题分组，使用次数 >= minUses；
// 排序：去重帖子数降序，使用次数降序，标签升序
func (r *hashtagRepository) Trending(ctx context.Context, since time.Time, minUses, limit int) ([]TrendingHashtag, error) {
	var rows []TrendingHashtag
	err := r.db.WithContext(ctx).Raw(`
		SELECT h.tag AS tag,
		       COUNT(*) AS post_count,
		       COUNT(DISTINCT ph.post_id) AS unique_posts
		FROM hashtags h
		JOIN post_hashtags ph ON ph.hashtag_id = h.id
		JOIN content_items c ON c.id = ph.post_id
		WHERE h.is_blocked = ? AND c.status = ? AND c.created_at >= ?
		GROUP BY h.id, h.tag
		HAVING COUNT(*) >= ?
		ORDER BY unique_posts DESC, post_count DESC, h.tag ASC
		LIMIT ?
	`, false, model.ContentStatusActive, since, minUses, limit).Scan(&rows).Error
	return rows, err
}

// Search 规范化文本子串匹配，按帖子数降序
func (r *hashtagRepository) Search(ctx context.Context, query string, limit int) ([]HashtagCount, error) {
	pattern := "%" + escapeLike(model.NormalizeTag(query)) + "%"
	var rows []HashtagCount
	err := r.db.WithContext(ctx).Raw(`
		SELECT h.tag AS tag, COUNT(*) AS post_count
		FROM hashtags h
		JOIN post_hashtags ph ON ph.hashtag_id = h.id
		JOIN content_items c ON c.id = ph.post_id
		WHERE h.normalized_tag LIKE ? ESCAPE '\'
		  AND h.is_blocked = ? AND c.status = ?
		GROUP BY h.id, h.tag
		ORDER BY post_count DESC, h.tag ASC
		LIMIT ?
	`, pattern, false, model.ContentStatusActive, limit).Scan(&rows).Error
	return rows, err
}

type analyticsRow struct {
	Tag           string
	TotalPosts    int64
	UniquePosts   int64
	UniqueAuthors int64
	FirstUsed     string
	LastUsed      string
}

// Analytics 单个未屏蔽话题的汇总；话题没有任何 active 内容时返回 ErrNotFound
func (r *hashtagRepository) Analytics(ctx context.Context, hashtagID string) (*HashtagAnalytics, error) {
	var rows []analyticsRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT h.tag AS tag,
		       COUNT(*) AS total_posts,
		       COUNT(DISTINCT ph.post_id) AS unique_posts,
		       COUNT(DISTINCT c.owner_id) AS unique_authors,
		       MIN(c.created_at) AS first_used,
		       MAX(c.created_at) AS last_used
		FROM hashtags h
		JOIN post_hashtags ph ON ph.hashtag_id = h.id
		JOIN content_items c ON c.id = ph.post_id
		WHERE h.id = ? AND h.is_blocked = ? AND c.status = ?
		GROUP BY h.id, h.tag
	`, hashtagID, false, model.ContentStatusActive).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	row := rows[0]
	first, err := parseDBTime(row.FirstUsed)
	if err != nil {
		return nil, err
	}
	last, err := parseDBTime(row.LastUsed)
	if err != nil {
		return nil, err
	}
	return &HashtagAnalytics{
		Tag:           row.Tag,
		TotalPosts:    row.TotalPosts,
		UniquePosts:   row.UniquePosts,
		UniqueAuthors: row.UniqueAuthors,
		FirstUsed:     first,
		LastUsed:      last,
	}, nil
}

type usageRow struct {
	Tag        string
	UsageCount int64
	LastUsed   string
}

// UserUsage 某作者在未屏蔽话题上的使用次数，按次数降序
func (r *hashtagRepository) UserUsage(ctx context.Context, userID string, limit int) ([]HashtagUsage, error) {
	var rows []usageRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT h.tag AS tag,
		       COUNT(*) AS usage_count,
		       MAX(c.created_at) AS last_used
		FROM post_hashtags ph
		JOIN hashtags h ON h.id = ph.hashtag_id
		JOIN content_items c ON c.id = ph.post_id
		WHERE c.owner_id = ? AND h.is_blocked = ? AND c.status = ?
		GROUP BY h.id, h.tag
		ORDER BY usage_count DESC, h.tag ASC
		LIMIT ?
	`, userID, false, model.ContentStatusActive, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]HashtagUsage, 0, len(rows))
	for _, row := range rows {
		last, err := parseDBTime(row.LastUsed)
		if err != nil {
			return nil, err
		}
		out = append(out, HashtagUsage{Tag: row.Tag, UsageCount: row.UsageCount, LastUsed: last})
	}
	return out, nil
}

// Related 与目标话题出现在同一 active 内容上的其他未屏蔽话题，
// co_occurrence_count 为共同出现的帖子数
func (r *hashtagRepository) Related(ctx context.Context, hashtagID string, limit int) ([]RelatedHashtag, error) {
	var rows []RelatedHashtag
	err := r.db.WithContext(ctx).Raw(`
		SELECT h.tag AS tag,
		       COUNT(DISTINCT ph.post_id) AS co_occurrence_count
		FROM post_hashtags target
		JOIN post_hashtags ph ON ph.post_id = target.post_id AND ph.hashtag_id <> target.hashtag_id
		JOIN hashtags h ON h.id = ph.hashtag_id
		JOIN content_items c ON c.id = ph.post_id
		WHERE target.hashtag_id = ? AND h.is_blocked = ? AND c.status = ?
		GROUP BY h.id, h.tag
		ORDER BY co_occurrence_count DESC, h.tag ASC
		LIMIT ?
	`, hashtagID, false, model.ContentStatusActive, limit).Scan(&rows).Error
	return rows, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// sqlite 对聚合列返回文本，postgres 返回 timestamptz（经 database/sql 转成 RFC3339Nano）
var dbTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDBTime(s string) (time.Time, error) {
	for _, layout := range dbTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
