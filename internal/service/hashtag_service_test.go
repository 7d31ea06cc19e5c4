package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/internal/testutil"
	"github.com/d60-Lab/socialgraph/pkg/apperr"
)

func newHashtagService(t *testing.T, c *cache.Cache) (HashtagService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	return NewHashtagService(repository.NewStore(db), c, DefaultOptions()), db
}

func TestHashtagService_BlankTagRejected(t *testing.T) {
	svc, _ := newHashtagService(t, nil)
	ctx := context.Background()

	for _, tag := range []string{"", "   ", "#", " # "} {
		_, err := svc.UpsertHashtag(ctx, tag)
		assert.ErrorIs(t, err, ErrEmptyTag, "tag %q", tag)
		assert.ErrorIs(t, svc.BlockHashtag(ctx, tag), ErrEmptyTag)
		_, err = svc.GetPostsByHashtag(ctx, tag, 10, 0)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	}
}

func TestHashtagService_UpsertIdempotent(t *testing.T) {
	svc, db := newHashtagService(t, nil)
	ctx := context.Background()

	a, err := svc.UpsertHashtag(ctx, "Travel")
	require.NoError(t, err)
	b, err := svc.UpsertHashtag(ctx, "#travel")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	var n int64
	require.NoError(t, db.Model(&model.Hashtag{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestHashtagService_TrendingScenario(t *testing.T) {
	svc, db := newHashtagService(t, nil)
	now := time.Now().UTC()
	for i := 0; i < 4; i++ {
		testutil.SeedPost(t, db, fmt.Sprintf("t%d", i), "u1", now.Add(-time.Duration(i+1)*time.Hour), model.ContentStatusActive, "#travel")
	}
	for i := 0; i < 2; i++ {
		testutil.SeedPost(t, db, fmt.Sprintf("w%d", i), "u1", now.Add(-time.Hour), model.ContentStatusActive, "#work")
	}

	got, err := svc.GetTrendingHashtags(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "#travel", got[0].Tag)
	assert.EqualValues(t, 4, got[0].UniquePosts)
}

func TestHashtagService_BlockedNeverTrending(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc, db := newHashtagService(t, cache.New(client, time.Minute))
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 10; i++ {
		testutil.SeedPost(t, db, fmt.Sprintf("s%d", i), "u1", now.Add(-time.Hour), model.ContentStatusActive, "#spam")
	}

	got, err := svc.GetTrendingHashtags(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, svc.BlockHashtag(ctx, "SPAM"))
	got, err = svc.GetTrendingHashtags(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got, "blocking invalidates cached trending")

	posts, err := svc.GetPostsByHashtag(ctx, "#spam", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
	a, err := svc.GetHashtagAnalytics(ctx, "#spam")
	require.NoError(t, err)
	assert.Nil(t, a)

	require.NoError(t, svc.UnblockHashtag(ctx, "#spam"))
	got, err = svc.GetTrendingHashtags(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestHashtagService_PostsByHashtag(t *testing.T) {
	svc, db := newHashtagService(t, nil)
	testutil.SeedUser(t, db, "alice", "Alice", testutil.Verified())
	now := time.Now().UTC()
	testutil.SeedPost(t, db, "p1", "alice", now.Add(-3*time.Hour), model.ContentStatusActive, "#Go")
	testutil.SeedPost(t, db, "p2", "ghost", now.Add(-2*time.Hour), model.ContentStatusActive, "#go")
	testutil.SeedPost(t, db, "p3", "alice", now.Add(-time.Hour), model.ContentStatusDeleted, "#go")

	got, err := svc.GetPostsByHashtag(context.Background(), "GO", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[0].ID)
	assert.Equal(t, Author{ID: "ghost"}, got[0].Author)
	assert.Equal(t, "p1", got[1].ID)
	assert.Equal(t, "Alice", got[1].Author.DisplayName)
	assert.True(t, got[1].Author.IsVerified)

	missing, err := svc.GetPostsByHashtag(context.Background(), "#nope", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestHashtagService_Analytics(t *testing.T) {
	svc, db := newHashtagService(t, nil)
	now := time.Now().UTC()
	testutil.SeedPost(t, db, "p1", "a", now.Add(-3*time.Hour), model.ContentStatusActive, "#art")
	testutil.SeedPost(t, db, "p2", "a", now.Add(-2*time.Hour), model.ContentStatusActive, "#art")
	testutil.SeedPost(t, db, "p3", "b", now.Add(-time.Hour), model.ContentStatusActive, "#art")

	a, err := svc.GetHashtagAnalytics(context.Background(), "art")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.EqualValues(t, 3, a.TotalPosts)
	assert.EqualValues(t, 2, a.UniqueAuthors)
	assert.LessOrEqual(t, a.UniqueAuthors, a.TotalPosts)
	assert.False(t, a.FirstUsed.After(a.LastUsed))

	none, err := svc.GetHashtagAnalytics(context.Background(), "#unknown")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestHashtagService_RelatedScenario(t *testing.T) {
	svc, db := newHashtagService(t, nil)
	now := time.Now().UTC()
	testutil.SeedPost(t, db, "p1", "u", now, model.ContentStatusActive, "#travel", "#beach")
	testutil.SeedPost(t, db, "p2", "u", now, model.ContentStatusActive, "#travel", "#beach")
	testutil.SeedPost(t, db, "p3", "u", now, model.ContentStatusActive, "#travel")
	testutil.SeedPost(t, db, "p4", "u", now, model.ContentStatusActive, "#beach")

	got, err := svc.GetRelatedHashtags(context.Background(), "#travel", 10)
	require.NoError(t, err)
	assert.Equal(t, []repository.RelatedHashtag{{Tag: "#beach", CoOccurrenceCount: 2}}, got)
}

func TestHashtagService_SearchAndUsage(t *testing.T) {
	svc, db := newHashtagService(t, nil)
	now := time.Now().UTC()
	testutil.SeedPost(t, db, "p1", "u", now, model.ContentStatusActive, "#golang", "#gopher")
	testutil.SeedPost(t, db, "p2", "u", now, model.ContentStatusActive, "#golang")
	testutil.SeedPost(t, db, "p3", "v", now, model.ContentStatusActive, "#rust")
	ctx := context.Background()

	found, err := svc.SearchHashtags(ctx, "#GO", 0)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "#golang", found[0].Tag)
	assert.EqualValues(t, 2, found[0].PostCount)

	empty, err := svc.SearchHashtags(ctx, "  ", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	usage, err := svc.GetUserHashtagUsage(ctx, "u")
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, "#golang", usage[0].Tag)
	assert.EqualValues(t, 2, usage[0].UsageCount)
}

func TestHashtagService_Mentions(t *testing.T) {
	svc, db := newHashtagService(t, nil)
	testutil.SeedUser(t, db, "bob", "Bob")
	now := time.Now().UTC()
	testutil.SeedMention(t, db, "p1", "bob", "me", now.Add(-time.Hour))
	testutil.SeedMention(t, db, "p2", "ghost", "me", now)
	testutil.SeedMention(t, db, "p3", "bob", "other", now)

	got, err := svc.GetUserMentions(context.Background(), "me", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[0].PostID)
	assert.Nil(t, got[0].Mentioner)
	require.NotNil(t, got[1].Mentioner)
	assert.Equal(t, "Bob", got[1].Mentioner.DisplayName)
}

func TestHashtagService_DegradedAggregates(t *testing.T) {
	svc, db := newHashtagService(t, nil)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	ctx := context.Background()

	trending, err := svc.GetTrendingHashtags(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, trending)

	a, err := svc.GetHashtagAnalytics(ctx, "#x")
	require.NoError(t, err)
	assert.Nil(t, a)

	related, err := svc.GetRelatedHashtags(ctx, "#x", 5)
	require.NoError(t, err)
	assert.Empty(t, related)

	_, err = svc.UpsertHashtag(ctx, "#x")
	assert.True(t, apperr.IsKind(err, apperr.KindUnavailable))
}
