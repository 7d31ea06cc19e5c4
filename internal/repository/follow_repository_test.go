package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/testutil"
)

func TestFollowRepository_UpsertIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "a", "b"))
	n, err := repo.SetCloseFriend(ctx, "a", "b", true)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.NoError(t, repo.Upsert(ctx, "a", "b"))

	var edges []model.Follow
	require.NoError(t, db.Find(&edges).Error)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].IsCloseFriend, "re-follow keeps close friend flag")

	ok, err := repo.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowRepository_SetCloseFriendWithoutEdge(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFollowRepository(db)

	n, err := repo.SetCloseFriend(context.Background(), "a", "b", true)
	require.NoError(t, err)
	assert.Zero(t, n)

	var cnt int64
	require.NoError(t, db.Model(&model.Follow{}).Count(&cnt).Error)
	assert.Zero(t, cnt)
}

func TestFollowRepository_MutualFollowingIDs(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	// A->B, B->C, A->D, C->D, A->C, C->A
	for _, e := range [][2]string{{"A", "B"}, {"B", "C"}, {"A", "D"}, {"C", "D"}, {"A", "C"}, {"C", "A"}} {
		testutil.SeedFollow(t, db, e[0], e[1], false)
	}

	ac, err := repo.MutualFollowingIDs(ctx, "A", "C")
	require.NoError(t, err)
	ca, err := repo.MutualFollowingIDs(ctx, "C", "A")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"D"}, ac)
	assert.ElementsMatch(t, ac, ca)
}

func TestFollowRepository_Suggestions(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	testutil.SeedUser(t, db, "me", "Me")
	testutil.SeedUser(t, db, "f1", "Friend 1")
	testutil.SeedUser(t, db, "f2", "Friend 2")
	testutil.SeedUser(t, db, "x", "X", testutil.Followers(10))
	testutil.SeedUser(t, db, "y", "Y", testutil.Followers(500))
	testutil.SeedUser(t, db, "z", "Z", testutil.Followers(50))
	testutil.SeedUser(t, db, "ghost", "Ghost", testutil.Followers(9999), testutil.Inactive())

	testutil.SeedFollow(t, db, "me", "f1", false)
	testutil.SeedFollow(t, db, "me", "f2", false)
	// x 被两个好友关注，z 被一个，y 没有但粉丝最多
	testutil.SeedFollow(t, db, "f1", "x", false)
	testutil.SeedFollow(t, db, "f2", "x", false)
	testutil.SeedFollow(t, db, "f1", "z", false)
	testutil.SeedFollow(t, db, "f1", "ghost", false)

	rows, err := repo.Suggestions(ctx, "me", 10)
	require.NoError(t, err)

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.UserID
	}
	assert.Equal(t, []string{"x", "z", "y"}, ids)
	assert.EqualValues(t, 2, rows[0].MutualCount)
	assert.EqualValues(t, 1, rows[1].MutualCount)
	assert.EqualValues(t, 0, rows[2].MutualCount)

	rows, err = repo.Suggestions(ctx, "me", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "x", rows[0].UserID)
}

func TestFollowRepository_Stats(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFollowRepository(db)

	testutil.SeedFollow(t, db, "u", "a", true)
	testutil.SeedFollow(t, db, "u", "b", false)
	testutil.SeedFollow(t, db, "c", "u", false)

	stats, err := repo.Stats(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, FollowStats{FollowingCount: 2, FollowersCount: 1, CloseFriendsCount: 1, SelfFollowing: 0}, *stats)
}

func TestFollowRepository_ListFollowersAndFollowing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	testutil.SeedFollow(t, db, "a", "u", false)
	testutil.SeedFollow(t, db, "b", "u", false)
	testutil.SeedFollow(t, db, "u", "c", false)

	fans, err := repo.ListFollowers(ctx, "u", 0, 10)
	require.NoError(t, err)
	assert.Len(t, fans, 2)

	page, err := repo.ListFollowers(ctx, "u", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	following, err := repo.ListFollowing(ctx, "u", 0, 10)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "c", following[0].FollowingID)

	n, err := repo.Delete(ctx, "u", "c")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = repo.Delete(ctx, "u", "c")
	require.NoError(t, err)
	assert.Zero(t, n)
}
