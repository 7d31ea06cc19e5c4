package service

import (
	"context"
	"sync"
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

func newFollowService(t *testing.T, opts Options) (FollowService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	return NewFollowService(repository.NewStore(db), nil, opts), db
}

func countEdges(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.Follow{}).Count(&n).Error)
	return n
}

func profileIDs(ps []Profile) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestFollowService_FollowSelfRejected(t *testing.T) {
	svc, db := newFollowService(t, DefaultOptions())
	for _, u := range []string{"a", "b", "user-123"} {
		err := svc.FollowUser(context.Background(), u, u)
		assert.ErrorIs(t, err, ErrFollowSelf)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	}
	assert.Zero(t, countEdges(t, db))

	assert.ErrorIs(t, svc.FollowUser(context.Background(), " ", "b"), ErrEmptyUserID)
}

func TestFollowService_FollowUnfollow(t *testing.T) {
	svc, db := newFollowService(t, DefaultOptions())
	ctx := context.Background()

	require.NoError(t, svc.FollowUser(ctx, "a", "b"))
	require.NoError(t, svc.FollowUser(ctx, "a", "b"), "following twice is a no-op")
	assert.EqualValues(t, 1, countEdges(t, db))

	ok, err := svc.IsFollowing(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.IsFollowing(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.UnfollowUser(ctx, "a", "b"))
	require.NoError(t, svc.UnfollowUser(ctx, "a", "b"), "unfollowing twice is a no-op")
	ok, err = svc.IsFollowing(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowService_CloseFriendRequiresEdge(t *testing.T) {
	svc, db := newFollowService(t, DefaultOptions())
	ctx := context.Background()

	require.NoError(t, svc.MarkAsCloseFriend(ctx, "a", "b"))
	assert.Zero(t, countEdges(t, db))
	ok, err := svc.AreCloseFriends(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.FollowUser(ctx, "a", "b"))
	require.NoError(t, svc.MarkAsCloseFriend(ctx, "a", "b"))
	ok, err = svc.AreCloseFriends(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.AreCloseFriends(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, ok, "close friendship is directed")

	require.NoError(t, svc.UnmarkAsCloseFriend(ctx, "a", "b"))
	ok, err = svc.AreCloseFriends(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowService_GetCloseFriendsSortedByDisplayName(t *testing.T) {
	svc, db := newFollowService(t, DefaultOptions())
	testutil.SeedUser(t, db, "u", "Owner")
	testutil.SeedUser(t, db, "z", "Zoe")
	testutil.SeedUser(t, db, "m", "Mia")
	testutil.SeedUser(t, db, "x", "Xander")
	testutil.SeedFollow(t, db, "u", "z", true)
	testutil.SeedFollow(t, db, "u", "m", true)
	testutil.SeedFollow(t, db, "u", "x", false)

	got, err := svc.GetCloseFriends(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"m", "z"}, profileIDs(got))
	for _, p := range got {
		assert.True(t, p.IsCloseFriend)
	}
}

func TestFollowService_MutualFriendsScenario(t *testing.T) {
	svc, db := newFollowService(t, DefaultOptions())
	for _, id := range []string{"A", "B", "C", "D"} {
		testutil.SeedUser(t, db, id, "User "+id)
	}
	testutil.SeedFollow(t, db, "A", "B", false)
	testutil.SeedFollow(t, db, "B", "C", false)
	testutil.SeedFollow(t, db, "A", "D", false)
	testutil.SeedFollow(t, db, "C", "D", false)
	testutil.SeedFollow(t, db, "C", "A", false)
	testutil.SeedFollow(t, db, "A", "C", false)

	ctx := context.Background()
	ac, err := svc.GetMutualFriends(ctx, "A", "C")
	require.NoError(t, err)
	ca, err := svc.GetMutualFriends(ctx, "C", "A")
	require.NoError(t, err)

	assert.Equal(t, []string{"D"}, profileIDs(ac))
	assert.ElementsMatch(t, profileIDs(ac), profileIDs(ca))
	assert.NotContains(t, profileIDs(ac), "A")
	assert.NotContains(t, profileIDs(ac), "C")
}

func TestFollowService_Suggestions(t *testing.T) {
	svc, db := newFollowService(t, DefaultOptions())
	testutil.SeedUser(t, db, "u", "Me")
	testutil.SeedUser(t, db, "f1", "Friend 1")
	testutil.SeedUser(t, db, "f2", "Friend 2")
	testutil.SeedUser(t, db, "x", "X", testutil.Followers(5))
	testutil.SeedUser(t, db, "y", "Y", testutil.Followers(100))
	testutil.SeedFollow(t, db, "u", "f1", false)
	testutil.SeedFollow(t, db, "u", "f2", false)
	testutil.SeedFollow(t, db, "f1", "x", false)
	testutil.SeedFollow(t, db, "f2", "x", false)
	testutil.SeedFollow(t, db, "f1", "u", false)

	got, err := svc.GetUserSuggestions(context.Background(), "u", 10)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "x", got[0].ID)
	assert.EqualValues(t, 2, got[0].MutualFriendsCount)
	assert.Equal(t, "y", got[1].ID)
	for _, s := range got {
		assert.NotEqual(t, "u", s.ID)
		assert.NotContains(t, []string{"f1", "f2"}, s.ID)
	}
}

func TestFollowService_SuggestionsCachedUntilFollow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.New(client, time.Minute)

	db := testutil.NewDB(t)
	svc := NewFollowService(repository.NewStore(db), c, DefaultOptions())
	testutil.SeedUser(t, db, "u", "Me")
	testutil.SeedUser(t, db, "x", "X")
	ctx := context.Background()

	got, err := svc.GetUserSuggestions(ctx, "u", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, suggestionIDs(got))

	testutil.SeedUser(t, db, "y", "Y")
	got, err = svc.GetUserSuggestions(ctx, "u", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, suggestionIDs(got), "served from cache")

	require.NoError(t, svc.FollowUser(ctx, "u", "x"))
	got, err = svc.GetUserSuggestions(ctx, "u", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, suggestionIDs(got))
}

func suggestionIDs(s []SuggestedUser) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.ID
	}
	return out
}

func TestFollowService_FriendRequestLifecycle(t *testing.T) {
	svc, db := newFollowService(t, DefaultOptions())
	testutil.SeedUser(t, db, "a", "Alice")
	testutil.SeedUser(t, db, "b", "Bob")
	ctx := context.Background()

	_, err := svc.SendFriendRequest(ctx, "a", "a", nil)
	assert.ErrorIs(t, err, ErrFriendRequestSelf)

	msg := "  hi there  "
	req, err := svc.SendFriendRequest(ctx, "a", "b", &msg)
	require.NoError(t, err)
	require.NotNil(t, req.Message)
	assert.Equal(t, "hi there", *req.Message)
	assert.Equal(t, model.FriendRequestPending, req.Status)

	again, err := svc.SendFriendRequest(ctx, "a", "b", nil)
	require.NoError(t, err)
	assert.Equal(t, req.ID, again.ID, "live pending request is reused")

	received, err := svc.GetReceivedFriendRequests(ctx, "b")
	require.NoError(t, err)
	require.Len(t, received, 1)
	require.NotNil(t, received[0].Sender)
	assert.Equal(t, "Alice", received[0].Sender.DisplayName)

	sent, err := svc.GetSentFriendRequests(ctx, "a")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	require.NotNil(t, sent[0].Receiver)
	assert.Equal(t, "b", sent[0].Receiver.ID)

	ok, err := svc.AcceptFriendRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ab, err := svc.IsFollowing(ctx, "a", "b")
	require.NoError(t, err)
	ba, err := svc.IsFollowing(ctx, "b", "a")
	require.NoError(t, err)
	assert.True(t, ab && ba)

	ok, err = svc.AcceptFriendRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, ok, "already accepted")
	ok, err = svc.DeclineFriendRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = svc.CancelFriendRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, ok, "cancelling a resolved request is a no-op")

	got, err := svc.GetFriendRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendRequestAccepted, got.Status)
}

func TestFollowService_CancelledRequestScenario(t *testing.T) {
	svc, db := newFollowService(t, DefaultOptions())
	ctx := context.Background()

	req, err := svc.SendFriendRequest(ctx, "A", "B", nil)
	require.NoError(t, err)
	ok, err := svc.CancelFriendRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	received, err := svc.GetReceivedFriendRequests(ctx, "B")
	require.NoError(t, err)
	assert.Empty(t, received)

	var n int64
	require.NoError(t, db.Model(&model.FriendRequest{}).Where("id = ?", req.ID).Count(&n).Error)
	assert.Zero(t, n)

	_, err = svc.GetFriendRequest(ctx, req.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestFollowService_DeclineLeavesNoEdges(t *testing.T) {
	svc, db := newFollowService(t, DefaultOptions())
	ctx := context.Background()

	req, err := svc.SendFriendRequest(ctx, "a", "b", nil)
	require.NoError(t, err)
	ok, err := svc.DeclineFriendRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.AcceptFriendRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, countEdges(t, db))
}

func TestFollowService_ExpiredRequestCannotBeAccepted(t *testing.T) {
	now := time.Now().UTC()
	opts := DefaultOptions()
	opts.RequestTTL = time.Hour
	opts.Now = func() time.Time { return now }
	svc, db := newFollowService(t, opts)
	ctx := context.Background()

	req, err := svc.SendFriendRequest(ctx, "a", "b", nil)
	require.NoError(t, err)
	assert.True(t, req.ExpiresAt.Equal(now.Add(time.Hour)))

	now = now.Add(2 * time.Hour)
	received, err := svc.GetReceivedFriendRequests(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, received)

	ok, err := svc.AcceptFriendRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, countEdges(t, db))

	fresh, err := svc.SendFriendRequest(ctx, "a", "b", nil)
	require.NoError(t, err)
	assert.NotEqual(t, req.ID, fresh.ID, "expired request is not reused")
}

func TestFollowService_ConcurrentAcceptCreatesTwoEdges(t *testing.T) {
	svc, db := newFollowService(t, DefaultOptions())
	ctx := context.Background()

	req, err := svc.SendFriendRequest(ctx, "a", "b", nil)
	require.NoError(t, err)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := svc.AcceptFriendRequest(ctx, req.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.EqualValues(t, 2, countEdges(t, db))
}

func TestFollowService_StatsAndLists(t *testing.T) {
	svc, db := newFollowService(t, DefaultOptions())
	testutil.SeedUser(t, db, "u", "Me")
	testutil.SeedUser(t, db, "a", "Ann")
	testutil.SeedUser(t, db, "b", "Ben")
	ctx := context.Background()

	require.NoError(t, svc.FollowUser(ctx, "u", "a"))
	require.NoError(t, svc.FollowUser(ctx, "u", "b"))
	require.NoError(t, svc.FollowUser(ctx, "a", "u"))
	require.NoError(t, svc.MarkAsCloseFriend(ctx, "u", "b"))

	stats, err := svc.GetFollowStats(ctx, "u")
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.FollowingCount)
	assert.EqualValues(t, 1, stats.FollowersCount)
	assert.EqualValues(t, 1, stats.CloseFriendsCount)

	following, err := svc.ListFollowing(ctx, "u", 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, profileIDs(following))
	for _, p := range following {
		assert.Equal(t, p.ID == "b", p.IsCloseFriend)
	}

	followers, err := svc.ListFollowers(ctx, "u", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, profileIDs(followers))

	page2, err := svc.ListFollowing(ctx, "u", 2, 1)
	require.NoError(t, err)
	assert.Len(t, page2, 1)
}

func TestFollowService_Relationship(t *testing.T) {
	svc, _ := newFollowService(t, DefaultOptions())
	ctx := context.Background()
	require.NoError(t, svc.FollowUser(ctx, "a", "b"))
	require.NoError(t, svc.MarkAsCloseFriend(ctx, "a", "b"))

	rel, err := svc.GetRelationship(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, &Relationship{ViewerID: "a", TargetID: "b", Following: true, FollowedBy: false, CloseFriends: true}, rel)
}

func TestFollowService_StoreUnavailable(t *testing.T) {
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	ctx := context.Background()

	degraded := NewFollowService(store, nil, DefaultOptions())
	got, err := degraded.GetUserSuggestions(ctx, "u", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	err = degraded.FollowUser(ctx, "a", "b")
	assert.True(t, apperr.IsKind(err, apperr.KindUnavailable), "write paths never degrade")

	_, err = degraded.AcceptFriendRequest(ctx, "req-1")
	assert.True(t, apperr.IsKind(err, apperr.KindTransaction))

	opts := DefaultOptions()
	opts.DegradeAggregates = false
	strict := NewFollowService(store, nil, opts)
	_, err = strict.GetUserSuggestions(ctx, "u", 5)
	assert.True(t, apperr.IsKind(err, apperr.KindUnavailable))
}

func TestNewProfileFallbacks(t *testing.T) {
	p := NewProfile(&model.User{ID: "1", Username: "jdoe", FirstName: "John", LastName: "Doe"})
	assert.Equal(t, "John Doe", p.DisplayName)

	p = NewProfile(&model.User{ID: "2", Email: "kim@example.com"})
	assert.Equal(t, "kim", p.Username)
	assert.Equal(t, "kim", p.DisplayName)

	p = NewProfile(&model.User{ID: "3", Username: "x", DisplayName: "Shown"})
	assert.Equal(t, "Shown", p.DisplayName)
}
