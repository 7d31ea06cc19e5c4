package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/d60-Lab/socialgraph/config"
	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/internal/service"
	"github.com/d60-Lab/socialgraph/pkg/database"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

type scenario struct {
	name string
	call func(ctx context.Context, userID string) error
}

func main() {
	users := flag.Int("users", 5000, "synthetic users")
	follows := flag.Int("follows", 40, "follow edges per user")
	posts := flag.Int("posts", 20000, "synthetic posts")
	requests := flag.Int("requests", 3000, "requests per scenario")
	workers := flag.Int("workers", 8, "concurrent callers")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	mustDo(logger.Init(cfg.Log.Env, cfg.Log.Level))
	defer logger.Sync()
	cfg.Database.AutoMigrate = true

	ctx := context.Background()
	db := must(database.InitDB(cfg))
	for _, table := range []string{"post_hashtags", "hashtags", "social_mentions", "content_items", "friend_requests", "user_follows", "users"} {
		mustDo(db.Exec("DELETE FROM " + table).Error)
	}

	fmt.Println("Setting up test data...")
	ids := seed(db, *users, *follows, *posts)
	fmt.Printf("Test data ready: %d users, %d follows, %d posts\n", *users, *users**follows, *posts)

	var client *redis.Client
	if cfg.Redis.Enabled {
		client = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			panic(fmt.Sprintf("Failed to connect to Redis at %s: %v", cfg.Redis.Addr, err))
		}
	}

	store := repository.NewStore(db)
	opts := service.OptionsFromConfig(cfg.Engine)
	opts.DegradeAggregates = false

	run := func(label string, c *cache.Cache) {
		fs := service.NewFollowService(store, c, opts)
		hs := service.NewHashtagService(store, c, opts)
		scenarios := []scenario{
			{"suggestions", func(ctx context.Context, u string) error { _, err := fs.GetUserSuggestions(ctx, u, 10); return err }},
			{"mutual", func(ctx context.Context, u string) error { _, err := fs.GetMutualFriends(ctx, u, ids[0]); return err }},
			{"stats", func(ctx context.Context, u string) error { _, err := fs.GetFollowStats(ctx, u); return err }},
			{"trending", func(ctx context.Context, _ string) error { _, err := hs.GetTrendingHashtags(ctx, 10); return err }},
			{"related", func(ctx context.Context, _ string) error { _, err := hs.GetRelatedHashtags(ctx, "tag0", 10); return err }},
		}
		fmt.Printf("\n%s\n", label)
		for _, s := range scenarios {
			if client != nil {
				client.FlushAll(ctx)
			}
			durations := runScenario(ctx, s, pick(ids, *requests), *workers)
			line := fmt.Sprintf("%-12s avg=%v p95=%v p99=%v", s.name, avg(durations), pct(durations, 0.95), pct(durations, 0.99))
			if c != nil {
				st := c.Stats()
				line += fmt.Sprintf(" hits=%d misses=%d", st.Hits, st.Misses)
				c.ResetStats()
			}
			fmt.Println(line)
		}
	}

	run("No cache", nil)
	if client != nil {
		run("Redis aggregate cache", cache.New(client, cfg.Engine.CacheTTL))
	}
}

func runScenario(ctx context.Context, s scenario, users []string, workers int) []time.Duration {
	var (
		mu  sync.Mutex
		out = make([]time.Duration, 0, len(users))
	)
	work := make(chan string)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for u := range work {
				start := time.Now()
				if err := s.call(gctx, u); err != nil {
					return err
				}
				d := time.Since(start)
				mu.Lock()
				out = append(out, d)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(work)
		for _, u := range users {
			select {
			case work <- u:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("scenario failed", zap.String("scenario", s.name), zap.Error(err))
	}
	return out
}

// seed 幂律分布的关注关系 + 话题帖子；返回用户 id，下标越小越热门
func seed(db *gorm.DB, userCount, followsPerUser, postCount int) []string {
	rnd := rand.New(rand.NewSource(42))
	now := time.Now().UTC()

	users := make([]model.User, userCount)
	ids := make([]string, userCount)
	for i := range users {
		ids[i] = uuid.NewString()
		users[i] = model.User{
			ID:          ids[i],
			Username:    fmt.Sprintf("user_%d", i),
			Email:       fmt.Sprintf("user_%d@example.com", i),
			DisplayName: fmt.Sprintf("User %d", i),
			IsActive:    true,
		}
	}

	edges := make([]model.Follow, 0, userCount*followsPerUser)
	seen := make(map[[2]int]struct{}, userCount*followsPerUser)
	for i := 0; i < userCount; i++ {
		for n := 0; n < followsPerUser; n++ {
			j := int(math.Pow(rnd.Float64(), 3) * float64(userCount))
			key := [2]int{i, j}
			if j == i {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			users[j].FollowersCount++
			users[i].FollowingCount++
			edges = append(edges, model.Follow{
				ID:            uuid.NewString(),
				FollowerID:    ids[i],
				FollowingID:   ids[j],
				Status:        model.FollowStatusActive,
				IsCloseFriend: rnd.Intn(10) == 0,
				CreatedAt:     now.Add(-time.Duration(rnd.Intn(86400)) * time.Second),
				UpdatedAt:     now,
			})
		}
	}

	const tagCount = 200
	tags := make([]model.Hashtag, tagCount)
	for i := range tags {
		tags[i] = model.Hashtag{ID: uuid.NewString(), Tag: fmt.Sprintf("#tag%d", i), NormalizedTag: fmt.Sprintf("tag%d", i), CreatedAt: now, UpdatedAt: now}
	}
	items := make([]model.ContentItem, postCount)
	links := make([]model.PostHashtag, 0, postCount*2)
	for i := range items {
		created := now.Add(-time.Duration(rnd.Intn(14*24)) * time.Hour)
		items[i] = model.ContentItem{
			ID:        uuid.NewString(),
			OwnerID:   ids[rnd.Intn(userCount)],
			Body:      fmt.Sprintf("post %d", i),
			Status:    model.ContentStatusActive,
			CreatedAt: created,
			UpdatedAt: created,
		}
		used := map[int]struct{}{}
		for k := 0; k < 1+rnd.Intn(3); k++ {
			t := int(math.Pow(rnd.Float64(), 2) * tagCount)
			if _, ok := used[t]; ok {
				continue
			}
			used[t] = struct{}{}
			links = append(links, model.PostHashtag{PostID: items[i].ID, HashtagID: tags[t].ID, CreatedAt: created})
		}
	}

	mustDo(db.CreateInBatches(&users, 500).Error)
	mustDo(db.CreateInBatches(&edges, 1000).Error)
	mustDo(db.CreateInBatches(&tags, 200).Error)
	mustDo(db.CreateInBatches(&items, 1000).Error)
	mustDo(db.CreateInBatches(&links, 1000).Error)
	return ids
}

func pick(ids []string, n int) []string {
	rnd := rand.New(rand.NewSource(7))
	out := make([]string, n)
	for i := range out {
		out[i] = ids[int(math.Pow(rnd.Float64(), 2)*float64(len(ids)))]
	}
	return out
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
