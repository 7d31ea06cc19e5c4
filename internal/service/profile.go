package service

import (
	"context"
	"sort"
	"strings"

	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
)

// Profile 对外的用户资料，带展示名回退
type Profile struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	IsVerified     bool   `json:"is_verified"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
	IsCloseFriend  bool   `json:"is_close_friend,omitempty"`
}

// NewProfile 展示名依次回退到 "first last"、用户名；用户名回退到邮箱前缀
func NewProfile(u *model.User) Profile {
	username := strings.TrimSpace(u.Username)
	if username == "" {
		username, _, _ = strings.Cut(u.Email, "@")
	}
	display := strings.TrimSpace(u.DisplayName)
	if display == "" {
		display = strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	}
	if display == "" {
		display = username
	}
	return Profile{
		ID:             u.ID,
		Username:       username,
		DisplayName:    display,
		AvatarURL:      u.AvatarURL,
		IsVerified:     u.IsVerified,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
	}
}

// hydrateProfiles 按 ids 顺序返回资料；目录里查不到的用户跳过
func hydrateProfiles(ctx context.Context, users repository.UserDirectory, ids []string) ([]Profile, error) {
	if len(ids) == 0 {
		return []Profile{}, nil
	}
	byID, err := users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, NewProfile(u))
		}
	}
	return out, nil
}

func lookupProfiles(ctx context.Context, users repository.UserDirectory, ids []string) (map[string]Profile, error) {
	out := make(map[string]Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	byID, err := users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, u := range byID {
		out[id] = NewProfile(u)
	}
	return out, nil
}

func sortByDisplayName(ps []Profile) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].DisplayName != ps[j].DisplayName {
			return ps[i].DisplayName < ps[j].DisplayName
		}
		return ps[i].ID < ps[j].ID
	})
}
