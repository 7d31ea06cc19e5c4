package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/socialgraph/pkg/response"
)

type followRequest struct {
	FollowerID  string `json:"follower_id" binding:"required"`
	FollowingID string `json:"following_id" binding:"required"`
}

type closeFriendRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	FriendID string `json:"friend_id" binding:"required"`
}

// Follow 建立关注
// @Summary 关注用户
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body followRequest true "关注信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /follows [post]
func (h *Handler) Follow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.follows.FollowUser(c.Request.Context(), req.FollowerID, req.FollowingID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body followRequest true "取消关注信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /follows [delete]
func (h *Handler) Unfollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.follows.UnfollowUser(c.Request.Context(), req.FollowerID, req.FollowingID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// MarkCloseFriend 标记密友，需已关注
// @Summary 标记密友
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body closeFriendRequest true "密友"
// @Success 200 {object} response.Response
// @Router /close-friends [post]
func (h *Handler) MarkCloseFriend(c *gin.Context) {
	var req closeFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.follows.MarkAsCloseFriend(c.Request.Context(), req.UserID, req.FriendID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// UnmarkCloseFriend 取消密友
// @Summary 取消密友
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body closeFriendRequest true "密友"
// @Success 200 {object} response.Response
// @Router /close-friends [delete]
func (h *Handler) UnmarkCloseFriend(c *gin.Context) {
	var req closeFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.follows.UnmarkAsCloseFriend(c.Request.Context(), req.UserID, req.FriendID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ListFollowing 查询某用户关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Param id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /users/{id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	page, pageSize := queryInt(c, "page", 1), queryInt(c, "page_size", 10)
	list, err := h.follows.ListFollowing(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListFollowers 查询某用户的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Param id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /users/{id}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	page, pageSize := queryInt(c, "page", 1), queryInt(c, "page_size", 10)
	list, err := h.follows.ListFollowers(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// CloseFriends 密友列表，按展示名排序
// @Summary 密友列表
// @Tags 关系链
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=[]service.Profile}
// @Router /users/{id}/close-friends [get]
func (h *Handler) CloseFriends(c *gin.Context) {
	list, err := h.follows.GetCloseFriends(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// MutualFriends 两个用户共同关注的人
// @Summary 共同关注
// @Tags 关系链
// @Param id path string true "用户ID"
// @Param other path string true "另一用户ID"
// @Success 200 {object} response.Response{data=[]service.Profile}
// @Router /users/{id}/mutual/{other} [get]
func (h *Handler) MutualFriends(c *gin.Context) {
	list, err := h.follows.GetMutualFriends(c.Request.Context(), c.Param("id"), c.Param("other"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// Relationship viewer 与 target 的关系快照
// @Summary 关系快照
// @Tags 关系链
// @Param id path string true "viewer"
// @Param other path string true "target"
// @Success 200 {object} response.Response{data=service.Relationship}
// @Router /users/{id}/relationship/{other} [get]
func (h *Handler) Relationship(c *gin.Context) {
	rel, err := h.follows.GetRelationship(c.Request.Context(), c.Param("id"), c.Param("other"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rel)
}

// Suggestions 推荐关注
// @Summary 推荐关注
// @Tags 发现
// @Param id path string true "用户ID"
// @Param limit query int false "数量" default(10)
// @Success 200 {object} response.Response{data=[]service.SuggestedUser}
// @Router /users/{id}/suggestions [get]
func (h *Handler) Suggestions(c *gin.Context) {
	list, err := h.follows.GetUserSuggestions(c.Request.Context(), c.Param("id"), queryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// Stats 关注统计（实时计数）
// @Summary 关注统计
// @Tags 关系链
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=repository.FollowStats}
// @Router /users/{id}/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.follows.GetFollowStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}
