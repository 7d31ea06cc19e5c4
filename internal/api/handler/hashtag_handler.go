package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/socialgraph/pkg/response"
)

type upsertHashtagRequest struct {
	Tag string `json:"tag" binding:"required,hashtag"`
}

// UpsertHashtag 创建或刷新话题
// @Summary 创建话题
// @Tags 话题
// @Accept json
// @Produce json
// @Param request body upsertHashtagRequest true "话题"
// @Success 200 {object} response.Response{data=model.Hashtag}
// @Failure 400 {object} response.Response
// @Router /hashtags [put]
func (h *Handler) UpsertHashtag(c *gin.Context) {
	var req upsertHashtagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	tag, err := h.hashtags.UpsertHashtag(c.Request.Context(), req.Tag)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tag)
}

// BlockHashtag 屏蔽话题
// @Summary 屏蔽话题
// @Tags 话题
// @Param tag path string true "话题，不带 #"
// @Success 200 {object} response.Response
// @Router /hashtags/{tag}/block [post]
func (h *Handler) BlockHashtag(c *gin.Context) {
	if err := h.hashtags.BlockHashtag(c.Request.Context(), c.Param("tag")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// UnblockHashtag 取消屏蔽
// @Summary 取消屏蔽话题
// @Tags 话题
// @Param tag path string true "话题，不带 #"
// @Success 200 {object} response.Response
// @Router /hashtags/{tag}/block [delete]
func (h *Handler) UnblockHashtag(c *gin.Context) {
	if err := h.hashtags.UnblockHashtag(c.Request.Context(), c.Param("tag")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// TrendingHashtags 热门话题
// @Summary 热门话题
// @Tags 发现
// @Param limit query int false "数量" default(10)
// @Success 200 {object} response.Response{data=[]repository.TrendingHashtag}
// @Router /hashtags/trending [get]
func (h *Handler) TrendingHashtags(c *gin.Context) {
	list, err := h.hashtags.GetTrendingHashtags(c.Request.Context(), queryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// SearchHashtags 话题搜索
// @Summary 搜索话题
// @Tags 发现
// @Param q query string true "关键字"
// @Param limit query int false "数量" default(20)
// @Success 200 {object} response.Response{data=[]repository.HashtagCount}
// @Router /hashtags/search [get]
func (h *Handler) SearchHashtags(c *gin.Context) {
	list, err := h.hashtags.SearchHashtags(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// HashtagPosts 话题下的帖子
// @Summary 话题帖子
// @Tags 发现
// @Param tag path string true "话题，不带 #"
// @Param limit query int false "数量" default(50)
// @Param offset query int false "偏移" default(0)
// @Success 200 {object} response.Response{data=[]service.PostWithAuthor}
// @Router /hashtags/{tag}/posts [get]
func (h *Handler) HashtagPosts(c *gin.Context) {
	list, err := h.hashtags.GetPostsByHashtag(c.Request.Context(), c.Param("tag"), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// HashtagAnalytics 话题统计；没有数据时 data 为 null
// @Summary 话题统计
// @Tags 发现
// @Param tag path string true "话题，不带 #"
// @Success 200 {object} response.Response{data=repository.HashtagAnalytics}
// @Router /hashtags/{tag}/analytics [get]
func (h *Handler) HashtagAnalytics(c *gin.Context) {
	a, err := h.hashtags.GetHashtagAnalytics(c.Request.Context(), c.Param("tag"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, a)
}

// RelatedHashtags 共现话题
// @Summary 相关话题
// @Tags 发现
// @Param tag path string true "话题，不带 #"
// @Param limit query int false "数量" default(10)
// @Success 200 {object} response.Response{data=[]repository.RelatedHashtag}
// @Router /hashtags/{tag}/related [get]
func (h *Handler) RelatedHashtags(c *gin.Context) {
	list, err := h.hashtags.GetRelatedHashtags(c.Request.Context(), c.Param("tag"), queryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// UserHashtags 用户常用话题
// @Summary 用户常用话题
// @Tags 发现
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=[]repository.HashtagUsage}
// @Router /users/{id}/hashtags [get]
func (h *Handler) UserHashtags(c *gin.Context) {
	list, err := h.hashtags.GetUserHashtagUsage(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// UserMentions 用户被 @ 的记录
// @Summary 用户被 @ 记录
// @Tags 发现
// @Param id path string true "用户ID"
// @Param limit query int false "数量" default(50)
// @Param offset query int false "偏移" default(0)
// @Success 200 {object} response.Response{data=[]service.MentionView}
// @Router /users/{id}/mentions [get]
func (h *Handler) UserMentions(c *gin.Context) {
	list, err := h.hashtags.GetUserMentions(c.Request.Context(), c.Param("id"), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
