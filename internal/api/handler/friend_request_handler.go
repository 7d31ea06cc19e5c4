package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/socialgraph/pkg/response"
)

type sendFriendRequest struct {
	SenderID   string  `json:"sender_id" binding:"required"`
	ReceiverID string  `json:"receiver_id" binding:"required"`
	Message    *string `json:"message" binding:"omitempty,max=500"`
}

// SendFriendRequest 发送好友申请
// @Summary 发送好友申请
// @Tags 好友申请
// @Accept json
// @Produce json
// @Param request body sendFriendRequest true "申请"
// @Success 200 {object} response.Response{data=model.FriendRequest}
// @Failure 400 {object} response.Response
// @Router /friend-requests [post]
func (h *Handler) SendFriendRequest(c *gin.Context) {
	var req sendFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	fr, err := h.follows.SendFriendRequest(c.Request.Context(), req.SenderID, req.ReceiverID, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, fr)
}

// GetFriendRequest 查询单个申请
// @Summary 查询好友申请
// @Tags 好友申请
// @Param id path string true "申请ID"
// @Success 200 {object} response.Response{data=model.FriendRequest}
// @Failure 404 {object} response.Response
// @Router /friend-requests/{id} [get]
func (h *Handler) GetFriendRequest(c *gin.Context) {
	fr, err := h.follows.GetFriendRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, fr)
}

// AcceptFriendRequest 接受申请，成功时双方互相关注
// @Summary 接受好友申请
// @Tags 好友申请
// @Param id path string true "申请ID"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Failure 409 {object} response.Response
// @Router /friend-requests/{id}/accept [post]
func (h *Handler) AcceptFriendRequest(c *gin.Context) {
	ok, err := h.follows.AcceptFriendRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"accepted": ok})
}

// DeclineFriendRequest 拒绝申请
// @Summary 拒绝好友申请
// @Tags 好友申请
// @Param id path string true "申请ID"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Router /friend-requests/{id}/decline [post]
func (h *Handler) DeclineFriendRequest(c *gin.Context) {
	ok, err := h.follows.DeclineFriendRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"declined": ok})
}

// CancelFriendRequest 撤回申请
// @Summary 撤回好友申请
// @Tags 好友申请
// @Param id path string true "申请ID"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Router /friend-requests/{id} [delete]
func (h *Handler) CancelFriendRequest(c *gin.Context) {
	ok, err := h.follows.CancelFriendRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"cancelled": ok})
}

// ReceivedFriendRequests 收到的待处理申请
// @Summary 收到的好友申请
// @Tags 好友申请
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=[]service.FriendRequestView}
// @Router /users/{id}/friend-requests/received [get]
func (h *Handler) ReceivedFriendRequests(c *gin.Context) {
	list, err := h.follows.GetReceivedFriendRequests(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// SentFriendRequests 发出的待处理申请
// @Summary 发出的好友申请
// @Tags 好友申请
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=[]service.FriendRequestView}
// @Router /users/{id}/friend-requests/sent [get]
func (h *Handler) SentFriendRequests(c *gin.Context) {
	list, err := h.follows.GetSentFriendRequests(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
