package response

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// Response 统一响应体
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "ok", Data: data})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: http.StatusNotFound, Message: msg})
}

func TooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{Code: http.StatusTooManyRequests, Message: "too many requests"})
}

// InternalError 上报 sentry 并返回 500，错误细节不透出
func InternalError(c *gin.Context, err error) {
	report(c, err)
	c.JSON(http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Message: "internal server error"})
}

// Error 按 apperr 分类选择状态码
func Error(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	switch {
	case status >= http.StatusInternalServerError:
		report(c, err)
		msg := "internal server error"
		if status == http.StatusServiceUnavailable {
			msg = "store unavailable"
		}
		c.JSON(status, Response{Code: status, Message: msg})
	default:
		c.JSON(status, Response{Code: status, Message: err.Error()})
	}
}

func report(c *gin.Context, err error) {
	logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}
