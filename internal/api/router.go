// Package api 暴露关系链与话题引擎的 HTTP 接口。
package api

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/config"
	"github.com/d60-Lab/socialgraph/internal/api/docs"
	"github.com/d60-Lab/socialgraph/internal/api/handler"
	"github.com/d60-Lab/socialgraph/internal/api/middleware"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// NewRouter 组装中间件与路由
func NewRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if err := handler.RegisterValidators(); err != nil {
		logger.Error("register validators failed", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.Logger())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	docs.SwaggerInfo.BasePath = "/api/v1"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(cfg.Server.RateLimit))
	{
		v1.POST("/follows", h.Follow)
		v1.DELETE("/follows", h.Unfollow)
		v1.POST("/close-friends", h.MarkCloseFriend)
		v1.DELETE("/close-friends", h.UnmarkCloseFriend)

		users := v1.Group("/users/:id")
		{
			users.GET("/followers", h.ListFollowers)
			users.GET("/following", h.ListFollowing)
			users.GET("/close-friends", h.CloseFriends)
			users.GET("/stats", h.Stats)
			users.GET("/suggestions", h.Suggestions)
			users.GET("/mutual/:other", h.MutualFriends)
			users.GET("/relationship/:other", h.Relationship)
			users.GET("/friend-requests/received", h.ReceivedFriendRequests)
			users.GET("/friend-requests/sent", h.SentFriendRequests)
			users.GET("/mentions", h.UserMentions)
			users.GET("/hashtags", h.UserHashtags)
		}

		requests := v1.Group("/friend-requests")
		{
			requests.POST("", h.SendFriendRequest)
			requests.GET("/:id", h.GetFriendRequest)
			requests.POST("/:id/accept", h.AcceptFriendRequest)
			requests.POST("/:id/decline", h.DeclineFriendRequest)
			requests.DELETE("/:id", h.CancelFriendRequest)
		}

		tags := v1.Group("/hashtags")
		{
			tags.PUT("", h.UpsertHashtag)
			tags.GET("/trending", h.TrendingHashtags)
			tags.GET("/search", h.SearchHashtags)
			tags.GET("/:tag/posts", h.HashtagPosts)
			tags.GET("/:tag/analytics", h.HashtagAnalytics)
			tags.GET("/:tag/related", h.RelatedHashtags)
			tags.POST("/:tag/block", h.BlockHashtag)
			tags.DELETE("/:tag/block", h.UnblockHashtag)
		}
	}
	return r
}
