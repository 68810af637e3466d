package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/walter2161/grupo-de-agentes/internal/handler"
	"github.com/walter2161/grupo-de-agentes/internal/middleware"
	"github.com/walter2161/grupo-de-agentes/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(svc *service.Services) *gin.Engine {
	h := handler.NewHandlers(svc)
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", h.System.Health)

	// 媒体文件
	r.GET("/files/*path", h.File.GetFile)

	// 实时更新
	r.GET("/ws", h.WebSocket.Serve)

	requireAuth := middleware.RequireAuth(svc.Identity)

	// API v1
	v1 := r.Group("/api/v1")
	{
		// Auth 认证
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(svc.Config.Server.AuthRateLimit, time.Minute)))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/logout", requireAuth, h.Auth.Logout)
			auth.GET("/me", requireAuth, h.Auth.Me)
		}

		api := v1.Group("")
		api.Use(requireAuth)

		// Profile 用户资料
		api.GET("/profile", h.Profile.GetProfile)
		api.PUT("/profile", h.Profile.UpdateProfile)

		// Agent 智能体
		agents := api.Group("/agents")
		{
			agents.GET("", h.Agent.ListAgents)
			agents.POST("", h.Agent.CreateAgent)
			agents.PUT("/:id", h.Agent.UpdateAgent)
			agents.DELETE("/:id", h.Agent.DeleteAgent)
			agents.GET("/:id/messages", h.Message.ListAgentMessages)
			agents.POST("/:id/messages", h.Message.SendAgentMessage)
			agents.POST("/:id/messages/audio", h.Message.SendAgentAudio)
			agents.POST("/:id/messages/image", h.Message.SendAgentImage)
		}

		// Group 群组
		groups := api.Group("/groups")
		{
			groups.GET("", h.Group.ListGroups)
			groups.POST("", h.Group.CreateGroup)
			groups.PUT("/:id", h.Group.UpdateGroup)
			groups.DELETE("/:id", h.Group.DeleteGroup)
			groups.GET("/:id/messages", h.Message.ListGroupMessages)
			groups.POST("/:id/messages", h.Message.SendGroupMessage)
		}

		// Interaction 交互计数
		api.GET("/interactions", h.Interaction.ListInteractions)
	}

	return r
}
