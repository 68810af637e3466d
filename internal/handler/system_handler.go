package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/walter2161/grupo-de-agentes/internal/service"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// SystemHandler 系统处理器
type SystemHandler struct {
	svc *service.Services
}

// NewSystemHandler 创建系统处理器
func NewSystemHandler(svc *service.Services) *SystemHandler {
	return &SystemHandler{svc: svc}
}

// Health 健康检查，附带本地存储用量
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{
		"status":  "ok",
		"version": h.svc.Config.App.Version,
	}

	if reg := h.svc.Registry; reg != nil {
		if _, err := reg.Local().Store().KV().Keys(ctx); err != nil {
			status["status"] = "degraded"
			status["storage"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		remote := make([]string, 0)
		for _, d := range storage.Domains() {
			if !reg.IsLocal(d) {
				remote = append(remote, d)
			}
		}
		status["remote_domains"] = remote
	}

	c.JSON(http.StatusOK, status)
}
