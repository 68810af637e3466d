package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/walter2161/grupo-de-agentes/internal/service"
)

// InteractionHandler 交互计数处理器
type InteractionHandler struct {
	svc *service.Services
}

// NewInteractionHandler 创建交互计数处理器
func NewInteractionHandler(svc *service.Services) *InteractionHandler {
	return &InteractionHandler{svc: svc}
}

// ListInteractions 列出与各智能体的交互计数
// GET /api/v1/interactions
func (h *InteractionHandler) ListInteractions(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}
	Success(c, ws.Interactions(c.Request.Context()))
}
