package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/walter2161/grupo-de-agentes/internal/service"
	"github.com/walter2161/grupo-de-agentes/internal/service/workspace"
)

// ProfileHandler 用户资料处理器
type ProfileHandler struct {
	svc *service.Services
}

// NewProfileHandler 创建资料处理器
func NewProfileHandler(svc *service.Services) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// GetProfile 获取资料
// GET /api/v1/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}
	Success(c, ws.Profile(c.Request.Context()))
}

// UpdateProfile 修改资料
// PUT /api/v1/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}

	var req workspace.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Parâmetros inválidos")
		return
	}

	profile, err := ws.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, profile)
}
