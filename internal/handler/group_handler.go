package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/walter2161/grupo-de-agentes/internal/service"
	"github.com/walter2161/grupo-de-agentes/internal/service/workspace"
)

// GroupHandler 群组处理器
type GroupHandler struct {
	svc *service.Services
}

// NewGroupHandler 创建群组处理器
func NewGroupHandler(svc *service.Services) *GroupHandler {
	return &GroupHandler{svc: svc}
}

// ListGroups 列出群组
// GET /api/v1/groups
func (h *GroupHandler) ListGroups(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}
	Success(c, ws.Groups(c.Request.Context()))
}

// CreateGroup 创建群组
// POST /api/v1/groups
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}

	var req workspace.GroupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Parâmetros inválidos")
		return
	}

	group, err := ws.CreateGroup(c.Request.Context(), req)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, group)
}

// UpdateGroup 修改群组
// PUT /api/v1/groups/:id
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}

	var req workspace.GroupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Parâmetros inválidos")
		return
	}

	group, err := ws.UpdateGroup(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, group)
}

// DeleteGroup 删除群组，内置群组不可删除
// DELETE /api/v1/groups/:id
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}
	if err := ws.DeleteGroup(c.Request.Context(), c.Param("id")); err != nil {
		Error(c, err)
		return
	}
	NoContent(c)
}
