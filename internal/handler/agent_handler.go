package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/walter2161/grupo-de-agentes/internal/service"
	"github.com/walter2161/grupo-de-agentes/internal/service/workspace"
)

// AgentHandler 智能体处理器
type AgentHandler struct {
	svc *service.Services
}

// NewAgentHandler 创建智能体处理器
func NewAgentHandler(svc *service.Services) *AgentHandler {
	return &AgentHandler{svc: svc}
}

// ListAgents 列出智能体
// @Summary      列出智能体
// @Tags         智能体
// @Produce      json
// @Security     Bearer
// @Success      200  {object}  SuccessResponse
// @Router       /agents [get]
func (h *AgentHandler) ListAgents(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}
	Success(c, ws.Agents(c.Request.Context()))
}

// CreateAgent 创建智能体
// @Summary      创建智能体
// @Tags         智能体
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        request  body      workspace.AgentInput  true  "智能体信息"
// @Success      201      {object}  SuccessResponse
// @Failure      400      {object}  ErrorResponse
// @Router       /agents [post]
func (h *AgentHandler) CreateAgent(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}

	var req workspace.AgentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Parâmetros inválidos")
		return
	}

	agent, err := ws.CreateAgent(c.Request.Context(), req)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, agent)
}

// UpdateAgent 修改智能体
// @Summary      修改智能体
// @Tags         智能体
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        id       path      string                true  "智能体ID"
// @Param        request  body      workspace.AgentInput  true  "智能体信息"
// @Success      200      {object}  SuccessResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /agents/{id} [put]
func (h *AgentHandler) UpdateAgent(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}

	var req workspace.AgentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Parâmetros inválidos")
		return
	}

	agent, err := ws.UpdateAgent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, agent)
}

// DeleteAgent 删除智能体及其对话
// @Summary      删除智能体
// @Tags         智能体
// @Security     Bearer
// @Param        id   path  string  true  "智能体ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /agents/{id} [delete]
func (h *AgentHandler) DeleteAgent(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}
	if err := ws.DeleteAgent(c.Request.Context(), c.Param("id")); err != nil {
		Error(c, err)
		return
	}
	NoContent(c)
}
