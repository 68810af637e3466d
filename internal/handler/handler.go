package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/walter2161/grupo-de-agentes/internal/middleware"
	"github.com/walter2161/grupo-de-agentes/internal/service"
	"github.com/walter2161/grupo-de-agentes/internal/service/workspace"
)

// Handlers 处理器集合
type Handlers struct {
	Auth        *AuthHandler
	Profile     *ProfileHandler
	Agent       *AgentHandler
	Group       *GroupHandler
	Message     *MessageHandler
	Interaction *InteractionHandler
	File        *FileHandler
	WebSocket   *WebSocketHandler
	System      *SystemHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Auth:        NewAuthHandler(svc),
		Profile:     NewProfileHandler(svc),
		Agent:       NewAgentHandler(svc),
		Group:       NewGroupHandler(svc),
		Message:     NewMessageHandler(svc),
		Interaction: NewInteractionHandler(svc),
		File:        NewFileHandler(svc.Files),
		WebSocket:   NewWebSocketHandler(svc),
		System:      NewSystemHandler(svc),
	}
}

// currentWorkspace 当前用户的工作区，RequireAuth 之后调用
func currentWorkspace(svc *service.Services, c *gin.Context) (*workspace.Workspace, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		Unauthorized(c, "Não autenticado")
		return nil, false
	}
	return svc.Workspaces.Get(userID), true
}
