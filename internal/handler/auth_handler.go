package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/walter2161/grupo-de-agentes/internal/identity"
	"github.com/walter2161/grupo-de-agentes/internal/middleware"
	"github.com/walter2161/grupo-de-agentes/internal/service"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	svc *service.Services
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc *service.Services) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 用户注册并登录
// @Summary      注册
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request  body      RegisterRequest  true  "注册信息"
// @Success      201      {object}  SuccessResponse
// @Failure      400      {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Parâmetros inválidos")
		return
	}

	res, err := h.svc.Identity.Register(c.Request.Context(), identity.NewSession(), req.Email, req.Name, req.Password)
	if err != nil {
		Error(c, err)
		return
	}
	if !res.Success {
		BadRequest(c, res.Message)
		return
	}

	Created(c, res)
}

// Login 用户登录
// @Summary      登录
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "登录信息"
// @Success      200      {object}  SuccessResponse
// @Failure      401      {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Parâmetros inválidos")
		return
	}

	res, err := h.svc.Identity.Login(c.Request.Context(), identity.NewSession(), req.Email, req.Password)
	if err != nil {
		Error(c, err)
		return
	}
	if !res.Success {
		Unauthorized(c, res.Message)
		return
	}

	// 迁移与资料同步可能写入了新数据，丢弃旧句柄
	h.svc.Workspaces.Forget(res.User.ID)
	Success(c, res)
}

// Logout 撤销当前令牌，用户数据保留
// @Summary      登出
// @Tags         认证
// @Security     Bearer
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		Unauthorized(c, "Não autenticado")
		return
	}
	userID := sess.UserID()
	if err := h.svc.Identity.Logout(c.Request.Context(), sess); err != nil {
		slog.Warn("logout failed", "user_id", userID, "error", err)
	}
	NoContent(c)
}

// Me 当前用户
// @Summary      当前用户
// @Tags         认证
// @Security     Bearer
// @Success      200  {object}  SuccessResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		Unauthorized(c, "Não autenticado")
		return
	}
	Success(c, user)
}
