package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/walter2161/grupo-de-agentes/internal/service/chat"
	"github.com/walter2161/grupo-de-agentes/internal/service/workspace"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// SuccessResponse 成功响应
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Success 成功响应 (200)
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// Created 创建成功响应 (201)
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, SuccessResponse{Success: true, Data: data})
}

// NoContent 无内容响应 (204)
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: status, Msg: msg})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, msg string) {
	abort(c, http.StatusBadRequest, msg)
}

// Unauthorized 401 错误响应
func Unauthorized(c *gin.Context, msg string) {
	abort(c, http.StatusUnauthorized, msg)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, msg string) {
	abort(c, http.StatusNotFound, msg)
}

// Conflict 409 错误响应
func Conflict(c *gin.Context, msg string) {
	abort(c, http.StatusConflict, msg)
}

// InternalServerError 500 错误响应
func InternalServerError(c *gin.Context, msg string) {
	abort(c, http.StatusInternalServerError, msg)
}

// 面向用户的错误提示
const (
	msgBusy            = "Aguarde a resposta anterior antes de enviar outra mensagem."
	msgStorageFull     = "Armazenamento local cheio. Algumas conversas antigas podem precisar ser removidas."
	msgLoadFailed      = "Não foi possível carregar seus dados. Tente novamente em instantes."
	msgAgentNotFound   = "Agente não encontrado"
	msgGroupNotFound   = "Grupo não encontrado"
	msgInternalFailure = "Erro interno. Tente novamente."
)

// Error 根据错误类型返回相应的错误响应
func Error(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var verr *chat.ValidationError
	var cerr *storage.CapacityError
	switch {
	case errors.As(err, &verr):
		BadRequest(c, verr.Message)
	case errors.Is(err, chat.ErrBusy):
		Conflict(c, msgBusy)
	case errors.Is(err, workspace.ErrAgentNotFound):
		NotFound(c, msgAgentNotFound)
	case errors.Is(err, workspace.ErrGroupNotFound):
		NotFound(c, msgGroupNotFound)
	case errors.As(err, &cerr):
		abort(c, http.StatusInsufficientStorage, msgStorageFull)
	case storage.IsLoadError(err):
		slog.Warn("storage read failed", "path", c.Request.URL.Path, "error", err)
		abort(c, http.StatusServiceUnavailable, msgLoadFailed)
	default:
		slog.Error("request failed", "path", c.Request.URL.Path, "error", err)
		InternalServerError(c, msgInternalFailure)
	}
}
