package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/walter2161/grupo-de-agentes/internal/service"
	"github.com/walter2161/grupo-de-agentes/internal/service/chat"
	"github.com/walter2161/grupo-de-agentes/internal/service/workspace"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// 上传大小上限
const (
	maxAudioBytes = 25 << 20
	maxImageBytes = 10 << 20
)

// MessageHandler 消息处理器
type MessageHandler struct {
	svc *service.Services
}

// NewMessageHandler 创建消息处理器
func NewMessageHandler(svc *service.Services) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// SendMessageRequest 发送文本消息
type SendMessageRequest struct {
	Content string `json:"content"`
}

// agentChat 打开单聊，欢迎消息保存失败只记录日志
// 读取对话记录失败时返回错误，不能在默认的空记录上继续写入
func agentChat(ctx context.Context, ws *workspace.Workspace, agentID string) (*chat.Engine, error) {
	eng, err := ws.AgentChat(ctx, agentID)
	if eng != nil && err != nil && !storage.IsLoadError(err) {
		slog.Warn("welcome message not saved", "user_id", ws.UserID(), "agent", agentID, "error", err)
		return eng, nil
	}
	if err != nil {
		return nil, err
	}
	return eng, nil
}

func groupChat(ctx context.Context, ws *workspace.Workspace, groupID string) (*chat.GroupEngine, error) {
	eng, err := ws.GroupChat(ctx, groupID)
	if eng != nil && err != nil && !storage.IsLoadError(err) {
		slog.Warn("welcome message not saved", "user_id", ws.UserID(), "group", groupID, "error", err)
		return eng, nil
	}
	if err != nil {
		return nil, err
	}
	return eng, nil
}

// ListAgentMessages 加载与智能体的对话，首次打开时包含欢迎消息
// @Summary      加载单聊消息
// @Tags         消息
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "智能体ID"
// @Success      200  {object}  SuccessResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /agents/{id}/messages [get]
func (h *MessageHandler) ListAgentMessages(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	eng, err := agentChat(ctx, ws, c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{
		"messages": eng.Messages(ctx),
		"loading":  eng.Loading(),
	})
}

// SendAgentMessage 发送文本消息
// 返回本次追加的消息；模型失败时返回内容为致歉消息
// @Summary      发送单聊消息
// @Tags         消息
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        id       path      string              true  "智能体ID"
// @Param        request  body      SendMessageRequest  true  "消息内容"
// @Success      200      {object}  SuccessResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Router       /agents/{id}/messages [post]
func (h *MessageHandler) SendAgentMessage(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Parâmetros inválidos")
		return
	}
	ctx := c.Request.Context()

	eng, err := agentChat(ctx, ws, c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	turns, err := eng.Send(ctx, req.Content)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"messages": turns})
}

// SendAgentAudio 发送录音，表单字段 file
// POST /api/v1/agents/:id/messages/audio
func (h *MessageHandler) SendAgentAudio(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}
	name, contentType, data, err := readUpload(c, maxAudioBytes)
	if err != nil {
		Error(c, err)
		return
	}
	ctx := c.Request.Context()

	eng, err := agentChat(ctx, ws, c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	res, err := eng.SendAudio(ctx, chat.AudioInput{FileName: name, ContentType: contentType, Data: data})
	if err != nil && res == nil {
		Error(c, err)
		return
	}
	if err != nil {
		slog.Warn("audio message partially saved", "user_id", ws.UserID(), "error", err)
	}
	Success(c, res)
}

// SendAgentImage 发送图片，表单字段 file 与可选的 caption
// POST /api/v1/agents/:id/messages/image
func (h *MessageHandler) SendAgentImage(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}
	name, contentType, data, err := readUpload(c, maxImageBytes)
	if err != nil {
		Error(c, err)
		return
	}
	ctx := c.Request.Context()

	eng, err := agentChat(ctx, ws, c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	turns, err := eng.SendImage(ctx, chat.ImageInput{
		FileName:    name,
		ContentType: contentType,
		Data:        data,
		Caption:     c.PostForm("caption"),
	})
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"messages": turns})
}

// ListGroupMessages 加载群聊
// GET /api/v1/groups/:id/messages
func (h *MessageHandler) ListGroupMessages(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	eng, err := groupChat(ctx, ws, c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{
		"messages": eng.Messages(ctx),
		"members":  eng.Members(),
		"loading":  eng.Loading(),
	})
}

// SendGroupMessage 发送群聊消息，@名字 指定回复的智能体
// POST /api/v1/groups/:id/messages
func (h *MessageHandler) SendGroupMessage(c *gin.Context) {
	ws, ok := currentWorkspace(h.svc, c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Parâmetros inválidos")
		return
	}
	ctx := c.Request.Context()

	eng, err := groupChat(ctx, ws, c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	turns, err := eng.Send(ctx, req.Content)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"messages": turns})
}

// readUpload 读取表单文件 file
func readUpload(c *gin.Context, limit int64) (name, contentType string, data []byte, err error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", "", nil, &chat.ValidationError{Message: "Arquivo ausente"}
	}
	if fh.Size > limit {
		return "", "", nil, &chat.ValidationError{Message: fmt.Sprintf("Arquivo muito grande (máximo %d MB)", limit>>20)}
	}
	data, err = readMultipart(fh)
	if err != nil {
		return "", "", nil, &chat.ValidationError{Message: "Falha ao ler o arquivo"}
	}
	return fh.Filename, fh.Header.Get("Content-Type"), data, nil
}

func readMultipart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
