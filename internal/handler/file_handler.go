package handler

import (
	"io"
	"mime"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	filesvc "github.com/walter2161/grupo-de-agentes/internal/service/file"
)

// FileHandler 媒体文件处理器
type FileHandler struct {
	fileSvc *filesvc.Service
}

// NewFileHandler 创建文件处理器
func NewFileHandler(fileSvc *filesvc.Service) *FileHandler {
	return &FileHandler{fileSvc: fileSvc}
}

// GetFile 读取对话中保存的媒体文件
// GET /files/*path
func (h *FileHandler) GetFile(c *gin.Context) {
	if h.fileSvc == nil {
		NotFound(c, "Arquivo não encontrado")
		return
	}
	filePath := strings.TrimPrefix(c.Param("path"), "/")
	if filePath == "" {
		NotFound(c, "Arquivo não encontrado")
		return
	}

	reader, err := h.fileSvc.Storage().Get(c.Request.Context(), filePath)
	if err != nil {
		NotFound(c, "Arquivo não encontrado")
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(path.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, max-age=86400")

	if _, err := io.Copy(c.Writer, reader); err != nil {
		_ = c.Error(err)
	}
}
