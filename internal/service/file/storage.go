// Package file 保存对话中的媒体文件（录音、图片、语音回复）
package file

import (
	"context"
	"io"
)

// Storage 文件存储接口
type Storage interface {
	// Save 保存文件，返回文件路径
	Save(ctx context.Context, req *SaveRequest) (string, error)
	// Get 获取文件内容
	Get(ctx context.Context, filePath string) (io.ReadCloser, error)
	// Delete 删除文件
	Delete(ctx context.Context, filePath string) error
	// GetURL 获取文件的访问URL
	GetURL(filePath string) string
}

// SaveRequest 保存文件请求
type SaveRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
	// OwnerID 文件归属用户，作为路径第一级
	OwnerID string
	// Kind 媒体类别: audio, image
	Kind string
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeMinIO StorageType = "minio"
)

// extensionByContentType 根据内容类型返回扩展名
func extensionByContentType(contentType string) string {
	switch contentType {
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mp4", "audio/m4a":
		return ".m4a"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

// objectPath 生成对象路径: {ownerID}/{kind}/{uuid}.{ext}
func objectPath(req *SaveRequest, fileID string) string {
	ext := fileExt(req.FileName)
	if ext == "" {
		ext = extensionByContentType(req.ContentType)
	}
	owner := req.OwnerID
	if owner == "" {
		owner = "anonymous"
	}
	kind := req.Kind
	if kind == "" {
		kind = "misc"
	}
	return owner + "/" + kind + "/" + fileID + ext
}
