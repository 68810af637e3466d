package file

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/walter2161/grupo-de-agentes/internal/config"
)

// 媒体类别
const (
	KindAudio = "audio"
	KindImage = "image"
)

// Service 媒体文件服务
type Service struct {
	storage     Storage
	storageType StorageType
}

// NewService 创建文件服务
func NewService(storage Storage, storageType StorageType) *Service {
	return &Service{
		storage:     storage,
		storageType: storageType,
	}
}

// NewServiceFromConfig 从配置创建文件服务
func NewServiceFromConfig(ctx context.Context, cfg config.MediaConfig) (*Service, error) {
	var (
		storage Storage
		err     error
	)

	switch StorageType(cfg.Type) {
	case StorageTypeLocal:
		storage, err = NewLocalStorage(cfg.BasePath, cfg.URLPrefix)
	case StorageTypeMinIO:
		m := cfg.MinIO
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" || m.BucketName == "" {
			return nil, fmt.Errorf("missing required MinIO config")
		}
		storage, err = NewMinIOStorage(ctx, m)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	slog.Info("media storage ready", "type", cfg.Type)
	return NewService(storage, StorageType(cfg.Type)), nil
}

// Storage 底层存储
func (s *Service) Storage() Storage {
	return s.storage
}

// Type 存储类型
func (s *Service) Type() StorageType {
	return s.storageType
}

// Put 保存媒体内容并返回访问 URL
func (s *Service) Put(ctx context.Context, ownerID, kind, fileName, contentType string, data []byte) (string, error) {
	path, err := s.storage.Save(ctx, &SaveRequest{
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		Reader:      bytes.NewReader(data),
		OwnerID:     ownerID,
		Kind:        kind,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return s.storage.GetURL(path), nil
}
