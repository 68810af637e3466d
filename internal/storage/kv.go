// Package storage 提供按用户命名空间隔离的键值持久化、容量溢出时的分级淘汰，
// 以及按数据域选择本地或远程后端的存储适配层。
package storage

import (
	"context"
	"errors"
)

// ErrQuotaExceeded 本地存储容量不足
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KV 本地键值存储原语，容量有限，写入超限时返回 ErrQuotaExceeded
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
}

// entrySize 计算一条记录占用的字节数
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}
