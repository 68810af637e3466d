package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryKV 内存键值存储
type MemoryKV struct {
	mu       sync.RWMutex
	data     map[string]string
	capacity int64
	used     int64
}

// NewMemoryKV 创建内存存储，capacity 为字节上限，0 表示不限制
func NewMemoryKV(capacity int64) *MemoryKV {
	return &MemoryKV{
		data:     make(map[string]string),
		capacity: capacity,
	}
}

// Get 读取
func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set 写入，超出容量返回 ErrQuotaExceeded 且不修改已有数据
func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.used + entrySize(key, value)
	if old, ok := m.data[key]; ok {
		next -= entrySize(key, old)
	}
	if m.capacity > 0 && next > m.capacity {
		return ErrQuotaExceeded
	}

	m.data[key] = value
	m.used = next
	return nil
}

// Remove 删除
func (m *MemoryKV) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.data[key]; ok {
		m.used -= entrySize(key, old)
		delete(m.data, key)
	}
	return nil
}

// Clear 清空
func (m *MemoryKV) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	m.used = 0
	return nil
}

// Keys 返回排序后的全部键
func (m *MemoryKV) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Used 已用字节数
func (m *MemoryKV) Used() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}
