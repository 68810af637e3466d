package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// CapacityError 所有淘汰级别执行后写入仍然失败
type CapacityError struct {
	Key   string
	Tiers []string
	Err   error
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("storage capacity exhausted writing %q after tiers %v: %v", e.Key, e.Tiers, e.Err)
}

func (e *CapacityError) Unwrap() error {
	return e.Err
}

// QualifiedKey 返回带命名空间的键，中立命名空间使用裸键
func QualifiedKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + "-" + key
}

// Store 按命名空间读写 JSON 值，写入超出容量时按顺序执行淘汰策略
type Store struct {
	kv       KV
	evictors []Evictor

	// namespaceCapacity 每个命名空间的字节上限，0 表示只受 KV 容量限制
	namespaceCapacity int64
	// nsLocks 命名空间 -> *sync.Mutex，串行化同一命名空间的容量检查与写入
	nsLocks sync.Map
}

// NewStore 创建存储，未指定淘汰策略时使用 DefaultEvictors
func NewStore(kv KV, evictors ...Evictor) *Store {
	if len(evictors) == 0 {
		evictors = DefaultEvictors()
	}
	return &Store{kv: kv, evictors: evictors}
}

// NewScopedStore 创建多用户共享的存储
// 每个命名空间有独立的容量 perNamespace，超出时只淘汰写入者自己的数据
func NewScopedStore(kv KV, perNamespace int64) *Store {
	return &Store{kv: kv, evictors: ScopedEvictors(), namespaceCapacity: perNamespace}
}

// KV 返回底层键值存储
func (s *Store) KV() KV {
	return s.kv
}

// Read 读取并解码到 out
// 值不存在或无法解析时返回 found=false，不回写默认值
func (s *Store) Read(ctx context.Context, namespace, key string, out any) (bool, error) {
	raw, ok, err := s.ReadRaw(ctx, namespace, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		slog.Warn("discarding unparsable stored value",
			"key", QualifiedKey(namespace, key), "error", err)
		return false, nil
	}
	return true, nil
}

// ReadOr 读取值，不存在时返回 def
func ReadOr[T any](ctx context.Context, s *Store, namespace, key string, def T) (T, error) {
	var v T
	found, err := s.Read(ctx, namespace, key, &v)
	if err != nil {
		return def, err
	}
	if !found {
		return def, nil
	}
	return v, nil
}

// ReadRaw 读取原始文本
func (s *Store) ReadRaw(ctx context.Context, namespace, key string) (string, bool, error) {
	return s.kv.Get(ctx, QualifiedKey(namespace, key))
}

// Write 编码为 JSON 后写入
func (s *Store) Write(ctx context.Context, namespace, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.WriteRaw(ctx, namespace, key, string(data))
}

// WriteRaw 写入原始文本，容量不足时逐级淘汰后重试
func (s *Store) WriteRaw(ctx context.Context, namespace, key, value string) error {
	qk := QualifiedKey(namespace, key)
	if s.namespaceCapacity > 0 && namespace != "" {
		mu := s.namespaceLock(namespace)
		mu.Lock()
		defer mu.Unlock()
	}

	err := s.set(ctx, namespace, qk, value)
	if err == nil || !errors.Is(err, ErrQuotaExceeded) {
		return err
	}

	tried := make([]string, 0, len(s.evictors))
	for _, ev := range s.evictors {
		tried = append(tried, ev.Name())

		removed, evErr := ev.Evict(ctx, s.kv, namespace)
		if evErr != nil {
			slog.Warn("eviction tier failed", "tier", ev.Name(), "error", evErr)
		} else {
			slog.Info("eviction tier applied", "tier", ev.Name(), "removed", removed, "key", qk)
		}

		err = s.set(ctx, namespace, qk, value)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			return err
		}
	}

	slog.Error("storage capacity exhausted", "key", qk, "tiers", tried)
	return &CapacityError{Key: qk, Tiers: tried, Err: err}
}

// set 写入前检查命名空间容量
func (s *Store) set(ctx context.Context, namespace, qk, value string) error {
	if s.namespaceCapacity > 0 && namespace != "" {
		used, err := s.NamespaceUsage(ctx, namespace, qk)
		if err != nil {
			return err
		}
		if used+entrySize(qk, value) > s.namespaceCapacity {
			return ErrQuotaExceeded
		}
	}
	return s.kv.Set(ctx, qk, value)
}

// NamespaceUsage 命名空间已用字节数，不计 exclude 键
func (s *Store) NamespaceUsage(ctx context.Context, namespace, exclude string) (int64, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return 0, err
	}
	var used int64
	for _, k := range keys {
		if k == exclude || !ownedBy(k, namespace) {
			continue
		}
		v, ok, err := s.kv.Get(ctx, k)
		if err != nil {
			return 0, err
		}
		if ok {
			used += entrySize(k, v)
		}
	}
	return used, nil
}

func (s *Store) namespaceLock(namespace string) *sync.Mutex {
	mu, _ := s.nsLocks.LoadOrStore(namespace, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Remove 删除
func (s *Store) Remove(ctx context.Context, namespace, key string) error {
	return s.kv.Remove(ctx, QualifiedKey(namespace, key))
}
