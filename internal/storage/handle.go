package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// LoadError 后端读取失败
// 此时句柄的值只是默认值，Update 会拒绝在其上写入
type LoadError struct {
	Key     string
	Backend string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s from %s: %v", e.Key, e.Backend, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError 错误链中是否包含读取失败
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// Namespacer 提供当前命名空间（已登录用户 id，未登录为空）
type Namespacer interface {
	UserID() string
}

// Handle 某个数据域的值句柄：当前值、是否加载中、最近一次错误
// 命名空间变化后下一次 Value 会重新读取，不会返回上一个用户的数据
type Handle[T any] struct {
	registry *Registry
	key      Key
	def      T
	ns       Namespacer

	mu        sync.Mutex
	value     T
	loadedFor string
	loaded    bool
	loading   bool
	lastErr   error
	// loadErr 最近一次读取失败；非 nil 时当前值只是默认值，不可作为写入基础
	loadErr error

	// writeMu 串行化 Set 与 Update
	writeMu sync.Mutex
}

// Open 创建句柄，读取延迟到第一次 Value
func Open[T any](registry *Registry, ns Namespacer, key Key, def T) *Handle[T] {
	h := &Handle[T]{
		registry: registry,
		key:      key,
		def:      def,
		ns:       ns,
	}
	h.value = h.defaultValue()
	return h
}

// Key 返回句柄的键
func (h *Handle[T]) Key() Key {
	return h.key
}

// Refresh 从后端重新读取
// 读取失败时值回退为默认值，错误记录在 Err 中
func (h *Handle[T]) Refresh(ctx context.Context) error {
	userID := h.ns.UserID()

	h.mu.Lock()
	h.loading = true
	h.value = h.defaultValue()
	h.mu.Unlock()

	value, err := h.fetch(ctx, userID)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.value = value
	h.loadedFor = userID
	h.loaded = true
	h.loading = false
	h.lastErr = err
	h.loadErr = err
	return err
}

func (h *Handle[T]) fetch(ctx context.Context, userID string) (T, error) {
	backend := h.registry.For(h.key.Domain)
	data, found, err := backend.Load(ctx, userID, h.key)
	if errors.Is(err, ErrNotAuthenticated) {
		return h.defaultValue(), nil
	}
	if err != nil {
		return h.defaultValue(), &LoadError{Key: h.key.Name(), Backend: backend.Name(), Err: err}
	}
	if !found {
		return h.defaultValue(), nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		slog.Warn("discarding unparsable value", "key", h.key.Name(), "backend", backend.Name(), "error", err)
		return h.defaultValue(), nil
	}
	return v, nil
}

// Value 返回当前值，读取失败时为默认值
func (h *Handle[T]) Value(ctx context.Context) T {
	v, _ := h.Load(ctx)
	return v
}

// Load 返回当前值
// 未加载、命名空间已变化或上次读取失败时重新读取；读取失败返回默认值与 *LoadError
func (h *Handle[T]) Load(ctx context.Context) (T, error) {
	h.mu.Lock()
	stale := !h.loaded || h.loadedFor != h.ns.UserID() || h.loadErr != nil
	h.mu.Unlock()

	if stale {
		_ = h.Refresh(ctx)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value, h.loadErr
}

// Loading 是否正在读取
func (h *Handle[T]) Loading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loading
}

// Err 最近一次读取或写入的错误
func (h *Handle[T]) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// Set 更新内存值并保存
// 保存失败时内存值不回滚，错误被记录并返回给调用方
func (h *Handle[T]) Set(ctx context.Context, v T) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	return h.set(ctx, v)
}

// Update 原子地读取-修改-写入
// 读取失败时不调用 fn 也不写入，避免以默认值覆盖后端中的数据
func (h *Handle[T]) Update(ctx context.Context, fn func(T) (T, error)) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	cur, err := h.Load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	return h.set(ctx, next)
}

func (h *Handle[T]) set(ctx context.Context, v T) error {
	userID := h.ns.UserID()

	h.mu.Lock()
	h.value = v
	h.loadedFor = userID
	h.loaded = true
	h.loadErr = nil
	h.mu.Unlock()

	data, err := json.Marshal(v)
	if err == nil {
		backend := h.registry.For(h.key.Domain)
		if err = backend.Save(ctx, userID, h.key, data); err != nil {
			err = fmt.Errorf("save %s to %s: %w", h.key.Name(), backend.Name(), err)
		}
	}

	h.mu.Lock()
	h.lastErr = err
	h.mu.Unlock()
	return err
}

// defaultValue 返回默认值的副本，避免调用方修改共享的切片或 map
func (h *Handle[T]) defaultValue() T {
	data, err := json.Marshal(h.def)
	if err != nil {
		return h.def
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return h.def
	}
	return v
}
