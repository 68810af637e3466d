package storage

import (
	"context"
	"strings"
)

// 必须保留的当前用户键
const (
	ProfileKeyName = "user-profile"
	AgentsKeyName  = "agents"
)

var disposableMarkers = []string{"old-", "temp-", "cache-", "backup-", "draft-", "session-"}

var conversationMarkers = []string{"chat-history", "group-chat", "messages"}

// Evictor 一个淘汰级别
type Evictor interface {
	Name() string
	// Evict 删除数据腾出空间，返回删除的键数量
	Evict(ctx context.Context, kv KV, namespace string) (int, error)
}

// DefaultEvictors 单设备存储的淘汰顺序，由轻到重
// 后两级会删除其他用户的数据，只适用于设备本地的存储
func DefaultEvictors() []Evictor {
	return []Evictor{DisposableKeys{}, ForeignKeys{}, EssentialOnly{}}
}

// ScopedEvictors 多用户共享存储的淘汰顺序，只删除写入者自己命名空间内的键
func ScopedEvictors() []Evictor {
	return []Evictor{DisposableKeys{Scoped: true}, EssentialOnly{Scoped: true}}
}

// DisposableKeys 删除临时类键和其他用户的对话记录
// Scoped 为 true 时只删除当前用户自己的临时类键
type DisposableKeys struct {
	Scoped bool
}

func (DisposableKeys) Name() string { return "disposable" }

func (d DisposableKeys) Evict(ctx context.Context, kv KV, namespace string) (int, error) {
	if d.Scoped && namespace == "" {
		return 0, nil
	}
	keys, err := kv.Keys(ctx)
	if err != nil {
		return 0, err
	}

	essential := essentialKeys(namespace)
	removed := 0
	for _, k := range keys {
		if _, keep := essential[k]; keep {
			continue
		}
		if d.Scoped && !ownedBy(k, namespace) {
			continue
		}
		if !isDisposable(k, namespace) {
			continue
		}
		if err := kv.Remove(ctx, k); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func isDisposable(key, namespace string) bool {
	for _, m := range disposableMarkers {
		if strings.Contains(key, m) {
			return true
		}
	}
	if namespace == "" {
		return false
	}
	for _, m := range conversationMarkers {
		if strings.Contains(key, m) && !strings.Contains(key, namespace) {
			return true
		}
	}
	return false
}

// ForeignKeys 删除不属于当前用户的全部键
type ForeignKeys struct{}

func (ForeignKeys) Name() string { return "foreign" }

func (ForeignKeys) Evict(ctx context.Context, kv KV, namespace string) (int, error) {
	if namespace == "" {
		return 0, nil
	}
	keys, err := kv.Keys(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, k := range keys {
		if ownedBy(k, namespace) {
			continue
		}
		if err := kv.Remove(ctx, k); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// EssentialOnly 只保留当前用户的资料与智能体列表，清空其余数据
// Scoped 为 true 时只清空当前用户自己的其余数据
type EssentialOnly struct {
	Scoped bool
}

func (EssentialOnly) Name() string { return "essential-only" }

func (e EssentialOnly) Evict(ctx context.Context, kv KV, namespace string) (int, error) {
	if e.Scoped {
		return evictOwnNonEssential(ctx, kv, namespace)
	}
	keys, err := kv.Keys(ctx)
	if err != nil {
		return 0, err
	}

	saved := make(map[string]string)
	for k := range essentialKeys(namespace) {
		v, ok, err := kv.Get(ctx, k)
		if err != nil {
			return 0, err
		}
		if ok {
			saved[k] = v
		}
	}

	if err := kv.Clear(ctx); err != nil {
		return 0, err
	}
	for k, v := range saved {
		if err := kv.Set(ctx, k, v); err != nil {
			return len(keys) - len(saved), err
		}
	}
	return len(keys) - len(saved), nil
}

func evictOwnNonEssential(ctx context.Context, kv KV, namespace string) (int, error) {
	if namespace == "" {
		return 0, nil
	}
	keys, err := kv.Keys(ctx)
	if err != nil {
		return 0, err
	}
	essential := essentialKeys(namespace)
	removed := 0
	for _, k := range keys {
		if _, keep := essential[k]; keep || !ownedBy(k, namespace) {
			continue
		}
		if err := kv.Remove(ctx, k); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// ownedBy 键是否属于命名空间，中立命名空间不拥有任何带前缀的键
func ownedBy(key, namespace string) bool {
	return namespace != "" && strings.HasPrefix(key, namespace+"-")
}

func essentialKeys(namespace string) map[string]struct{} {
	return map[string]struct{}{
		QualifiedKey(namespace, ProfileKeyName): {},
		QualifiedKey(namespace, AgentsKeyName):  {},
	}
}
