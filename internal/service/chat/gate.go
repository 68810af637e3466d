package chat

import "sync"

// Gate 按对话拒绝并发发送
type Gate struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewGate 创建 Gate
func NewGate() *Gate {
	return &Gate{busy: make(map[string]struct{})}
}

// Acquire 占用对话，已被占用时返回 ErrBusy
func (g *Gate) Acquire(key string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.busy[key]; ok {
		return nil, ErrBusy
	}
	g.busy[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, key)
			g.mu.Unlock()
		})
	}, nil
}

// Busy 对话是否正在处理
func (g *Gate) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.busy[key]
	return ok
}
