package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// stubSession 可切换的命名空间
type stubSession struct {
	mu     sync.Mutex
	userID string
}

func (s *stubSession) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *stubSession) switchTo(id string) {
	s.mu.Lock()
	s.userID = id
	s.mu.Unlock()
}

// stubBackend 可编程的后端
type stubBackend struct {
	mu       sync.Mutex
	data     map[string][]byte
	loadErr  error
	saveErr  error
	block    chan struct{}
	started  chan struct{}
	saves    int
	requireU bool
}

func newStubBackend() *stubBackend {
	return &stubBackend{data: make(map[string][]byte)}
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Load(ctx context.Context, userID string, key Key) ([]byte, bool, error) {
	if b.started != nil {
		close(b.started)
	}
	if b.block != nil {
		<-b.block
	}
	if b.requireU && userID == "" {
		return nil, false, ErrNotAuthenticated
	}
	if b.loadErr != nil {
		return nil, false, b.loadErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.data[userID+"/"+key.Name()]
	return d, ok, nil
}

func (b *stubBackend) Save(ctx context.Context, userID string, key Key, data []byte) error {
	if b.requireU && userID == "" {
		return ErrNotAuthenticated
	}
	if b.saveErr != nil {
		return b.saveErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saves++
	b.data[userID+"/"+key.Name()] = data
	return nil
}

func (b *stubBackend) Remove(ctx context.Context, userID string, key Key) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, userID+"/"+key.Name())
	return nil
}

func newTestRegistry() *Registry {
	return NewRegistry(NewLocalBackend(NewStore(NewMemoryKV(0))))
}

func TestHandleNamespaceSwitch(t *testing.T) {
	ctx := context.Background()
	sess := &stubSession{userID: "U"}
	h := Open(newTestRegistry(), sess, GroupsKey(), []string{})

	if err := h.Set(ctx, []string{"v"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	sess.switchTo("U2")
	if got := h.Value(ctx); len(got) != 0 {
		t.Errorf("U2 observes %v, want default", got)
	}

	sess.switchTo("U")
	got := h.Value(ctx)
	if len(got) != 1 || got[0] != "v" {
		t.Errorf("U value = %v, want [v]", got)
	}
}

func TestHandleLoadingState(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()
	backend := newStubBackend()
	backend.block = make(chan struct{})
	backend.started = make(chan struct{})
	reg.Register(DomainAgents, backend)

	h := Open(reg, &stubSession{userID: "U"}, AgentsKey(), []string{"default"})

	done := make(chan struct{})
	go func() {
		_ = h.Refresh(ctx)
		close(done)
	}()

	<-backend.started
	if !h.Loading() {
		t.Error("Loading() should be true while fetching")
	}
	close(backend.block)
	<-done

	if h.Loading() {
		t.Error("Loading() should be false after fetch")
	}
}

func TestHandleLoadFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()
	backend := newStubBackend()
	backend.loadErr = errors.New("connection refused")
	reg.Register(DomainAgents, backend)

	h := Open(reg, &stubSession{userID: "U"}, AgentsKey(), []string{"default"})
	got := h.Value(ctx)
	if len(got) != 1 || got[0] != "default" {
		t.Errorf("Value() = %v, want default", got)
	}
	if h.Err() == nil {
		t.Error("Err() should carry the load failure")
	}
}

func TestHandleSaveFailureKeepsValue(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()
	backend := newStubBackend()
	backend.saveErr = errors.New("timeout")
	reg.Register(DomainAgents, backend)

	h := Open(reg, &stubSession{userID: "U"}, AgentsKey(), []string{})
	err := h.Set(ctx, []string{"new"})
	if !errors.Is(err, backend.saveErr) {
		t.Fatalf("Set() error = %v, want wrapped save error", err)
	}
	if got := h.Value(ctx); len(got) != 1 || got[0] != "new" {
		t.Errorf("Value() = %v, want in-memory value kept", got)
	}
	if h.Err() == nil {
		t.Error("Err() should record the save failure")
	}
}

func TestHandleRemoteAnonymous(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()
	backend := newStubBackend()
	backend.requireU = true
	reg.Register(DomainProfile, backend)

	h := Open(reg, &stubSession{}, ProfileKey(), map[string]string{"name": "guest"})
	if got := h.Value(ctx); got["name"] != "guest" {
		t.Errorf("Value() = %v, want default", got)
	}
	if h.Err() != nil {
		t.Errorf("Err() = %v, want nil for anonymous read", h.Err())
	}
	if err := h.Set(ctx, map[string]string{"name": "x"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Set() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestHandleDefaultIsCopied(t *testing.T) {
	ctx := context.Background()
	def := []string{"a"}
	h := Open(newTestRegistry(), &stubSession{userID: "U"}, GroupsKey(), def)

	v := h.Value(ctx)
	v[0] = "mutated"
	if def[0] != "a" {
		t.Error("default slice was mutated through Value()")
	}
}

func TestHandleUpdateSerialized(t *testing.T) {
	ctx := context.Background()
	h := Open(newTestRegistry(), &stubSession{userID: "U"}, InteractionsKey(), 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Update(ctx, func(n int) (int, error) { return n + 1, nil })
		}()
	}
	wg.Wait()

	if got := h.Value(ctx); got != 20 {
		t.Errorf("Value() = %d, want 20", got)
	}
}

func TestRegistryFallback(t *testing.T) {
	reg := newTestRegistry()
	remote := newStubBackend()
	reg.Register(DomainAgents, remote)

	if reg.For(DomainAgents) != Backend(remote) {
		t.Error("agents should use the registered backend")
	}
	if reg.For("bookmarks") != Backend(reg.Local()) {
		t.Error("unknown domain should fall back to local")
	}
	if !reg.IsLocal(DomainGroups) || reg.IsLocal(DomainAgents) {
		t.Error("IsLocal mismatch")
	}
}

func TestKeyNames(t *testing.T) {
	tests := []struct {
		key  Key
		name string
	}{
		{ProfileKey(), "user-profile"},
		{AgentsKey(), "agents"},
		{GroupsKey(), "groups"},
		{InteractionsKey(), "agent-interactions"},
		{AgentMessagesKey("leo-dev"), "chat-history-leo-dev"},
		{GroupMessagesKey("conselho-geral"), "group-chat-conselho-geral"},
	}
	for _, tt := range tests {
		if got := tt.key.Name(); got != tt.name {
			t.Errorf("%+v.Name() = %q, want %q", tt.key, got, tt.name)
		}
		back, ok := KeyFromName(tt.name)
		if !ok || back != tt.key {
			t.Errorf("KeyFromName(%q) = %+v, %v", tt.name, back, ok)
		}
	}

	if got := (Key{Domain: "bookmarks", Scope: "x"}).Name(); got != "bookmarks-x" {
		t.Errorf("unknown domain name = %q", got)
	}
	if _, ok := KeyFromName("bookmarks-x"); ok {
		t.Error("unknown name should not resolve")
	}
}

func TestHandleRetriesAfterLoadFailure(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()
	backend := newStubBackend()
	backend.data["U/agents"] = []byte(`["a","b","c"]`)
	backend.loadErr = errors.New("connection reset")
	reg.Register(DomainAgents, backend)

	h := Open(reg, &stubSession{userID: "U"}, AgentsKey(), []string{})

	if _, err := h.Load(ctx); !IsLoadError(err) {
		t.Fatalf("Load() error = %v, want *LoadError", err)
	}
	called := false
	err := h.Update(ctx, func(cur []string) ([]string, error) {
		called = true
		return append(cur, "d"), nil
	})
	if !IsLoadError(err) {
		t.Fatalf("Update() error = %v, want *LoadError", err)
	}
	if called || backend.saves != 0 {
		t.Fatalf("Update() wrote over a failed read (called=%v saves=%d)", called, backend.saves)
	}

	backend.loadErr = nil
	if got := h.Value(ctx); len(got) != 3 {
		t.Fatalf("Value() = %v, want stored value after recovery", got)
	}
	if err := h.Update(ctx, func(cur []string) ([]string, error) { return append(cur, "d"), nil }); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := string(backend.data["U/agents"]); got != `["a","b","c","d"]` {
		t.Errorf("stored = %s, want appended list", got)
	}
}
