package identity

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/walter2161/grupo-de-agentes/internal/model"
)

func TestSessionCheckExpiry(t *testing.T) {
	sess := NewSession()
	var states []State
	sess.Subscribe(func(s State) { states = append(states, s) })

	now := time.Now()
	sess.authenticate(&model.User{ID: "u1"}, "tok", now.Add(time.Minute))
	if sess.CheckExpiry(now) {
		t.Error("session should still be valid")
	}
	if !sess.CheckExpiry(now.Add(time.Minute)) {
		t.Fatal("session should expire at the deadline")
	}
	if sess.State() != StateExpired || sess.UserID() != "" || sess.Token() != "" {
		t.Errorf("state = %s, user = %q", sess.State(), sess.UserID())
	}

	want := []State{StateAuthenticated, StateExpired}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %s, want %s", i, states[i], want[i])
		}
	}
}

func TestSessionUserIsCopy(t *testing.T) {
	sess := NewSession()
	sess.authenticate(&model.User{ID: "u1", Name: "Ana"}, "tok", time.Now().Add(time.Hour))

	u := sess.User()
	u.Name = "changed"
	if sess.User().Name != "Ana" {
		t.Error("User() should return a copy")
	}
}

func TestTokenIssuer(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", "test", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	tok, exp, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Error("expiry should be in the future")
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1, got %q", claims.UserID)
	}

	other, _ := NewTokenIssuer("wrong", "test", time.Hour)
	if _, err := other.Verify(tok); err == nil {
		t.Error("expected error for wrong secret")
	}

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := issuer.Verify(tok); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestNewTokenIssuerValidation(t *testing.T) {
	if _, err := NewTokenIssuer("", "x", time.Hour); err == nil {
		t.Error("expected error for missing secret")
	}
	if _, err := NewTokenIssuer("s", "x", 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestFileSessionStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileSessionStore(path)

	if _, ok, err := store.Load(); ok || err != nil {
		t.Fatalf("Load() on missing file = %v, %v", ok, err)
	}

	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := store.Save(StoredSession{Token: "tok", ExpiresAt: exp}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, ok, err := store.Load()
	if err != nil || !ok || got.Token != "tok" || !got.ExpiresAt.Equal(exp) {
		t.Errorf("Load() = %+v, %v, %v", got, ok, err)
	}

	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("session should be cleared")
	}
}

func TestLoadOrCreateSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.key")
	first, err := LoadOrCreateSecret(path)
	if err != nil || first == "" {
		t.Fatalf("LoadOrCreateSecret() = %q, %v", first, err)
	}
	second, err := LoadOrCreateSecret(path)
	if err != nil || second != first {
		t.Errorf("second call = %q, want stable secret", second)
	}
}
