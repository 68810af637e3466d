package storage

import (
	"context"
	"testing"
)

func TestMigrateAdoptsAnonymousData(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()
	kv := reg.Local().Store().KV()

	mustSetRaw(t, kv, "agents", `["anon"]`)
	mustSetRaw(t, kv, "chat-history-leo-dev", `[]`)
	mustSetRaw(t, kv, "groups", `["anon-group"]`)
	mustSetRaw(t, kv, "u1-groups", `["mine"]`)
	mustSetRaw(t, kv, "unrelated", `x`)

	if err := NewMigrator(reg).Migrate(ctx, "u1"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	want := map[string]string{
		"u1-agents":               `["anon"]`,
		"u1-chat-history-leo-dev": `[]`,
		"u1-groups":               `["mine"]`,
		"unrelated":               `x`,
	}
	for k, v := range want {
		got, ok, _ := kv.Get(ctx, k)
		if !ok || got != v {
			t.Errorf("%s = %q (found %v), want %q", k, got, ok, v)
		}
	}
	for _, k := range []string{"agents", "groups", "chat-history-leo-dev"} {
		if _, ok, _ := kv.Get(ctx, k); ok {
			t.Errorf("neutral key %s should be removed", k)
		}
	}
}

func TestMigratePushesToEmptyRemote(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()
	kv := reg.Local().Store().KV()

	agents := newStubBackend()
	groups := newStubBackend()
	groups.data["u1/groups"] = []byte(`["remote"]`)
	reg.Register(DomainAgents, agents)
	reg.Register(DomainGroups, groups)

	mustSetRaw(t, kv, "u1-agents", `["local"]`)
	mustSetRaw(t, kv, "u1-groups", `["local"]`)
	mustSetRaw(t, kv, "u2-agents", `["other"]`)

	if err := NewMigrator(reg).Migrate(ctx, "u1"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if got := string(agents.data["u1/agents"]); got != `["local"]` {
		t.Errorf("remote agents = %q, want local copy", got)
	}
	if _, ok := agents.data["u2/agents"]; ok {
		t.Error("other user's data must not be migrated")
	}
	if got := string(groups.data["u1/groups"]); got != `["remote"]` {
		t.Errorf("remote groups = %q, existing remote data must win", got)
	}
	if groups.saves != 0 {
		t.Errorf("groups saves = %d, want 0", groups.saves)
	}
}

func TestMigrateAnonymousIsNoop(t *testing.T) {
	reg := newTestRegistry()
	if err := NewMigrator(reg).Migrate(context.Background(), ""); err != nil {
		t.Errorf("Migrate(\"\") error = %v", err)
	}
}
