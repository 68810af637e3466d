package model

import "testing"

func TestDefaultAgentsAreCopies(t *testing.T) {
	a := DefaultAgents()
	a[0].Name = "changed"

	b := DefaultAgents()
	if b[0].Name == "changed" {
		t.Fatal("DefaultAgents() must not expose the seed slice")
	}
}

func TestDefaultGroupsAreDeepCopies(t *testing.T) {
	g := DefaultGroups()
	g[0].Members[0] = "changed"

	again := DefaultGroups()
	if again[0].Members[0] == "changed" {
		t.Fatal("DefaultGroups() must copy member slices")
	}
}

func TestDefaultGroupMembersResolve(t *testing.T) {
	agents := DefaultAgents()
	for _, g := range DefaultGroups() {
		members := g.ResolveMembers(agents)
		if len(members) != len(g.Members) {
			t.Errorf("group %s: resolved %d of %d members", g.ID, len(members), len(g.Members))
		}
	}
}

func TestResolveMembersSkipsStale(t *testing.T) {
	g := Group{Members: []string{"dr-silva", "gone"}}
	members := g.ResolveMembers(DefaultAgents())
	if len(members) != 1 || members[0].ID != "dr-silva" {
		t.Fatalf("ResolveMembers() = %v, want only dr-silva", members)
	}
}

func TestProfilePrefs(t *testing.T) {
	u := &User{ID: "u1", Name: "Ana", Email: "ana@x.com"}
	p := NewProfileFromUser(u, seedTime)
	if p.Prefs() != DefaultPreferences() {
		t.Errorf("Prefs() = %+v, want defaults", p.Prefs())
	}

	p.SetPrefs(Preferences{Theme: "dark", Language: "en"})
	if p.Prefs().Theme != "dark" {
		t.Errorf("Theme = %q, want dark", p.Prefs().Theme)
	}
}
