package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/service/llm"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
	"github.com/walter2161/grupo-de-agentes/internal/testutil"
)

type fakeGroupReplier struct {
	replies []llm.AgentReply
	err     error
	reqs    []llm.GroupRequest
}

func (f *fakeGroupReplier) Respond(_ context.Context, req llm.GroupRequest) ([]llm.AgentReply, error) {
	f.reqs = append(f.reqs, req)
	return f.replies, f.err
}

func names(agents []model.Agent) []string {
	out := make([]string, 0, len(agents))
	for _, a := range agents {
		out = append(out, a.Name)
	}
	return out
}

func TestExtractMentions(t *testing.T) {
	people := []model.Agent{
		{ID: "ana", Name: "Ana"},
		{ID: "bob", Name: "Bob"},
		{ID: "carol", Name: "Carol"},
		{ID: "silva", Name: "Dr. Silva"},
		{ID: "ana-maria", Name: "Ana Maria"},
	}

	tests := []struct {
		text string
		want []string
	}{
		{"Hello @Ana and @Bob", []string{"Ana", "Bob"}},
		{"no mentions here", nil},
		{"@Bob primeiro, depois @Ana, e @Bob de novo", []string{"Bob", "Ana"}},
		{"@ana minúsculo não conta", nil},
		{"@Anabela não é a Ana", nil},
		{"@Ana Maria, tudo bem?", []string{"Ana Maria"}},
		{"pergunta para @Dr. Silva!", []string{"Dr. Silva"}},
		{"email@Carol.com", []string{"Carol"}},
		{"@", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := names(ExtractMentions(tt.text, people))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ExtractMentions(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func newGroupEngine(t *testing.T, env *env, group model.Group) *GroupEngine {
	t.Helper()
	log := storage.Open(env.registry, env.ns, storage.GroupMessagesKey(group.ID), []model.ChatMessage{})
	g, err := NewGroupEngine(context.Background(), env.deps, env.ns, log, group, model.DefaultAgents(), ana())
	if err != nil {
		t.Fatalf("NewGroupEngine() error = %v", err)
	}
	return g
}

func testGroup() model.Group {
	return model.Group{ID: "g1", Name: "Conselho", Members: []string{"dr-silva", "ana-financas", "removed-agent"}}
}

func TestGroupWelcome(t *testing.T) {
	env := newEnv("")
	g := newGroupEngine(t, env, testGroup())

	msgs := g.Messages(context.Background())
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	w := msgs[0]
	if w.SenderName != SystemSenderName || w.GroupID != "g1" {
		t.Errorf("welcome = %+v", w)
	}
	for _, want := range []string{"Olá **Ana**!", "**Conselho**", "Dr. Silva, Ana.", "@nome"} {
		if !strings.Contains(w.Content, want) {
			t.Errorf("welcome missing %q: %q", want, w.Content)
		}
	}
	if len(g.Members()) != 2 {
		t.Errorf("Members() = %v, stale ids should be skipped", names(g.Members()))
	}
}

func TestGroupSendMention(t *testing.T) {
	env := newEnv("")
	// 模型同时返回两位成员，只有被提及的 Ana 保留
	cm := testutil.NewFakeChatModel(`[{"agentId":"ana-financas","content":"Guarde uma reserva."},{"agentId":"dr-silva","content":"Cuide da saúde."}]`)
	env.deps.Group = llm.NewGroupResponder(cm, nil, llm.Options{}, 3)
	g := newGroupEngine(t, env, testGroup())

	turns, err := g.Send(context.Background(), "@Ana qual sua opinião?")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	user := turns[0]
	if len(user.Mentions) != 1 || user.Mentions[0] != "ana-financas" {
		t.Errorf("mentions = %v, want [ana-financas]", user.Mentions)
	}
	if len(turns) != 2 {
		t.Fatalf("turns = %+v, want user turn and Ana's reply", turns)
	}
	reply := turns[1]
	if reply.AgentID != "ana-financas" || reply.SenderName != "Ana" || reply.GroupID != "g1" {
		t.Errorf("reply = %+v", reply)
	}
	if n := len(g.Messages(context.Background())); n != 3 {
		t.Errorf("log has %d messages, want 3", n)
	}
}

func TestGroupSendAppendsEachReply(t *testing.T) {
	env := newEnv("")
	fake := &fakeGroupReplier{replies: []llm.AgentReply{
		{AgentID: "dr-silva", Content: "Primeiro [IMAGE_SENT:https://img/a.png]"},
		{AgentID: "ghost", Content: "Quem sou eu?"},
	}}
	env.deps.Group = fake
	g := newGroupEngine(t, env, testGroup())

	turns, err := g.Send(context.Background(), "Olá a todos")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 3 {
		t.Fatalf("got %d turns, want 3", len(turns))
	}
	if turns[1].SenderName != "Dr. Silva" || turns[1].ImageURL != "https://img/a.png" || turns[1].Content != "Primeiro" {
		t.Errorf("first reply = %+v", turns[1])
	}
	if turns[2].SenderName != fallbackAgentName {
		t.Errorf("unknown agent sender = %q, want %q", turns[2].SenderName, fallbackAgentName)
	}
	if len(fake.reqs[0].Mentions) != 0 || len(fake.reqs[0].Members) != 2 {
		t.Errorf("request = %+v", fake.reqs[0])
	}
}

func TestGroupSendFailure(t *testing.T) {
	env := newEnv("")
	env.deps.Group = &fakeGroupReplier{err: errors.New("down")}
	g := newGroupEngine(t, env, testGroup())

	turns, err := g.Send(context.Background(), "@Ana @Dr. Silva oi")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want user turn and one apology", len(turns))
	}
	if turns[1].SenderName != SystemSenderName || turns[1].Content != ApologyReply {
		t.Errorf("apology = %+v", turns[1])
	}
}
