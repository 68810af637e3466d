package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	domain "github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/testutil"
)

func members() []domain.Agent {
	agents := domain.DefaultAgents()
	g, _ := domain.FindGroup(domain.DefaultGroups(), "conselho-geral")
	return g.ResolveMembers(agents)
}

type upperResolver struct{}

func (upperResolver) ResolveDirectives(_ context.Context, agent domain.Agent, content string) string {
	return agent.Name + ": " + content
}

func TestParseReplies(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "plain array", raw: `[{"agentId":"a","content":"x"},{"agentId":"b","content":"y"}]`, want: 2},
		{name: "fenced", raw: "```json\n[{\"agentId\":\"a\",\"content\":\"x\"}]\n```", want: 1},
		{name: "prose before array", raw: `Aqui: [{"agentId":"a","content":"x"}]`, want: 1},
		{name: "trailing comma repaired", raw: `[{"agentId":"a","content":"x"},]`, want: 1},
		{name: "unterminated repaired", raw: `[{"agentId":"a","content":"x"}`, want: 1},
		{name: "single object", raw: `{"agentId":"a","content":"x"}`, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReplies(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseReplies() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("parseReplies() = %v, want %d replies", got, tt.want)
			}
		})
	}
}

func TestRespondFiltersToMentions(t *testing.T) {
	cm := testutil.NewFakeChatModel(`[
		{"agentId":"ana-financas","content":"Comece por um orçamento."},
		{"agentId":"dr-silva","content":"Durma bem."}
	]`)
	g := NewGroupResponder(cm, nil, Options{}, 3)

	replies, err := g.Respond(context.Background(), GroupRequest{
		Group:    domain.Group{Name: "Conselho Geral"},
		Members:  members(),
		Mentions: []string{"ana-financas"},
		Message:  "@Ana qual sua opinião?",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if len(replies) != 1 || replies[0].AgentID != "ana-financas" {
		t.Errorf("Respond() = %+v, want only ana-financas", replies)
	}
	if sys := cm.Call(0)[0].Content; !strings.Contains(sys, "mencionou diretamente: ana-financas") {
		t.Errorf("system prompt should name the mentioned agent: %q", sys)
	}
}

func TestRespondCapsAndDedupes(t *testing.T) {
	cm := testutil.NewFakeChatModel(`[
		{"agentId":"dr-silva","content":"1"},
		{"agentId":"dr-silva","content":"again"},
		{"agentId":"intruso","content":"not a member"},
		{"agentId":"leo-dev","content":"  "},
		{"agentId":"ana-financas","content":"2"},
		{"agentId":"marina-arte","content":"3"}
	]`)
	g := NewGroupResponder(cm, upperResolver{}, Options{}, 2)

	replies, err := g.Respond(context.Background(), GroupRequest{Members: members(), Message: "Oi"})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if len(replies) != 2 {
		t.Fatalf("Respond() = %+v, want 2 replies", replies)
	}
	if replies[0].Content != "Dr. Silva: 1" || replies[1].AgentID != "ana-financas" {
		t.Errorf("Respond() = %+v", replies)
	}
}

func TestRespondFailures(t *testing.T) {
	boom := errors.New("down")
	g := NewGroupResponder(&testutil.FakeChatModel{Err: boom}, nil, Options{}, 3)
	if _, err := g.Respond(context.Background(), GroupRequest{Members: members()}); !errors.Is(err, boom) {
		t.Errorf("Respond() error = %v, want %v", err, boom)
	}

	g = NewGroupResponder(testutil.NewFakeChatModel(`[{"agentId":"ghost","content":"x"}]`), nil, Options{}, 3)
	if _, err := g.Respond(context.Background(), GroupRequest{Members: members()}); !errors.Is(err, ErrNoReplies) {
		t.Errorf("Respond() error = %v, want ErrNoReplies", err)
	}

	if _, err := g.Respond(context.Background(), GroupRequest{}); err == nil {
		t.Error("Respond() without members should fail")
	}
}

func TestGroupUserPromptWindow(t *testing.T) {
	history := make([]domain.ChatMessage, 30)
	for i := range history {
		history[i] = domain.ChatMessage{Sender: domain.SenderUser, Content: "msg"}
	}
	history[29].Content = "ultima"
	prompt := groupUserPrompt(GroupRequest{History: history, Message: "nova"})
	if got := strings.Count(prompt, "Usuário: "); got != groupHistoryWindow {
		t.Errorf("history lines = %d, want %d", got, groupHistoryWindow)
	}
	if !strings.Contains(prompt, "Usuário: ultima") || !strings.HasSuffix(prompt, "nova") {
		t.Errorf("prompt = %q", prompt)
	}
}
