package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/service/llm"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// fallbackAgentName 回复的智能体已不在列表中时使用
const fallbackAgentName = "Agente"

// GroupEngine 群聊对话
type GroupEngine struct {
	conversation
	group   model.Group
	members []model.Agent
	profile model.UserProfile
}

// NewGroupEngine 创建群聊引擎，agents 为用户的全部智能体，成员从中解析
func NewGroupEngine(ctx context.Context, deps Deps, ns storage.Namespacer, log *storage.Handle[[]model.ChatMessage], group model.Group, agents []model.Agent, profile model.UserProfile) (*GroupEngine, error) {
	deps.normalize()
	g := &GroupEngine{
		conversation: conversation{deps: deps, ns: ns, log: log},
		group:        group,
		members:      group.ResolveMembers(agents),
		profile:      profile,
	}
	if err := g.ensureWelcome(ctx, g.welcome); err != nil {
		return g, fmt.Errorf("init group conversation %s: %w", group.ID, err)
	}
	return g, nil
}

// Members 群组当前成员
func (g *GroupEngine) Members() []model.Agent {
	return g.members
}

func (g *GroupEngine) welcome() model.ChatMessage {
	names := make([]string, 0, len(g.members))
	for _, a := range g.members {
		names = append(names, a.Name)
	}
	name := g.profile.Name
	if name == "" {
		name = "visitante"
	}
	content := fmt.Sprintf(`Olá **%s**! 👋 Bem-vindo ao grupo **%s**!

Aqui você pode conversar com nossa equipe de especialistas: %s.

💡 **Dicas para usar o grupo:**
- Faça perguntas específicas sobre qualquer especialidade
- Use @nome para mencionar um especialista específico
- Os especialistas colaboram entre si para dar as melhores respostas

Como podemos te ajudar hoje?`, name, g.group.Name, strings.Join(names, ", "))
	return g.systemTurn(content)
}

func (g *GroupEngine) systemTurn(content string) model.ChatMessage {
	return model.ChatMessage{
		ID:         newMessageID(),
		GroupID:    g.group.ID,
		Content:    content,
		Sender:     model.SenderAgent,
		SenderName: SystemSenderName,
		Timestamp:  g.deps.Now(),
	}
}

// Send 发送群聊消息，被提及的智能体 ID 记录在用户消息上
// 协作方整体失败时追加一条系统致歉消息
func (g *GroupEngine) Send(ctx context.Context, text string) ([]model.ChatMessage, error) {
	if err := g.validate(ctx, text, ""); err != nil {
		return nil, err
	}
	release, err := g.deps.Gate.Acquire(g.gateKey())
	if err != nil {
		return nil, err
	}
	defer release()

	ctx = context.WithoutCancel(ctx)

	var mentionIDs []string
	for _, a := range ExtractMentions(text, g.members) {
		mentionIDs = append(mentionIDs, a.ID)
	}

	user := model.ChatMessage{
		ID:           newMessageID(),
		GroupID:      g.group.ID,
		Content:      text,
		Sender:       model.SenderUser,
		SenderName:   g.profile.Name,
		SenderAvatar: g.profile.Avatar,
		Mentions:     mentionIDs,
		Timestamp:    g.deps.Now(),
	}
	history, saveErr := g.appendTurns(ctx, user)
	if storage.IsLoadError(saveErr) {
		return nil, saveErr
	}

	replies, err := g.respond(ctx, history, text, mentionIDs)
	var turns []model.ChatMessage
	if err != nil {
		slog.Error("group reply failed", "group", g.group.ID, "error", err)
		turns = []model.ChatMessage{g.systemTurn(ApologyReply)}
	} else {
		for _, r := range replies {
			turns = append(turns, g.agentTurn(r))
			if g.deps.Tracker != nil {
				if err := g.deps.Tracker.RecordInteraction(ctx, r.AgentID, g.deps.Now()); err != nil {
					slog.Warn("record interaction failed", "agent", r.AgentID, "error", err)
				}
			}
		}
	}

	if _, err := g.appendTurns(ctx, turns...); err != nil && saveErr == nil {
		saveErr = err
	}
	return append([]model.ChatMessage{user}, turns...), saveErr
}

func (g *GroupEngine) respond(ctx context.Context, history []model.ChatMessage, text string, mentions []string) ([]llm.AgentReply, error) {
	if g.deps.Group == nil {
		return nil, fmt.Errorf("no group responder configured")
	}
	profile := g.profile
	replies, err := g.deps.Group.Respond(ctx, llm.GroupRequest{
		Group:    g.group,
		Members:  g.members,
		Mentions: mentions,
		Profile:  &profile,
		History:  history,
		Message:  WithTimeTag(g.deps.Now(), text),
	})
	if err != nil {
		return nil, err
	}
	if len(replies) == 0 {
		return nil, llm.ErrNoReplies
	}
	return replies, nil
}

func (g *GroupEngine) agentTurn(r llm.AgentReply) model.ChatMessage {
	content, imageURL := ExtractImage(r.Content)
	turn := model.ChatMessage{
		ID:         newMessageID(),
		AgentID:    r.AgentID,
		GroupID:    g.group.ID,
		Content:    content,
		Sender:     model.SenderAgent,
		SenderName: fallbackAgentName,
		ImageURL:   imageURL,
		Timestamp:  g.deps.Now(),
	}
	if a, ok := model.FindAgent(g.members, r.AgentID); ok {
		turn.SenderName = a.Name
		turn.SenderAvatar = a.Avatar
	}
	return turn
}

// ExtractMentions 返回文本中以 @名称 提及的成员，按首次出现顺序去重
// 名称区分大小写且必须完整匹配，名称之后不能紧跟字母或数字；
// 同一位置有多个名称可匹配时取最长的
func ExtractMentions(text string, members []model.Agent) []model.Agent {
	var out []model.Agent
	seen := make(map[string]bool)

	for i := 0; i < len(text); i++ {
		if text[i] != '@' {
			continue
		}
		rest := text[i+1:]

		best := -1
		for j, a := range members {
			if a.Name == "" || !strings.HasPrefix(rest, a.Name) {
				continue
			}
			if r, _ := utf8.DecodeRuneInString(rest[len(a.Name):]); r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
				continue
			}
			if best < 0 || len(a.Name) > len(members[best].Name) {
				best = j
			}
		}
		if best < 0 {
			continue
		}

		a := members[best]
		if !seen[a.ID] {
			seen[a.ID] = true
			out = append(out, a)
		}
		i += len(a.Name)
	}
	return out
}
