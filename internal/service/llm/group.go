package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/kaptinlin/jsonrepair"

	domain "github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/service/callback"
)

// ErrNoReplies 群聊模型没有返回任何可用回复
var ErrNoReplies = errors.New("group responder returned no usable replies")

// groupHistoryWindow 放入提示词的最近群聊消息条数
const groupHistoryWindow = 20

// AgentReply 某个智能体在群聊中的回复
type AgentReply struct {
	AgentID string `json:"agentId"`
	Content string `json:"content"`
}

// GroupRequest 群聊回复请求
type GroupRequest struct {
	Group   domain.Group
	Members []domain.Agent
	// Mentions 被 @ 的智能体 ID，非空时只有这些智能体回复
	Mentions []string
	Profile  *domain.UserProfile
	History  []domain.ChatMessage
	Message  string
}

// DirectiveResolver 处理回复中的图片指令
type DirectiveResolver interface {
	ResolveDirectives(ctx context.Context, agent domain.Agent, content string) string
}

// GroupResponder 一次模型调用生成多个智能体的回复
type GroupResponder struct {
	chatModel     model.BaseChatModel
	resolver      DirectiveResolver
	opts          Options
	maxResponders int
}

// NewGroupResponder 创建群聊回复生成器
func NewGroupResponder(chatModel model.BaseChatModel, resolver DirectiveResolver, opts Options, maxResponders int) *GroupResponder {
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 500
	}
	if maxResponders <= 0 {
		maxResponders = 3
	}
	return &GroupResponder{
		chatModel:     chatModel,
		resolver:      resolver,
		opts:          opts,
		maxResponders: maxResponders,
	}
}

// Respond 返回参与回复的智能体及其内容
// 被提及时只保留被提及的成员，否则保留成员中由模型选出的若干位
func (g *GroupResponder) Respond(ctx context.Context, req GroupRequest) ([]AgentReply, error) {
	if len(req.Members) == 0 {
		return nil, errors.New("group has no members")
	}

	messages := []*schema.Message{
		schema.SystemMessage(groupSystemPrompt(req, g.limit(req))),
		schema.UserMessage(groupUserPrompt(req)),
	}
	// 多人回复需要更多 token
	maxTokens := g.opts.MaxTokens * g.limit(req)

	resp, err := g.chatModel.Generate(callback.WithRun(ctx, "group-reply"), messages,
		model.WithTemperature(g.opts.Temperature),
		model.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("generate group reply: %w", err)
	}

	replies, err := parseReplies(resp.Content)
	if err != nil {
		return nil, err
	}

	replies = g.filter(req, replies)
	if len(replies) == 0 {
		return nil, ErrNoReplies
	}

	if g.resolver != nil {
		for i, r := range replies {
			agent, _ := domain.FindAgent(req.Members, r.AgentID)
			replies[i].Content = g.resolver.ResolveDirectives(ctx, agent, r.Content)
		}
	}
	return replies, nil
}

// limit 被提及的智能体全部回复，不受上限约束
func (g *GroupResponder) limit(req GroupRequest) int {
	if len(req.Mentions) > g.maxResponders {
		return len(req.Mentions)
	}
	return g.maxResponders
}

func (g *GroupResponder) filter(req GroupRequest, replies []AgentReply) []AgentReply {
	allowed := make(map[string]bool, len(req.Members))
	if len(req.Mentions) > 0 {
		for _, id := range req.Mentions {
			allowed[id] = true
		}
	} else {
		for _, a := range req.Members {
			allowed[a.ID] = true
		}
	}

	seen := make(map[string]bool)
	out := make([]AgentReply, 0, len(replies))
	for _, r := range replies {
		r.AgentID = strings.TrimSpace(r.AgentID)
		r.Content = strings.TrimSpace(r.Content)
		if r.Content == "" || !allowed[r.AgentID] || seen[r.AgentID] {
			continue
		}
		seen[r.AgentID] = true
		out = append(out, r)
		if len(out) == g.limit(req) {
			break
		}
	}
	return out
}

// parseReplies 解析模型输出的 JSON 数组，格式不规范时先修复
func parseReplies(raw string) ([]AgentReply, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if i := strings.Index(s, "["); i > 0 {
		s = s[i:]
	}

	if !json.Valid([]byte(s)) {
		repaired, err := jsonrepair.JSONRepair(s)
		if err != nil {
			return nil, fmt.Errorf("repair group reply json: %w", err)
		}
		s = repaired
	}

	var replies []AgentReply
	if err := json.Unmarshal([]byte(s), &replies); err != nil {
		// 模型只回复了一个对象
		var single AgentReply
		if err2 := json.Unmarshal([]byte(s), &single); err2 != nil {
			return nil, fmt.Errorf("decode group reply: %w", err)
		}
		replies = []AgentReply{single}
	}
	return replies, nil
}

func groupSystemPrompt(req GroupRequest, limit int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Você coordena o grupo \"%s\"", req.Group.Name)
	if req.Group.Description != "" {
		fmt.Fprintf(&b, " (%s)", req.Group.Description)
	}
	b.WriteString(", uma equipe de especialistas que conversa com o usuário.\n\n")

	if req.Profile != nil && req.Profile.Name != "" {
		fmt.Fprintf(&b, "O usuário se chama %s.\n\n", req.Profile.Name)
	}

	b.WriteString("ESPECIALISTAS DO GRUPO:\n")
	for _, a := range req.Members {
		fmt.Fprintf(&b, "- id: %s | %s, %s | especialidade: %s | estilo: %s\n",
			a.ID, a.Name, a.Title, a.Specialty, a.PersonaStyle)
		if a.Guidelines != "" {
			fmt.Fprintf(&b, "  diretrizes: %s\n", a.Guidelines)
		}
	}
	b.WriteString("\n")

	if len(req.Mentions) > 0 {
		fmt.Fprintf(&b, "O usuário mencionou diretamente: %s. Apenas esses especialistas devem responder.\n", strings.Join(req.Mentions, ", "))
	} else {
		fmt.Fprintf(&b, "Escolha de 1 a %d especialistas mais relevantes para responder.\n", limit)
	}

	fmt.Fprintf(&b, `
REGRAS:
1. Cada especialista responde com sua própria voz e especialidade
2. Cada resposta deve ter no máximo %d caracteres
3. Os especialistas podem complementar uns aos outros
4. Para pedir uma imagem use [GENERATE_IMAGE: descrição] ou [SEND_IMAGE: descrição]

Responda APENAS com um array JSON no formato:
[{"agentId": "<id do especialista>", "content": "<resposta>"}]`, MaxReplyChars)

	return b.String()
}

func groupUserPrompt(req GroupRequest) string {
	var b strings.Builder

	history := req.History
	if len(history) > groupHistoryWindow {
		history = history[len(history)-groupHistoryWindow:]
	}
	if len(history) > 0 {
		b.WriteString("HISTÓRICO RECENTE:\n")
		for _, m := range history {
			name := m.SenderName
			if name == "" {
				if m.Sender == domain.SenderUser {
					name = "Usuário"
				} else {
					name = "Agente"
				}
			}
			fmt.Fprintf(&b, "%s: %s\n", name, m.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "NOVA MENSAGEM DO USUÁRIO:\n%s", req.Message)
	return b.String()
}
