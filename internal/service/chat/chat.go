// Package chat 实现单聊与群聊的对话引擎
// 引擎负责维护消息记录：校验、追加、裁剪、调用模型并写回存储
package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/service/llm"
	"github.com/walter2161/grupo-de-agentes/internal/service/quota"
	"github.com/walter2161/grupo-de-agentes/internal/service/speech"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// EventConversationUpdated 对话更新事件
const EventConversationUpdated = "conversation.updated"

// Replier 单聊回复生成
type Replier interface {
	Reply(ctx context.Context, req llm.ReplyRequest) (string, error)
}

// GroupReplier 群聊回复生成，一次调用返回多个智能体的回复
type GroupReplier interface {
	Respond(ctx context.Context, req llm.GroupRequest) ([]llm.AgentReply, error)
}

// MediaStore 保存上传或合成的媒体文件，返回访问地址
type MediaStore interface {
	Put(ctx context.Context, ownerID, kind, fileName, contentType string, data []byte) (string, error)
}

// Notifier 推送对话更新
type Notifier interface {
	Publish(userID string, payload any)
}

// Event 推送给客户端的对话更新
type Event struct {
	Type         string              `json:"type"`
	Conversation string              `json:"conversation"`
	Messages     []model.ChatMessage `json:"messages"`
}

// Settings 对话限制
type Settings struct {
	MaxMessageLength int
	MaxHistory       int
	MaxChunkChars    int
}

// Deps 引擎依赖，同一用户的所有对话共享
type Deps struct {
	Replier     Replier
	Group       GroupReplier
	Tracker     *quota.Tracker
	Transcriber speech.Transcriber
	Synthesizer speech.Synthesizer
	Media       MediaStore
	Notifier    Notifier
	Gate        *Gate
	Settings    Settings
	Now         func() time.Time
}

func (d *Deps) normalize() {
	if d.Gate == nil {
		d.Gate = NewGate()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Transcriber == nil {
		d.Transcriber = speech.Disabled{}
	}
	if d.Synthesizer == nil {
		d.Synthesizer = speech.Disabled{}
	}
}

// conversation 单聊与群聊共用的消息记录操作
type conversation struct {
	deps Deps
	ns   storage.Namespacer
	log  *storage.Handle[[]model.ChatMessage]
}

// gateKey 同一用户同一对话共享一个占用标记
func (c *conversation) gateKey() string {
	return c.ns.UserID() + "/" + c.log.Key().Name()
}

// Messages 当前消息记录
func (c *conversation) Messages(ctx context.Context) []model.ChatMessage {
	return c.log.Value(ctx)
}

// Loading 是否有消息正在处理
func (c *conversation) Loading() bool {
	return c.deps.Gate.Busy(c.gateKey())
}

// ensureWelcome 记录为空时写入欢迎消息，只发生一次
func (c *conversation) ensureWelcome(ctx context.Context, welcome func() model.ChatMessage) error {
	msgs, err := c.log.Load(ctx)
	if err != nil {
		return err
	}
	if len(msgs) > 0 {
		return nil
	}
	err = c.log.Update(ctx, func(cur []model.ChatMessage) ([]model.ChatMessage, error) {
		if len(cur) > 0 {
			return cur, nil
		}
		return []model.ChatMessage{welcome()}, nil
	})
	c.notify(ctx)
	return err
}

// appendTurns 追加消息并裁剪，返回追加前的记录（不含本次消息）
// 保存失败时内存中的记录已更新，错误返回给调用方
func (c *conversation) appendTurns(ctx context.Context, turns ...model.ChatMessage) ([]model.ChatMessage, error) {
	var before []model.ChatMessage
	err := c.log.Update(ctx, func(cur []model.ChatMessage) ([]model.ChatMessage, error) {
		before = cur
		next := make([]model.ChatMessage, 0, len(cur)+len(turns))
		next = append(next, cur...)
		next = append(next, turns...)
		return TrimHistory(next, c.deps.Settings.MaxHistory), nil
	})
	c.notify(ctx)
	return before, err
}

func (c *conversation) notify(ctx context.Context) {
	if c.deps.Notifier == nil {
		return
	}
	c.deps.Notifier.Publish(c.ns.UserID(), Event{
		Type:         EventConversationUpdated,
		Conversation: c.log.Key().Name(),
		Messages:     c.log.Value(ctx),
	})
}

func (c *conversation) recordMessage(ctx context.Context, agentID string, ts time.Time) {
	if c.deps.Tracker == nil {
		return
	}
	if err := c.deps.Tracker.RecordMessage(ctx, agentID, ts); err != nil {
		slog.Warn("record interaction failed", "agent", agentID, "error", err)
	}
}

func (c *conversation) validate(ctx context.Context, text, agentID string) error {
	if v := quota.ValidateMessageLength(text, c.deps.Settings.MaxMessageLength); !v.Valid {
		return &ValidationError{Message: v.Message}
	}
	return c.checkDaily(ctx, agentID)
}

func (c *conversation) checkDaily(ctx context.Context, agentID string) error {
	if c.deps.Tracker != nil && agentID != "" && !c.deps.Tracker.Allow(ctx, agentID, c.deps.Now()) {
		return &ValidationError{Message: DailyLimitMessage}
	}
	return nil
}

// TrimHistory 超过 max 条时丢弃最早的消息，max <= 0 表示不限制
func TrimHistory(msgs []model.ChatMessage, max int) []model.ChatMessage {
	if max <= 0 || len(msgs) <= max {
		return msgs
	}
	return msgs[len(msgs)-max:]
}

// ToSchema 将消息记录映射为模型对话历史
func ToSchema(msgs []model.ChatMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Sender == model.SenderUser {
			out = append(out, schema.UserMessage(m.Content))
		} else {
			out = append(out, schema.AssistantMessage(m.Content, nil))
		}
	}
	return out
}

// WithTimeTag 在提示前加上当前时间标记
func WithTimeTag(now time.Time, prompt string) string {
	return "[CURRENT_TIME: " + now.Format(time.RFC3339) + "] " + prompt
}

func newMessageID() string {
	return uuid.NewString()
}
