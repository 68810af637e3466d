// Package quota 维护每个智能体的交互计数，并提供消息长度校验
package quota

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// Validation 校验结果
type Validation struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// ValidateMessageLength 校验消息非空且不超过 max 个字符
func ValidateMessageLength(text string, max int) Validation {
	if strings.TrimSpace(text) == "" {
		return Validation{Valid: false, Message: "A mensagem não pode estar vazia"}
	}
	if max > 0 && utf8.RuneCountInString(text) > max {
		return Validation{
			Valid:   false,
			Message: fmt.Sprintf("A mensagem excede o limite de %d caracteres", max),
		}
	}
	return Validation{Valid: true}
}

// Tracker 交互计数，“今天”按配置时区的自然日判断
type Tracker struct {
	handle   *storage.Handle[[]model.AgentInteraction]
	loc      *time.Location
	maxDaily int
}

// NewTracker 创建计数器，maxDaily 为 0 表示不限制
func NewTracker(handle *storage.Handle[[]model.AgentInteraction], loc *time.Location, maxDaily int) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	return &Tracker{handle: handle, loc: loc, maxDaily: maxDaily}
}

// List 全部计数
func (t *Tracker) List(ctx context.Context) []model.AgentInteraction {
	return t.handle.Value(ctx)
}

// Get 单个智能体的计数
func (t *Tracker) Get(ctx context.Context, agentID string) (model.AgentInteraction, bool) {
	for _, row := range t.handle.Value(ctx) {
		if row.AgentID == agentID {
			return row, true
		}
	}
	return model.AgentInteraction{}, false
}

// RecordInteraction 更新最近交互时间，不存在时创建计数为零的记录
func (t *Tracker) RecordInteraction(ctx context.Context, agentID string, ts time.Time) error {
	return t.update(ctx, agentID, ts, func(row *model.AgentInteraction) {})
}

// RecordMessage 记录一条用户消息，跨自然日时重置今日计数
func (t *Tracker) RecordMessage(ctx context.Context, agentID string, ts time.Time) error {
	return t.update(ctx, agentID, ts, func(row *model.AgentInteraction) {
		row.MessagesToday++
	})
}

// RecordRandomQuestion 记录智能体主动提问
func (t *Tracker) RecordRandomQuestion(ctx context.Context, agentID string, ts time.Time) error {
	return t.update(ctx, agentID, ts, func(row *model.AgentInteraction) {
		row.RandomQuestionsSent++
		at := ts
		row.LastRandomQuestion = &at
	})
}

// RecordSelfMessage 记录智能体主动发送的消息
func (t *Tracker) RecordSelfMessage(ctx context.Context, agentID string, ts time.Time) error {
	return t.update(ctx, agentID, ts, func(row *model.AgentInteraction) {
		at := ts
		row.LastSelfMessage = &at
	})
}

// MessagesToday 今日消息数
func (t *Tracker) MessagesToday(ctx context.Context, agentID string, now time.Time) int {
	row, ok := t.Get(ctx, agentID)
	if !ok || !t.sameDay(row.LastInteraction, now) {
		return 0
	}
	return row.MessagesToday
}

// Allow 是否还可以发送消息
func (t *Tracker) Allow(ctx context.Context, agentID string, now time.Time) bool {
	if t.maxDaily <= 0 {
		return true
	}
	return t.MessagesToday(ctx, agentID, now) < t.maxDaily
}

func (t *Tracker) update(ctx context.Context, agentID string, ts time.Time, fn func(*model.AgentInteraction)) error {
	return t.handle.Update(ctx, func(rows []model.AgentInteraction) ([]model.AgentInteraction, error) {
		next := make([]model.AgentInteraction, len(rows))
		copy(next, rows)

		idx := -1
		for i := range next {
			if next[i].AgentID == agentID {
				idx = i
				break
			}
		}
		if idx < 0 {
			next = append(next, model.AgentInteraction{AgentID: agentID, LastInteraction: ts})
			idx = len(next) - 1
		} else if !t.sameDay(next[idx].LastInteraction, ts) {
			next[idx].MessagesToday = 0
			next[idx].RandomQuestionsSent = 0
		}

		fn(&next[idx])
		next[idx].LastInteraction = ts
		return next, nil
	})
}

func (t *Tracker) sameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.In(t.loc).Date()
	by, bm, bd := b.In(t.loc).Date()
	return ay == by && am == bm && ad == bd
}
