package testutil

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// FakeChatModel 可编排输出的 ChatModel
// Reply 非空时优先使用，否则按顺序循环返回 Responses
type FakeChatModel struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Reply     func(messages []*schema.Message) (string, error)

	calls [][]*schema.Message
	opts  []*model.Options
}

// NewFakeChatModel 创建按顺序返回 responses 的模型
func NewFakeChatModel(responses ...string) *FakeChatModel {
	return &FakeChatModel{Responses: responses}
}

func (m *FakeChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	idx := len(m.calls)
	m.calls = append(m.calls, messages)
	m.opts = append(m.opts, model.GetCommonOptions(nil, opts...))
	reply, responses, failErr := m.Reply, m.Responses, m.Err
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failErr != nil {
		return nil, failErr
	}
	if reply != nil {
		content, err := reply(messages)
		if err != nil {
			return nil, err
		}
		return schema.AssistantMessage(content, nil), nil
	}
	if len(responses) == 0 {
		return schema.AssistantMessage("default response", nil), nil
	}
	return schema.AssistantMessage(responses[idx%len(responses)], nil), nil
}

func (m *FakeChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// Calls 返回调用次数
func (m *FakeChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Call 返回第 i 次调用的消息
func (m *FakeChatModel) Call(i int) []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

// Options 返回第 i 次调用的通用参数
func (m *FakeChatModel) Options(i int) *model.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts[i]
}
