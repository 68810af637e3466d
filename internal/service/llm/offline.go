package llm

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrNoModel 未配置语言模型
var ErrNoModel = errors.New("language model not configured")

// Offline 未配置 API key 时使用，每次调用都失败，对话引擎会追加致歉消息
type Offline struct{}

func (Offline) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	return nil, ErrNoModel
}

func (Offline) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, ErrNoModel
}
