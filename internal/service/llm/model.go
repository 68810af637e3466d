// Package llm 封装语言模型调用
// 直接使用 eino ChatModel，提示词与指令解析在本包内完成
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/walter2161/grupo-de-agentes/internal/config"
)

// NewChatModel 按配置的 provider 创建 ChatModel
// deepseek 与 dashscope 均使用 OpenAI 兼容接口
func NewChatModel(ctx context.Context, cfg config.AIConfig) (model.BaseChatModel, error) {
	var apiKey, baseURL, modelName string

	switch cfg.Provider {
	case "openai":
		apiKey = cfg.OpenAI.APIKey
		baseURL = cfg.OpenAI.BaseURL
		modelName = cfg.OpenAI.Model
	case "alibaba", "qwen", "dashscope":
		apiKey = cfg.Qwen.APIKey
		baseURL = cfg.Qwen.BaseURL
		if baseURL == "" {
			baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
		}
		modelName = cfg.Qwen.Model
	case "deepseek":
		apiKey = cfg.DeepSeek.APIKey
		baseURL = cfg.DeepSeek.BaseURL
		modelName = cfg.DeepSeek.Model
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("api_key is required for provider: %s", cfg.Provider)
	}

	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   modelName,
	})
}
