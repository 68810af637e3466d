package service

import (
	"context"
	"log/slog"

	"github.com/cloudwego/eino/components/model"

	"github.com/walter2161/grupo-de-agentes/internal/config"
	"github.com/walter2161/grupo-de-agentes/internal/hub"
	"github.com/walter2161/grupo-de-agentes/internal/identity"
	"github.com/walter2161/grupo-de-agentes/internal/service/callback"
	"github.com/walter2161/grupo-de-agentes/internal/service/chat"
	"github.com/walter2161/grupo-de-agentes/internal/service/file"
	"github.com/walter2161/grupo-de-agentes/internal/service/image"
	"github.com/walter2161/grupo-de-agentes/internal/service/llm"
	"github.com/walter2161/grupo-de-agentes/internal/service/speech"
	"github.com/walter2161/grupo-de-agentes/internal/service/workspace"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// Services 服务集合
type Services struct {
	Config     *config.Config
	Registry   *storage.Registry
	Identity   *identity.Provider
	Workspaces *workspace.Manager
	Hub        *hub.Hub
	Files      *file.Service

	// 模型组件（直接使用 eino 类型）
	ChatModel model.BaseChatModel
	Images    image.Generator
	Responder *llm.Responder
}

// Options 创建服务所需的外部依赖
type Options struct {
	Config   *config.Config
	Registry *storage.Registry
	Identity *identity.Provider
	Files    *file.Service
	// Hub 为空时不推送对话更新（CLI）
	Hub *hub.Hub
	// ChatModel 为空时按配置创建
	ChatModel model.BaseChatModel
}

// NewServices 创建所有服务
func NewServices(ctx context.Context, opts Options) (*Services, error) {
	cfg := opts.Config
	callback.SetupGlobalCallbacks(cfg.App.Debug)

	chatModel := opts.ChatModel
	if chatModel == nil {
		cm, err := llm.NewChatModel(ctx, cfg.AI)
		if err != nil {
			slog.Warn("chat model unavailable, replies will fall back to apologies", "error", err)
			chatModel = llm.Offline{}
		} else {
			chatModel = cm
		}
	}

	loc, err := cfg.Chat.Location()
	if err != nil {
		return nil, err
	}

	images := image.NewGenerator(cfg.AI.Image)
	transcriber, synthesizer := speech.New(cfg.AI.Speech)

	llmOpts := llm.Options{
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
		Location:    loc,
	}
	responder := llm.NewResponder(chatModel, images, llmOpts)

	chatDeps := chat.Deps{
		Replier:     responder,
		Group:       llm.NewGroupResponder(chatModel, responder, llmOpts, cfg.Chat.MaxGroupResponders),
		Transcriber: transcriber,
		Synthesizer: synthesizer,
		Gate:        chat.NewGate(),
		Settings: chat.Settings{
			MaxMessageLength: cfg.Chat.MaxMessageLength,
			MaxHistory:       cfg.Chat.MaxHistory,
			MaxChunkChars:    cfg.Chat.MaxChunkChars,
		},
	}
	if opts.Files != nil {
		chatDeps.Media = opts.Files
	}
	if opts.Hub != nil {
		chatDeps.Notifier = opts.Hub
	}

	return &Services{
		Config:   cfg,
		Registry: opts.Registry,
		Identity: opts.Identity,
		Workspaces: workspace.NewManager(workspace.Deps{
			Registry: opts.Registry,
			Chat:     chatDeps,
			Location: loc,
			MaxDaily: cfg.Chat.MaxDailyMessages,
		}),
		Hub:       opts.Hub,
		Files:     opts.Files,
		ChatModel: chatModel,
		Images:    images,
		Responder: responder,
	}, nil
}

// Workspace 按会话创建工作区，CLI 使用，会话切换后句柄自动重新读取
func (s *Services) Workspace(ns storage.Namespacer) *workspace.Workspace {
	return workspace.New(s.Workspaces.Deps(), ns)
}
