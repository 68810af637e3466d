package llm

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	domain "github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/service/callback"
	"github.com/walter2161/grupo-de-agentes/internal/service/image"
)

const (
	// FallbackReply 模型返回空内容时的回复
	FallbackReply = "Desculpe, não consegui processar sua mensagem."
	// ImageFailureReply 图片指令执行失败时替换指令的文本
	ImageFailureReply = "Desculpe, não consegui gerar a imagem solicitada no momento."
)

var (
	generateDirective = regexp.MustCompile(`\[(?:GENERATE_IMAGE|GERAR_IMAGEM):\s*([^\]]+)\]`)
	sendDirective     = regexp.MustCompile(`\[(?:SEND_IMAGE|ENVIAR_IMAGEM):\s*([^\]]+)\]`)
)

const optimizerSystemPrompt = `Você é um especialista em criar prompts para geração de imagens AI. Baseado na personalidade do agente "%s", transforme a solicitação do usuário em um prompt detalhado e específico para gerar uma imagem de alta qualidade.

Regras:
1. O prompt deve ser em inglês
2. Seja específico sobre estilo, cores, composição e detalhes
3. Inclua termos técnicos de fotografia/arte quando apropriado
4. Mantenha coerência com a personalidade do agente
5. Limite o prompt a no máximo 200 caracteres
6. Foque em elementos visuais concretos

Responda APENAS com o prompt otimizado, sem explicações.`

// Options 生成参数
type Options struct {
	Temperature float32
	MaxTokens   int
	Location    *time.Location
}

// ReplyRequest 单聊回复请求
type ReplyRequest struct {
	Agent   domain.Agent
	Profile *domain.UserProfile
	// History 之前的对话，不含本次消息
	History []*schema.Message
	Message string
}

// Responder 智能体回复生成器
type Responder struct {
	chatModel model.BaseChatModel
	images    image.Generator
	opts      Options
	now       func() time.Time
}

// NewResponder 创建回复生成器，images 为 nil 时图片指令统一替换为失败提示
func NewResponder(chatModel model.BaseChatModel, images image.Generator, opts Options) *Responder {
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 500
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if images == nil {
		images = image.Disabled{}
	}
	return &Responder{
		chatModel: chatModel,
		images:    images,
		opts:      opts,
		now:       time.Now,
	}
}

// Reply 生成回复并处理其中的图片指令
func (r *Responder) Reply(ctx context.Context, req ReplyRequest) (string, error) {
	messages := make([]*schema.Message, 0, len(req.History)+2)
	messages = append(messages, schema.SystemMessage(SystemPrompt(req.Agent, req.Profile, r.now().In(r.opts.Location))))
	messages = append(messages, req.History...)
	messages = append(messages, schema.UserMessage(req.Message))

	resp, err := r.chatModel.Generate(callback.WithRun(ctx, "agent-reply"), messages,
		model.WithTemperature(r.opts.Temperature),
		model.WithMaxTokens(r.opts.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		content = FallbackReply
	}
	return r.ResolveDirectives(ctx, req.Agent, content), nil
}

// ResolveDirectives 将回复中的图片指令替换为 [IMAGE_SENT:<url>]
// GENERATE_IMAGE 使用艺术风格，SEND_IMAGE 使用摄影风格
func (r *Responder) ResolveDirectives(ctx context.Context, agent domain.Agent, content string) string {
	content = r.resolve(ctx, agent, content, generateDirective, image.Artistic)
	content = r.resolve(ctx, agent, content, sendDirective, image.Photographic)
	return content
}

func (r *Responder) resolve(ctx context.Context, agent domain.Agent, content string, re *regexp.Regexp, preset func(string) image.Request) string {
	loc := re.FindStringSubmatchIndex(content)
	if loc == nil {
		return content
	}
	directive := content[loc[0]:loc[1]]
	description := strings.TrimSpace(content[loc[2]:loc[3]])

	prompt := r.OptimizePrompt(ctx, agent, description)
	res, err := r.images.Generate(ctx, preset(prompt))
	if err != nil {
		slog.Warn("image directive failed", "agent", agent.ID, "error", err)
		return strings.TrimSpace(strings.Replace(content, directive, ImageFailureReply, 1))
	}

	content = strings.TrimSpace(strings.Replace(content, directive, "", 1))
	return content + "\n\n[IMAGE_SENT:" + res.URL + "]"
}

// OptimizePrompt 让模型把用户的图片描述改写为生成用提示词，失败时返回原描述
func (r *Responder) OptimizePrompt(ctx context.Context, agent domain.Agent, request string) string {
	personality := agent.Name + " - " + agent.Specialty
	messages := []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(optimizerSystemPrompt, personality)),
		schema.UserMessage(fmt.Sprintf("Solicitação do usuário: %q. Personalidade do agente: %q", request, personality)),
	}

	resp, err := r.chatModel.Generate(callback.WithRun(ctx, "optimize-image-prompt"), messages,
		model.WithTemperature(0.7),
		model.WithMaxTokens(100),
	)
	if err != nil {
		slog.Warn("optimize image prompt failed", "error", err)
		return request
	}
	optimized := strings.Trim(strings.TrimSpace(resp.Content), `"`)
	if optimized == "" {
		return request
	}
	return optimized
}
