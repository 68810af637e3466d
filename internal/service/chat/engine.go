package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/service/file"
	"github.com/walter2161/grupo-de-agentes/internal/service/llm"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

// AudioInput 录音
type AudioInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ImageInput 用户发送的图片，Caption 可为空
type ImageInput struct {
	FileName    string
	ContentType string
	Data        []byte
	Caption     string
}

// AudioResult 语音消息处理结果
type AudioResult struct {
	// Unavailable 无法转写，对话未被修改
	Unavailable bool                `json:"unavailable"`
	Transcript  string              `json:"transcript,omitempty"`
	Turns       []model.ChatMessage `json:"turns,omitempty"`
	// ReplyAudioURL 回复的语音，不可用时为空
	ReplyAudioURL string `json:"reply_audio_url,omitempty"`
}

// Engine 与单个智能体的对话
type Engine struct {
	conversation
	agent   model.Agent
	profile model.UserProfile
}

// NewEngine 创建对话引擎，记录为空时写入欢迎消息
func NewEngine(ctx context.Context, deps Deps, ns storage.Namespacer, log *storage.Handle[[]model.ChatMessage], agent model.Agent, profile model.UserProfile) (*Engine, error) {
	deps.normalize()
	e := &Engine{
		conversation: conversation{deps: deps, ns: ns, log: log},
		agent:        agent,
		profile:      profile,
	}
	if err := e.ensureWelcome(ctx, e.welcome); err != nil {
		return e, fmt.Errorf("init conversation with %s: %w", agent.ID, err)
	}
	return e, nil
}

// Agent 对话的智能体
func (e *Engine) Agent() model.Agent {
	return e.agent
}

func (e *Engine) welcome() model.ChatMessage {
	name := e.profile.Name
	if name == "" {
		name = "visitante"
	}
	content := fmt.Sprintf("Olá %s! 😊 Sou %s, %s. %s. Como posso te ajudar hoje?",
		name, e.agent.Name, e.agent.Title, strings.TrimSuffix(e.agent.Description, "."))
	return e.agentTurn(content, "")
}

func (e *Engine) userTurn(content string) model.ChatMessage {
	return model.ChatMessage{
		ID:           newMessageID(),
		AgentID:      e.agent.ID,
		Content:      content,
		Sender:       model.SenderUser,
		SenderName:   e.profile.Name,
		SenderAvatar: e.profile.Avatar,
		Timestamp:    e.deps.Now(),
	}
}

func (e *Engine) agentTurn(content, imageURL string) model.ChatMessage {
	return model.ChatMessage{
		ID:           newMessageID(),
		AgentID:      e.agent.ID,
		Content:      content,
		Sender:       model.SenderAgent,
		SenderName:   e.agent.Name,
		SenderAvatar: e.agent.Avatar,
		ImageURL:     imageURL,
		Timestamp:    e.deps.Now(),
	}
}

// Send 发送文本消息，返回本次追加的消息（用户消息与智能体回复）
// 模型失败时追加一条致歉消息而不是返回错误；返回的错误只来自校验、并发与存储
func (e *Engine) Send(ctx context.Context, text string) ([]model.ChatMessage, error) {
	if err := e.validate(ctx, text, e.agent.ID); err != nil {
		return nil, err
	}
	release, err := e.deps.Gate.Acquire(e.gateKey())
	if err != nil {
		return nil, err
	}
	defer release()

	turns, _, err := e.exchange(ctx, e.userTurn(text), text, true, ApologyReply)
	return turns, err
}

// SendAudio 转写录音后按文本消息处理，并尝试为回复合成语音
func (e *Engine) SendAudio(ctx context.Context, in AudioInput) (*AudioResult, error) {
	if err := e.checkDaily(ctx, e.agent.ID); err != nil {
		return nil, err
	}
	release, err := e.deps.Gate.Acquire(e.gateKey())
	if err != nil {
		return nil, err
	}
	defer release()

	transcript, err := e.deps.Transcriber.Transcribe(ctx, in.FileName, in.Data)
	if err != nil {
		slog.Warn("transcription failed", "agent", e.agent.ID, "error", err)
		transcript = ""
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return &AudioResult{Unavailable: true}, nil
	}
	if err := e.validate(ctx, transcript, ""); err != nil {
		return nil, err
	}

	user := e.userTurn("🎤 " + transcript)
	user.AudioURL = e.putMedia(ctx, file.KindAudio, in.FileName, in.ContentType, in.Data)

	turns, replied, err := e.exchange(ctx, user, transcript, true, ApologyReply)
	if storage.IsLoadError(err) {
		return nil, err
	}
	res := &AudioResult{Transcript: transcript, Turns: turns}
	if !replied {
		return res, err
	}

	agentTurns := turns[1:]
	var spoken []string
	for _, t := range agentTurns {
		spoken = append(spoken, t.Content)
	}
	audio, synthErr := e.deps.Synthesizer.Synthesize(context.WithoutCancel(ctx), strings.Join(spoken, "\n"))
	if synthErr != nil {
		slog.Warn("speech synthesis failed", "agent", e.agent.ID, "error", synthErr)
	}
	if len(audio) == 0 {
		return res, err
	}

	url := e.putMedia(ctx, file.KindAudio, "reply.mp3", "audio/mpeg", audio)
	if url == "" {
		return res, err
	}
	res.ReplyAudioURL = url
	last := agentTurns[len(agentTurns)-1].ID
	res.Turns[len(res.Turns)-1].AudioURL = url
	attachErr := e.log.Update(context.WithoutCancel(ctx), func(cur []model.ChatMessage) ([]model.ChatMessage, error) {
		next := make([]model.ChatMessage, len(cur))
		copy(next, cur)
		for i := range next {
			if next[i].ID == last {
				next[i].AudioURL = url
			}
		}
		return next, nil
	})
	e.notify(ctx)
	return res, errors.Join(err, attachErr)
}

// SendImage 发送图片，回复不切分
func (e *Engine) SendImage(ctx context.Context, in ImageInput) ([]model.ChatMessage, error) {
	caption := strings.TrimSpace(in.Caption)
	if caption != "" {
		if err := e.validate(ctx, caption, e.agent.ID); err != nil {
			return nil, err
		}
	} else if err := e.checkDaily(ctx, e.agent.ID); err != nil {
		return nil, err
	}
	release, err := e.deps.Gate.Acquire(e.gateKey())
	if err != nil {
		return nil, err
	}
	defer release()

	content := "[Imagem enviada]"
	prompt := "O usuário enviou uma imagem. Por favor, reconheça o envio e pergunte se ele gostaria de descrever a imagem ou se precisa de alguma análise específica."
	if caption != "" {
		content = "[Imagem enviada: " + caption + "]"
		prompt = fmt.Sprintf("O usuário enviou uma imagem com a descrição: %q. Por favor, analise e comente sobre a imagem baseado na descrição fornecida.", caption)
	}

	user := e.userTurn(content)
	user.ImageURL = e.putMedia(ctx, file.KindImage, in.FileName, in.ContentType, in.Data)

	turns, _, err := e.exchange(ctx, user, prompt, false, ImageApologyReply)
	return turns, err
}

// exchange 追加用户消息、调用模型、追加回复
// 客户端断开后仍然完成并保存回复
func (e *Engine) exchange(ctx context.Context, user model.ChatMessage, prompt string, split bool, apology string) ([]model.ChatMessage, bool, error) {
	ctx = context.WithoutCancel(ctx)

	history, saveErr := e.appendTurns(ctx, user)
	if storage.IsLoadError(saveErr) {
		return nil, false, saveErr
	}
	e.recordMessage(ctx, e.agent.ID, user.Timestamp)

	var replies []model.ChatMessage
	reply, err := e.reply(ctx, history, prompt)
	replied := err == nil
	if err != nil {
		slog.Error("agent reply failed", "agent", e.agent.ID, "error", err)
		replies = []model.ChatMessage{e.agentTurn(apology, "")}
	} else {
		chunks := []string{reply}
		if split {
			chunks = SplitReply(reply, e.deps.Settings.MaxChunkChars)
		}
		for _, chunk := range chunks {
			content, imageURL := ExtractImage(chunk)
			replies = append(replies, e.agentTurn(content, imageURL))
		}
		if len(replies) == 0 {
			replies = []model.ChatMessage{e.agentTurn(llm.FallbackReply, "")}
		}
	}

	if _, err := e.appendTurns(ctx, replies...); err != nil && saveErr == nil {
		saveErr = err
	}
	return append([]model.ChatMessage{user}, replies...), replied, saveErr
}

func (e *Engine) reply(ctx context.Context, history []model.ChatMessage, prompt string) (string, error) {
	if e.deps.Replier == nil {
		return "", errors.New("no language model configured")
	}
	profile := e.profile
	return e.deps.Replier.Reply(ctx, llm.ReplyRequest{
		Agent:   e.agent,
		Profile: &profile,
		History: ToSchema(history),
		Message: WithTimeTag(e.deps.Now(), prompt),
	})
}

// putMedia 保存媒体文件，失败时只记录日志
func (e *Engine) putMedia(ctx context.Context, kind, fileName, contentType string, data []byte) string {
	if e.deps.Media == nil || len(data) == 0 {
		return ""
	}
	owner := e.ns.UserID()
	url, err := e.deps.Media.Put(ctx, owner, kind, fileName, contentType, data)
	if err != nil {
		slog.Warn("store media failed", "kind", kind, "error", err)
		return ""
	}
	return url
}
