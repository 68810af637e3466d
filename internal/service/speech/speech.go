// Package speech 提供语音转写与语音合成
// 未配置时使用 Disabled，调用方将空结果视为功能不可用
package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/walter2161/grupo-de-agentes/internal/config"
)

// DefaultLanguage 转写语言
const DefaultLanguage = "pt"

// Transcriber 语音转文字
// 返回空字符串表示无法转写
type Transcriber interface {
	Transcribe(ctx context.Context, fileName string, audio []byte) (string, error)
}

// Synthesizer 文字转语音
// 返回 nil 表示不可用
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Disabled 未启用语音时的实现
type Disabled struct{}

func (Disabled) Transcribe(context.Context, string, []byte) (string, error) { return "", nil }

func (Disabled) Synthesize(context.Context, string) ([]byte, error) { return nil, nil }

// OpenAI 基于 Whisper 与 TTS 的实现
type OpenAI struct {
	client   *openai.Client
	voice    string
	language string
}

// NewOpenAI 创建语音服务
func NewOpenAI(cfg config.SpeechConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	voice := cfg.Voice
	if voice == "" {
		voice = string(openai.VoiceNova)
	}
	return &OpenAI{
		client:   openai.NewClientWithConfig(clientCfg),
		voice:    voice,
		language: DefaultLanguage,
	}
}

// New 按配置返回转写与合成实现
func New(cfg config.SpeechConfig) (Transcriber, Synthesizer) {
	if !cfg.Enabled || cfg.APIKey == "" {
		return Disabled{}, Disabled{}
	}
	s := NewOpenAI(cfg)
	return s, s
}

// Transcribe 转写音频
func (s *OpenAI) Transcribe(ctx context.Context, fileName string, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}
	if filepath.Ext(fileName) == "" {
		fileName += ".webm"
	}

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audio),
		FilePath: fileName,
		Language: s.language,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// Synthesize 合成 mp3 音频
func (s *OpenAI) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech audio: %w", err)
	}
	return data, nil
}
