// Package image 调用图片生成服务
package image

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/walter2161/grupo-de-agentes/internal/config"
)

// ErrDisabled 未配置图片生成
var ErrDisabled = errors.New("image generation disabled")

// Style 图片风格
type Style string

const (
	StyleRealistic    Style = "realistic"
	StyleArtistic     Style = "artistic"
	StyleCartoon      Style = "cartoon"
	StyleAnime        Style = "anime"
	StylePhotographic Style = "photographic"
)

// AspectRatio 宽高比
type AspectRatio string

const (
	Ratio1x1  AspectRatio = "1:1"
	Ratio16x9 AspectRatio = "16:9"
	Ratio9x16 AspectRatio = "9:16"
	Ratio4x3  AspectRatio = "4:3"
	Ratio3x4  AspectRatio = "3:4"
)

// Quality 画质
type Quality string

const (
	QualityStandard Quality = "standard"
	QualityHD       Quality = "hd"
)

// Request 生成请求
type Request struct {
	Prompt      string
	Style       Style
	AspectRatio AspectRatio
	Quality     Quality
}

// Result 生成结果
type Result struct {
	URL       string    `json:"image_url"`
	Prompt    string    `json:"prompt"`
	Timestamp time.Time `json:"timestamp"`
}

// Artistic 艺术创作预设，1:1 高清
func Artistic(prompt string) Request {
	return Request{Prompt: prompt, Style: StyleArtistic, AspectRatio: Ratio1x1, Quality: QualityHD}
}

// Photographic 摄影预设，16:9 高清
func Photographic(prompt string) Request {
	return Request{Prompt: prompt, Style: StylePhotographic, AspectRatio: Ratio16x9, Quality: QualityHD}
}

// Generator 图片生成服务
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Disabled 未配置时使用
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) (*Result, error) {
	return nil, ErrDisabled
}

// OpenAIGenerator 基于 OpenAI 图片接口的生成器
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

// NewOpenAIGenerator 创建生成器
func NewOpenAIGenerator(cfg config.ImageConfig) *OpenAIGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		now:    time.Now,
	}
}

// NewGenerator 按配置返回生成器，未启用时返回 Disabled
func NewGenerator(cfg config.ImageConfig) Generator {
	if !cfg.Enabled || cfg.APIKey == "" {
		return Disabled{}
	}
	return NewOpenAIGenerator(cfg)
}

// Generate 生成图片
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("empty image prompt")
	}

	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		N:              1,
		Size:           sizeFor(req.AspectRatio),
		Quality:        qualityFor(req.Quality),
		Style:          styleFor(req.Style),
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, errors.New("image service returned no url")
	}

	return &Result{
		URL:       resp.Data[0].URL,
		Prompt:    prompt,
		Timestamp: g.now(),
	}, nil
}

// sizeFor 将宽高比映射为接口支持的尺寸
func sizeFor(ratio AspectRatio) string {
	switch ratio {
	case Ratio16x9, Ratio4x3:
		return "1792x1024"
	case Ratio9x16, Ratio3x4:
		return "1024x1792"
	default:
		return "1024x1024"
	}
}

func qualityFor(q Quality) string {
	if q == QualityHD {
		return "hd"
	}
	return "standard"
}

func styleFor(s Style) string {
	switch s {
	case StylePhotographic, StyleRealistic:
		return "natural"
	default:
		return "vivid"
	}
}
