// Package callback 将模型调用事件写入 slog
package callback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type startKey struct{}

var _ callbacks.Handler = (*Logger)(nil)

// Logger 记录每次模型调用的耗时与 token 用量
// Debug 为 true 时额外记录调用开始
type Logger struct {
	Debug bool
}

// NewLogger 创建日志回调处理器
func NewLogger(debug bool) *Logger {
	return &Logger{Debug: debug}
}

func (l *Logger) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if l.Debug {
		attrs := []any{"run", info.Name, "component", info.Component}
		if in := model.ConvCallbackInput(input); in != nil {
			attrs = append(attrs, "messages", len(in.Messages))
		}
		slog.DebugContext(ctx, "model call started", attrs...)
	}
	return context.WithValue(ctx, startKey{}, time.Now())
}

func (l *Logger) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	attrs := []any{"run", info.Name, "component", info.Component, "latency", since(ctx)}
	if out := model.ConvCallbackOutput(output); out != nil && out.TokenUsage != nil {
		attrs = append(attrs,
			"prompt_tokens", out.TokenUsage.PromptTokens,
			"completion_tokens", out.TokenUsage.CompletionTokens,
		)
	}
	slog.InfoContext(ctx, "model call finished", attrs...)
	return ctx
}

func (l *Logger) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	slog.ErrorContext(ctx, "model call failed",
		"run", info.Name, "component", info.Component, "latency", since(ctx), "error", err)
	return ctx
}

// OnStartWithStreamInput 流必须由处理器关闭
func (l *Logger) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo, input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	input.Close()
	return context.WithValue(ctx, startKey{}, time.Now())
}

func (l *Logger) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo, output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	output.Close()
	slog.InfoContext(ctx, "model stream opened", "run", info.Name, "component", info.Component, "latency", since(ctx))
	return ctx
}

func since(ctx context.Context) time.Duration {
	start, ok := ctx.Value(startKey{}).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start)
}

var setupOnce sync.Once

// SetupGlobalCallbacks 注册全局日志回调，重复调用只生效一次
func SetupGlobalCallbacks(debug bool) {
	setupOnce.Do(func() {
		callbacks.AppendGlobalHandlers(NewLogger(debug))
	})
}

// WithRun 为直接调用的模型建立回调上下文，name 标识调用场景
func WithRun(ctx context.Context, name string) context.Context {
	return callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      name,
		Component: components.ComponentOfChatModel,
	})
}
