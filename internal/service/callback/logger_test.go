package callback

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLoggerRecordsUsage(t *testing.T) {
	buf := captureLogs(t)
	l := NewLogger(true)
	info := &callbacks.RunInfo{Name: "agent-reply", Component: "ChatModel"}

	ctx := l.OnStart(context.Background(), info, &model.CallbackInput{
		Messages: []*schema.Message{schema.UserMessage("Oi")},
	})
	if _, ok := ctx.Value(startKey{}).(time.Time); !ok {
		t.Fatal("OnStart should record start time")
	}
	l.OnEnd(ctx, info, &model.CallbackOutput{
		Message:    schema.AssistantMessage("Olá", nil),
		TokenUsage: &model.TokenUsage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15},
	})

	out := buf.String()
	for _, want := range []string{"model call started", "messages=1", "run=agent-reply", "prompt_tokens=12", "completion_tokens=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestLoggerQuietStartAndErrors(t *testing.T) {
	buf := captureLogs(t)
	l := NewLogger(false)
	info := &callbacks.RunInfo{Name: "group-reply", Component: "ChatModel"}

	ctx := l.OnStart(context.Background(), info, &model.CallbackInput{})
	l.OnError(ctx, info, errors.New("rate limited"))

	out := buf.String()
	if strings.Contains(out, "model call started") {
		t.Errorf("start should only be logged in debug mode:\n%s", out)
	}
	if !strings.Contains(out, "model call failed") || !strings.Contains(out, "rate limited") {
		t.Errorf("error not logged:\n%s", out)
	}
}

func TestSince(t *testing.T) {
	if got := since(context.Background()); got != 0 {
		t.Errorf("since() without start = %v, want 0", got)
	}
}
