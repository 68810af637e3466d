package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/walter2161/grupo-de-agentes/internal/config"
	domain "github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/service/image"
	"github.com/walter2161/grupo-de-agentes/internal/testutil"
)

type fakeImages struct {
	reqs []image.Request
	err  error
}

func (f *fakeImages) Generate(_ context.Context, req image.Request) (*image.Result, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &image.Result{URL: "https://img.example/" + string(req.Style) + ".png", Prompt: req.Prompt}, nil
}

func silva() domain.Agent {
	a, _ := domain.FindAgent(domain.DefaultAgents(), "dr-silva")
	return a
}

func TestFormatDatePT(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	got := FormatDatePT(time.Date(2026, 10, 19, 14, 5, 0, 0, loc))
	want := "segunda-feira, 19 de outubro de 2026 às 14:05 BRT"
	if got != want {
		t.Errorf("FormatDatePT() = %q, want %q", got, want)
	}
}

func TestSystemPrompt(t *testing.T) {
	agent := silva()
	agent.Documentation = "Protocolos de triagem"
	profile := &domain.UserProfile{Name: "Ana", Email: "ana@x.com"}

	prompt := SystemPrompt(agent, profile, time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"Você é Dr. Silva, Clínico Geral.",
		"Nome: Ana",
		"Bio: Não informado",
		"SUA ESPECIALIDADE: Saúde",
		agent.Guidelines,
		agent.PersonaStyle,
		"CONHECIMENTO ESPECÍFICO:\nProtocolos de triagem",
		"quinta-feira, 1 de janeiro de 2026",
		"no máximo 800 caracteres",
		"1. Responda sempre como Dr. Silva",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	anon := SystemPrompt(agent, nil, time.Now())
	if strings.Contains(anon, "INFORMAÇÕES DO USUÁRIO") {
		t.Error("prompt without profile should not include user block")
	}
}

func TestReply(t *testing.T) {
	cm := testutil.NewFakeChatModel("  Olá Ana, tudo bem?  ")
	r := NewResponder(cm, nil, Options{})

	history := []*schema.Message{schema.AssistantMessage("Bem-vinda!", nil)}
	got, err := r.Reply(context.Background(), ReplyRequest{
		Agent:   silva(),
		Profile: &domain.UserProfile{Name: "Ana"},
		History: history,
		Message: "Oi",
	})
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if got != "Olá Ana, tudo bem?" {
		t.Errorf("Reply() = %q", got)
	}

	msgs := cm.Call(0)
	if len(msgs) != 3 || msgs[0].Role != schema.System || msgs[1].Role != schema.Assistant || msgs[2].Content != "Oi" {
		t.Errorf("messages = %v", msgs)
	}
	opts := cm.Options(0)
	if opts.Temperature == nil || *opts.Temperature != 0.7 || opts.MaxTokens == nil || *opts.MaxTokens != 500 {
		t.Errorf("options = %+v", opts)
	}
}

func TestReplyEmptyAndError(t *testing.T) {
	r := NewResponder(testutil.NewFakeChatModel("   "), nil, Options{})
	got, err := r.Reply(context.Background(), ReplyRequest{Agent: silva(), Message: "Oi"})
	if err != nil || got != FallbackReply {
		t.Errorf("Reply() = %q, %v; want fallback", got, err)
	}

	boom := errors.New("upstream down")
	r = NewResponder(&testutil.FakeChatModel{Err: boom}, nil, Options{})
	if _, err := r.Reply(context.Background(), ReplyRequest{Agent: silva(), Message: "Oi"}); !errors.Is(err, boom) {
		t.Errorf("Reply() error = %v, want %v", err, boom)
	}
}

func TestResolveDirectives(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		imgErr    error
		want      string
		wantStyle image.Style
	}{
		{
			name:      "generate",
			content:   "Aqui está! [GENERATE_IMAGE: um robô futurista]",
			want:      "Aqui está!\n\n[IMAGE_SENT:https://img.example/artistic.png]",
			wantStyle: image.StyleArtistic,
		},
		{
			name:      "send in portuguese",
			content:   "Veja: [ENVIAR_IMAGEM: praia de Copacabana]",
			want:      "Veja:\n\n[IMAGE_SENT:https://img.example/photographic.png]",
			wantStyle: image.StylePhotographic,
		},
		{
			name:    "failure replaced",
			content: "Claro! [SEND_IMAGE: gato]",
			imgErr:  errors.New("quota"),
			want:    "Claro! " + ImageFailureReply,
		},
		{
			name:    "no directive",
			content: "Sem imagem hoje.",
			want:    "Sem imagem hoje.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := &fakeImages{err: tt.imgErr}
			cm := testutil.NewFakeChatModel("optimized prompt")
			r := NewResponder(cm, images, Options{})

			got := r.ResolveDirectives(context.Background(), silva(), tt.content)
			if got != tt.want {
				t.Errorf("ResolveDirectives() = %q, want %q", got, tt.want)
			}
			if tt.wantStyle != "" {
				if len(images.reqs) != 1 || images.reqs[0].Style != tt.wantStyle || images.reqs[0].Prompt != "optimized prompt" {
					t.Errorf("image requests = %+v", images.reqs)
				}
			}
		})
	}
}

func TestOptimizePromptFallback(t *testing.T) {
	r := NewResponder(&testutil.FakeChatModel{Err: errors.New("down")}, nil, Options{})
	if got := r.OptimizePrompt(context.Background(), silva(), "um gato"); got != "um gato" {
		t.Errorf("OptimizePrompt() = %q, want original request", got)
	}

	cm := testutil.NewFakeChatModel(`"a cat, watercolor"`)
	r = NewResponder(cm, nil, Options{})
	if got := r.OptimizePrompt(context.Background(), silva(), "um gato"); got != "a cat, watercolor" {
		t.Errorf("OptimizePrompt() = %q", got)
	}
	user := cm.Call(0)[1].Content
	if !strings.Contains(user, `Personalidade do agente: "Dr. Silva - Saúde"`) {
		t.Errorf("optimizer user message = %q", user)
	}
}

func TestNewChatModelProviders(t *testing.T) {
	ctx := context.Background()
	if _, err := NewChatModel(ctx, config.AIConfig{Provider: "unknown"}); err == nil {
		t.Error("unknown provider should fail")
	}
	if _, err := NewChatModel(ctx, config.AIConfig{Provider: "openai"}); err == nil {
		t.Error("missing api key should fail")
	}
	cm, err := NewChatModel(ctx, config.AIConfig{
		Provider: "deepseek",
		DeepSeek: config.DeepSeekConfig{APIKey: "k", BaseURL: "https://api.deepseek.com/v1", Model: "deepseek-chat"},
	})
	if err != nil || cm == nil {
		t.Errorf("NewChatModel(deepseek) = %v, %v", cm, err)
	}
}
