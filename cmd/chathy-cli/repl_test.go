package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/walter2161/grupo-de-agentes/internal/app"
	"github.com/walter2161/grupo-de-agentes/internal/config"
	"github.com/walter2161/grupo-de-agentes/internal/identity"
)

func newTestApp(t *testing.T, store identity.SessionStore) *app.App {
	t.Helper()
	color.NoColor = true

	dir := t.TempDir()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Storage.Local = "memory"
	cfg.Session.JWTSecret = "test-secret"
	cfg.Session.TokenFile = filepath.Join(dir, "session.json")
	cfg.Media.BasePath = filepath.Join(dir, "files")
	cfg.AI.OpenAI.APIKey = ""

	a, err := app.New(context.Background(), cfg, app.Options{SessionStore: store})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func run(t *testing.T, a *app.App, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	if err := NewREPL(a, in, &out).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return out.String()
}

func TestREPLCommands(t *testing.T) {
	a := newTestApp(t, &identity.MemorySessionStore{})

	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "help",
			lines: []string{"/help"},
			want:  []string{"/register", "/quit"},
		},
		{
			name:  "lists defaults",
			lines: []string{"/agents", "/groups"},
			want:  []string{"dr-silva", "Marina"},
		},
		{
			name:  "send without conversation",
			lines: []string{"Oi"},
			want:  []string{"nenhuma conversa aberta"},
		},
		{
			name:  "unknown agent",
			lines: []string{"/chat nobody"},
			want:  []string{"Especialista não encontrado."},
		},
		{
			name:  "unknown command",
			lines: []string{"/dance"},
			want:  []string{"comando desconhecido: /dance"},
		},
		{
			name:  "usage",
			lines: []string{"/login only-email"},
			want:  []string{"uso: /login"},
		},
		{
			name:  "guest",
			lines: []string{"/whoami"},
			want:  []string{"Modo visitante"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := run(t, a, append(tt.lines, "/quit")...)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestREPLChat(t *testing.T) {
	a := newTestApp(t, &identity.MemorySessionStore{})

	out := run(t, a,
		"/chat dr-silva",
		"Olá doutor",
		"",
		"/history",
		"/stats",
		"/quit",
	)

	// 欢迎消息、致歉回复与历史
	if !strings.Contains(out, "Como posso te ajudar hoje?") {
		t.Errorf("missing welcome message:\n%s", out)
	}
	if !strings.Contains(out, "Desculpe") {
		t.Errorf("missing reply:\n%s", out)
	}
	if !strings.Contains(out, "Você: Olá doutor") {
		t.Errorf("history missing user message:\n%s", out)
	}
	if !strings.Contains(out, "dr-silva: 1 mensagens hoje") {
		t.Errorf("stats missing interaction:\n%s", out)
	}
}

func TestREPLSessionLifecycle(t *testing.T) {
	store := &identity.MemorySessionStore{}
	a := newTestApp(t, store)

	out := run(t, a,
		"/register ana@x.com segredo1 Ana Maria",
		"/whoami",
		"/profile Ana M.",
		"/quit",
	)
	for _, w := range []string{"Olá, Ana Maria!", "Conectado como Ana Maria <ana@x.com>", "Nome: Ana M."} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}

	// 新进程从保存的会话恢复
	out = run(t, a, "/profile", "/logout", "/whoami", "/quit")
	for _, w := range []string{"Conectado como", "Nome: Ana M.", "Até logo!", "Modo visitante"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}

	out = run(t, a, "/login ana@x.com errada", "/quit")
	if strings.Contains(out, "Olá, Ana") {
		t.Errorf("login with wrong password succeeded:\n%s", out)
	}
	if !strings.Contains(out, "Modo visitante") {
		t.Errorf("session should not be restored after logout:\n%s", out)
	}
}

func TestREPLImage(t *testing.T) {
	a := newTestApp(t, &identity.MemorySessionStore{})

	path := filepath.Join(t.TempDir(), "foto.png")
	if err := os.WriteFile(path, []byte("\x89PNG fake"), 0o600); err != nil {
		t.Fatal(err)
	}

	out := run(t, a, "/image "+path, "/chat dr-silva", "/image "+path+" minha foto", "/quit")
	if !strings.Contains(out, "imagens só podem ser enviadas") {
		t.Errorf("image without conversation should fail:\n%s", out)
	}
	if !strings.Contains(out, "Você: [Imagem enviada: minha foto]") || !strings.Contains(out, "[imagem] ") {
		t.Errorf("image message not shown:\n%s", out)
	}
}
