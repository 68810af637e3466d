package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/walter2161/grupo-de-agentes/internal/config"
	"github.com/walter2161/grupo-de-agentes/internal/identity"
	"github.com/walter2161/grupo-de-agentes/internal/service/workspace"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

func testConfig(t *testing.T, local string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Storage.Local = local
	cfg.Storage.SQLitePath = filepath.Join(dir, "chathy.db")
	cfg.Session.TokenFile = filepath.Join(dir, "session.json")
	cfg.Media.BasePath = filepath.Join(dir, "files")
	cfg.AI.OpenAI.APIKey = ""
	return cfg
}

func TestNewAndRegister(t *testing.T) {
	for _, local := range []string{"memory", "sqlite"} {
		t.Run(local, func(t *testing.T) {
			ctx := context.Background()
			a, err := New(ctx, testConfig(t, local), Options{})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer a.Close()

			res, err := a.Identity.Register(ctx, identity.NewSession(), "ana@x.com", "Ana", "segredo1")
			if err != nil || !res.Success {
				t.Fatalf("Register() = %+v, %v", res, err)
			}

			ws := a.Services.Workspaces.Get(res.User.ID)
			if got := ws.Profile(ctx).Name; got != "Ana" {
				t.Errorf("profile name = %q, want Ana", got)
			}

			// 未配置 API key 时回复降级为致歉消息
			eng, err := ws.AgentChat(ctx, "dr-silva")
			if err != nil {
				t.Fatal(err)
			}
			turns, err := eng.Send(ctx, "Oi")
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if len(turns) != 2 || !strings.Contains(turns[1].Content, "Desculpe") {
				t.Errorf("turns = %+v", turns)
			}
		})
	}
}

func TestSQLiteSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "sqlite")

	a, err := New(ctx, cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	res, err := a.Identity.Register(ctx, identity.NewSession(), "ana@x.com", "Ana", "segredo1")
	if err != nil || !res.Success {
		t.Fatalf("Register() = %+v, %v", res, err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	a, err = New(ctx, cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	login, err := a.Identity.Login(ctx, identity.NewSession(), "ana@x.com", "segredo1")
	if err != nil || !login.Success {
		t.Fatalf("Login() after restart = %+v, %v", login, err)
	}
}

func TestServerEvictionStaysPerUser(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "memory")
	cfg.Storage.Capacity = 64 << 10
	a, err := New(ctx, cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	register := func(email, name string) string {
		res, err := a.Identity.Register(ctx, identity.NewSession(), email, name, "segredo1")
		if err != nil || !res.Success {
			t.Fatalf("Register(%s) = %+v, %v", email, res, err)
		}
		return res.User.ID
	}

	aliceID := register("alice@x.com", "Alice")
	if _, err := a.Services.Workspaces.Get(aliceID).CreateAgent(ctx, workspace.AgentInput{Name: "Bia", Title: "Nutricionista"}); err != nil {
		t.Fatalf("alice CreateAgent() error = %v", err)
	}

	// bob 创建大智能体直到超出自己的容量
	bobID := register("bob@x.com", "Bob")
	bob := a.Services.Workspaces.Get(bobID)
	var capErr *storage.CapacityError
	for i := 0; i < 20; i++ {
		_, err := bob.CreateAgent(ctx, workspace.AgentInput{
			Name:          fmt.Sprintf("Grande %d", i),
			Title:         "Arquivo",
			Documentation: strings.Repeat("d", 8<<10),
		})
		if err != nil {
			if !errors.As(err, &capErr) {
				t.Fatalf("bob CreateAgent() error = %v, want CapacityError", err)
			}
			break
		}
	}
	if capErr == nil {
		t.Fatal("bob never reached the per-user capacity")
	}

	a.Services.Workspaces.Forget(aliceID)
	fresh := a.Services.Workspaces.Get(aliceID)
	if got := len(fresh.Agents(ctx)); got != 5 {
		t.Errorf("alice agents after bob's writes = %d, want 5", got)
	}
	if got := fresh.Profile(ctx).Name; got != "Alice" {
		t.Errorf("alice profile name = %q, want Alice", got)
	}
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	cfg := &config.Config{App: config.AppConfig{Name: "chathy"}}
	SetupLogger(cfg, &buf)
	slog.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), `"msg":"hello"`) || !strings.Contains(buf.String(), `"app":"chathy"`) {
		t.Errorf("log = %s", buf.String())
	}
}
