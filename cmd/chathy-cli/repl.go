package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/walter2161/grupo-de-agentes/internal/app"
	"github.com/walter2161/grupo-de-agentes/internal/identity"
	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/service/chat"
	"github.com/walter2161/grupo-de-agentes/internal/service/workspace"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

const helpText = `Comandos:
  /register <email> <senha> <nome>   criar conta
  /login <email> <senha>             entrar
  /logout                            sair (os dados ficam salvos)
  /whoami                            sessão atual
  /agents                            listar especialistas
  /groups                            listar grupos
  /chat <id>                         conversar com um especialista
  /group <id>                        conversar com um grupo
  /history                           mostrar a conversa atual
  /profile [nome]                    ver ou alterar o nome
  /stats                             interações de hoje
  /image <arquivo> [legenda]         enviar imagem
  /audio <arquivo>                   enviar áudio
  /help                              esta ajuda
  /quit                              sair do programa
Qualquer outro texto é enviado para a conversa atual.`

var errQuit = errors.New("quit")

// sender 当前打开的对话
type sender interface {
	Send(ctx context.Context, text string) ([]model.ChatMessage, error)
	Messages(ctx context.Context) []model.ChatMessage
}

// REPL 交互式命令行
type REPL struct {
	app  *app.App
	sess *identity.Session
	ws   *workspace.Workspace
	in   *bufio.Scanner
	out  io.Writer

	engine *chat.Engine
	group  *chat.GroupEngine
	title  string

	user   func(a ...interface{}) string
	agent  func(a ...interface{}) string
	system func(a ...interface{}) string
	fail   func(a ...interface{}) string
}

// NewREPL 创建命令行会话，初始为匿名
func NewREPL(a *app.App, in io.Reader, out io.Writer) *REPL {
	sess := identity.NewSession()
	return &REPL{
		app:    a,
		sess:   sess,
		ws:     a.Services.Workspace(sess),
		in:     bufio.NewScanner(in),
		out:    out,
		user:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		agent:  color.New(color.FgCyan, color.Bold).SprintFunc(),
		system: color.New(color.FgYellow).SprintFunc(),
		fail:   color.New(color.FgRed).SprintFunc(),
	}
}

// Run 读取输入直到 /quit、输入结束或 ctx 取消
func (r *REPL) Run(ctx context.Context) error {
	restored, err := r.app.Identity.Restore(ctx, r.sess)
	if err != nil {
		r.printf("%s\n", r.fail("Não foi possível restaurar a sessão: "+err.Error()))
	}
	if restored {
		if err := r.ws.Refresh(ctx); err != nil {
			return err
		}
	}

	r.printf("%s\n", r.user("Chathy - grupo de agentes"))
	r.whoami()
	r.printf("Digite /help para ver os comandos.\n\n")

	for {
		if ctx.Err() != nil {
			return nil
		}
		r.printf("%s", r.user(r.prompt()))
		if !r.in.Scan() {
			return r.in.Err()
		}
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}

		r.checkExpiry(ctx)
		if err := r.handle(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			r.printf("%s\n", r.fail(describe(err)))
		}
	}
}

func (r *REPL) prompt() string {
	if r.title != "" {
		return r.title + "> "
	}
	return "> "
}

func (r *REPL) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// checkExpiry 会话过期后回到匿名空间
func (r *REPL) checkExpiry(ctx context.Context) {
	expired, err := r.app.Identity.CheckExpiry(r.sess)
	if err != nil {
		r.printf("%s\n", r.fail(err.Error()))
	}
	if expired {
		r.printf("%s\n", r.system("Sua sessão expirou. Você está no modo visitante."))
		r.sessionChanged(ctx)
	}
}

// sessionChanged 命名空间变化后重新读取数据并关闭当前对话
func (r *REPL) sessionChanged(ctx context.Context) {
	r.engine, r.group, r.title = nil, nil, ""
	if err := r.ws.Refresh(ctx); err != nil {
		r.printf("%s\n", r.fail(err.Error()))
	}
}

func (r *REPL) handle(ctx context.Context, line string) error {
	if !strings.HasPrefix(line, "/") {
		return r.send(ctx, line)
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch cmd {
	case "/quit", "/exit":
		return errQuit
	case "/help":
		r.printf("%s\n", helpText)
	case "/register":
		if len(args) < 3 {
			return usageError("/register <email> <senha> <nome>")
		}
		res, err := r.app.Identity.Register(ctx, r.sess, args[0], strings.Join(args[2:], " "), args[1])
		return r.authResult(ctx, res, err)
	case "/login":
		if len(args) != 2 {
			return usageError("/login <email> <senha>")
		}
		res, err := r.app.Identity.Login(ctx, r.sess, args[0], args[1])
		return r.authResult(ctx, res, err)
	case "/logout":
		if r.sess.State() != identity.StateAuthenticated {
			r.printf("%s\n", r.system("Você não está conectado."))
			return nil
		}
		err := r.app.Identity.Logout(ctx, r.sess)
		r.sessionChanged(ctx)
		r.printf("%s\n", r.system("Até logo!"))
		return err
	case "/whoami":
		r.whoami()
	case "/agents":
		r.listAgents(ctx)
	case "/groups":
		r.listGroups(ctx)
	case "/chat":
		if len(args) != 1 {
			return usageError("/chat <id>")
		}
		return r.openAgent(ctx, args[0])
	case "/group":
		if len(args) != 1 {
			return usageError("/group <id>")
		}
		return r.openGroup(ctx, args[0])
	case "/history":
		conv, err := r.current()
		if err != nil {
			return err
		}
		r.printMessages(conv.Messages(ctx))
	case "/profile":
		return r.profile(ctx, rest)
	case "/stats":
		r.stats(ctx)
	case "/image":
		if len(args) < 1 {
			return usageError("/image <arquivo> [legenda]")
		}
		caption := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
		return r.sendImage(ctx, args[0], caption)
	case "/audio":
		if len(args) != 1 {
			return usageError("/audio <arquivo>")
		}
		return r.sendAudio(ctx, args[0])
	default:
		return fmt.Errorf("comando desconhecido: %s (digite /help)", cmd)
	}
	return nil
}

func (r *REPL) authResult(ctx context.Context, res *identity.AuthResult, err error) error {
	if err != nil {
		return err
	}
	if !res.Success {
		return errors.New(res.Message)
	}
	r.sessionChanged(ctx)
	r.printf("%s\n", r.system(fmt.Sprintf("Olá, %s!", res.User.Name)))
	return nil
}

func (r *REPL) whoami() {
	user := r.sess.User()
	if user == nil {
		r.printf("%s\n", r.system("Modo visitante (dados salvos apenas neste dispositivo)."))
		return
	}
	r.printf("%s\n", r.system(fmt.Sprintf("Conectado como %s <%s>, sessão válida até %s",
		user.Name, user.Email, r.sess.ExpiresAt().Format("02/01/2006 15:04"))))
}

func (r *REPL) listAgents(ctx context.Context) {
	for _, a := range r.ws.Agents(ctx) {
		r.printf("  %s %s  %s - %s\n", a.Icon, r.agent(a.ID), a.Name, a.Title)
	}
}

func (r *REPL) listGroups(ctx context.Context) {
	for _, g := range r.ws.Groups(ctx) {
		r.printf("  %s %s  %s (%d membros)\n", g.Icon, r.agent(g.ID), g.Name, len(g.Members))
	}
}

func (r *REPL) openAgent(ctx context.Context, id string) error {
	eng, err := r.ws.AgentChat(ctx, id)
	if eng == nil || storage.IsLoadError(err) {
		return err
	}
	if err != nil {
		r.printf("%s\n", r.fail(describe(err)))
	}
	r.engine, r.group = eng, nil
	r.title = eng.Agent().Name
	r.printMessages(eng.Messages(ctx))
	return nil
}

func (r *REPL) openGroup(ctx context.Context, id string) error {
	eng, err := r.ws.GroupChat(ctx, id)
	if eng == nil || storage.IsLoadError(err) {
		return err
	}
	if err != nil {
		r.printf("%s\n", r.fail(describe(err)))
	}
	r.engine, r.group = nil, eng
	g, _ := r.ws.Group(ctx, id)
	r.title = g.Name
	r.printMessages(eng.Messages(ctx))
	return nil
}

func (r *REPL) current() (sender, error) {
	switch {
	case r.engine != nil:
		return r.engine, nil
	case r.group != nil:
		return r.group, nil
	default:
		return nil, errors.New("nenhuma conversa aberta (use /chat <id> ou /group <id>)")
	}
}

func (r *REPL) send(ctx context.Context, text string) error {
	conv, err := r.current()
	if err != nil {
		return err
	}
	turns, err := conv.Send(ctx, text)
	r.printMessages(skipUser(turns))
	return err
}

func (r *REPL) sendImage(ctx context.Context, path, caption string) error {
	if r.engine == nil {
		return errors.New("imagens só podem ser enviadas em conversas individuais")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	turns, err := r.engine.SendImage(ctx, chat.ImageInput{
		FileName:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Data:        data,
		Caption:     caption,
	})
	// 图片消息只有在这里才能看到存储地址
	r.printMessages(turns)
	return err
}

func (r *REPL) sendAudio(ctx context.Context, path string) error {
	if r.engine == nil {
		return errors.New("áudios só podem ser enviados em conversas individuais")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	res, err := r.engine.SendAudio(ctx, chat.AudioInput{
		FileName:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Data:        data,
	})
	if err != nil {
		return err
	}
	if res.Unavailable {
		r.printf("%s\n", r.system("Não foi possível transcrever o áudio."))
		return nil
	}
	r.printf("%s %s\n", r.system("Transcrição:"), res.Transcript)
	r.printMessages(skipUser(res.Turns))
	if res.ReplyAudioURL != "" {
		r.printf("%s %s\n", r.system("Áudio da resposta:"), res.ReplyAudioURL)
	}
	return nil
}

func (r *REPL) profile(ctx context.Context, name string) error {
	if name != "" {
		if _, err := r.ws.UpdateProfile(ctx, workspace.ProfileUpdate{Name: &name}); err != nil {
			return err
		}
	}
	p := r.ws.Profile(ctx)
	r.printf("  Nome: %s\n  E-mail: %s\n  Tema: %s\n", p.Name, p.Email, p.Prefs().Theme)
	return nil
}

func (r *REPL) stats(ctx context.Context) {
	rows := r.ws.Interactions(ctx)
	if len(rows) == 0 {
		r.printf("%s\n", r.system("Nenhuma interação ainda."))
		return
	}
	for _, row := range rows {
		r.printf("  %s: %d mensagens hoje\n", r.agent(row.AgentID), row.MessagesToday)
	}
}

func (r *REPL) printMessages(msgs []model.ChatMessage) {
	for _, m := range msgs {
		switch {
		case m.Sender == model.SenderUser:
			r.printf("%s %s\n", r.user("Você:"), m.Content)
		case m.SenderName == chat.SystemSenderName:
			r.printf("%s\n", r.system(m.Content))
		default:
			r.printf("%s %s\n", r.agent(m.SenderName+":"), m.Content)
		}
		if m.ImageURL != "" {
			r.printf("  [imagem] %s\n", m.ImageURL)
		}
		if m.AudioURL != "" {
			r.printf("  [áudio] %s\n", m.AudioURL)
		}
	}
}

// skipUser 用户刚输入的内容不再回显
func skipUser(turns []model.ChatMessage) []model.ChatMessage {
	out := turns[:0:0]
	for _, m := range turns {
		if m.Sender != model.SenderUser {
			out = append(out, m)
		}
	}
	return out
}

func usageError(usage string) error {
	return errors.New("uso: " + usage)
}

func describe(err error) string {
	var verr *chat.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, chat.ErrBusy):
		return "Aguarde a resposta anterior."
	case errors.Is(err, workspace.ErrAgentNotFound):
		return "Especialista não encontrado."
	case errors.Is(err, workspace.ErrGroupNotFound):
		return "Grupo não encontrado."
	case storage.IsLoadError(err):
		return "Não foi possível carregar a conversa. Tente novamente."
	}
	return err.Error()
}
