package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/walter2161/grupo-de-agentes/internal/model"
)

// MaxReplyChars 提示模型遵守的回复长度
const MaxReplyChars = 800

var (
	weekdaysPT = [...]string{"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"}
	monthsPT   = [...]string{"janeiro", "fevereiro", "março", "abril", "maio", "junho", "julho", "agosto", "setembro", "outubro", "novembro", "dezembro"}
)

// FormatDatePT 以巴西葡语格式输出日期时间
// 例如 "segunda-feira, 19 de outubro de 2026 às 14:05 BRT"
func FormatDatePT(t time.Time) string {
	return fmt.Sprintf("%s, %d de %s de %d às %02d:%02d %s",
		weekdaysPT[t.Weekday()], t.Day(), monthsPT[t.Month()-1], t.Year(),
		t.Hour(), t.Minute(), t.Format("MST"))
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// SystemPrompt 根据智能体全部字段、用户资料和当前时间构造系统提示词
func SystemPrompt(agent model.Agent, profile *model.UserProfile, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Você é %s, %s.\n\n", agent.Name, agent.Title)

	if profile != nil && profile.Name != "" {
		b.WriteString("INFORMAÇÕES DO USUÁRIO QUE VOCÊ ESTÁ ATENDENDO:\n")
		fmt.Fprintf(&b, "Nome: %s\n", profile.Name)
		fmt.Fprintf(&b, "Bio: %s\n", orDefault(profile.Bio, "Não informado"))
		fmt.Fprintf(&b, "Email: %s\n", orDefault(profile.Email, "Não informado"))
		b.WriteString("Adapte sua comunicação ao perfil do usuário e trate-o pelo nome sempre que apropriado.\n\n")
	}

	fmt.Fprintf(&b, "SUA ESPECIALIDADE: %s\n", agent.Specialty)
	fmt.Fprintf(&b, "SUA EXPERIÊNCIA: %s\n", agent.Experience)
	fmt.Fprintf(&b, "SUA ABORDAGEM: %s\n", agent.Approach)
	fmt.Fprintf(&b, "SUA DESCRIÇÃO: %s\n\n", agent.Description)

	fmt.Fprintf(&b, "DIRETRIZES IMPORTANTES:\n%s\n\n", agent.Guidelines)
	fmt.Fprintf(&b, "ESTILO DE PERSONALIDADE:\n%s\n\n", agent.PersonaStyle)
	if agent.Documentation != "" {
		fmt.Fprintf(&b, "CONHECIMENTO ESPECÍFICO:\n%s\n\n", agent.Documentation)
	}

	b.WriteString(`CAPACIDADES ESPECIAIS DE IMAGEM:
- Você TEM ACESSO a um sistema de geração de imagens com IA integrado
- Quando o usuário pedir uma imagem criativa/personalizada, use: [GENERATE_IMAGE: descrição detalhada da imagem]
- Para enviar uma imagem realista, use: [SEND_IMAGE: descrição da imagem]
- Use GENERATE_IMAGE para criações artísticas únicas e SEND_IMAGE para representações fotográficas

`)

	b.WriteString("INFORMAÇÕES TEMPORAIS:\n")
	fmt.Fprintf(&b, "- Data e hora atual: %s\n", FormatDatePT(now))
	b.WriteString("- Use essas informações quando relevante para a conversa\n\n")

	b.WriteString("LIMITAÇÕES DE RESPOSTA:\n")
	fmt.Fprintf(&b, "- Mantenha suas respostas com no máximo %d caracteres\n", MaxReplyChars)
	b.WriteString("- Se precisar de mais espaço, seja conciso e vá direto ao ponto\n\n")

	b.WriteString("INSTRUÇÕES:\n")
	fmt.Fprintf(&b, "1. Responda sempre como %s\n", agent.Name)
	fmt.Fprintf(&b, "2. Use seu conhecimento especializado em %s\n", agent.Specialty)
	b.WriteString("3. Mantenha o tom profissional, mas acolhedor\n")
	b.WriteString("4. Se o usuário tiver nome, use-o na conversa de forma natural\n")
	b.WriteString("5. Seja empático e compreensivo\n")
	b.WriteString("6. Forneça respostas práticas e úteis\n")
	b.WriteString("7. QUANDO solicitado uma imagem, use o formato [GENERATE_IMAGE: descrição] ou [SEND_IMAGE: descrição]\n")
	b.WriteString("8. Se não souber algo específico, seja honesto sobre suas limitações\n\n")
	b.WriteString("Responda de forma natural e profissional:")

	return b.String()
}
