package chat

import "errors"

// ErrBusy 同一对话已有消息在处理中
var ErrBusy = errors.New("conversation is busy")

// ValidationError 输入校验失败，对话状态未被修改
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// 回复失败时追加的提示
const (
	ApologyReply      = "Desculpe, houve um problema técnico. Vamos tentar novamente?"
	ImageApologyReply = "Desculpe, tive dificuldades para processar a imagem. Você pode tentar novamente?"
	// DailyLimitMessage 超出每日消息上限
	DailyLimitMessage = "Você atingiu o limite diário de mensagens com este agente. Volte amanhã!"
)

// SystemSenderName 系统消息的发送者名称
const SystemSenderName = "Sistema"
