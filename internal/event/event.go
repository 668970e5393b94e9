package event

import (
	"encoding/json"
	"time"
)

// 实时通道事件类型
const (
	TypeJoinChat    = "joinChat"
	TypeLeaveChat   = "leaveChat"
	TypeSendMessage = "sendMessage"
	TypeMessage     = "message"
	TypeMatched     = "matched"
	TypeError       = "error"
)

// Envelope 实时通道统一信封 {type, data}
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MessageEvent 房间消息事件（出站）
type MessageEvent struct {
	ChatID string    `json:"chatId"`
	From   string    `json:"from"`
	Text   string    `json:"text"`
	Ts     time.Time `json:"ts"`
}

// MatchedEvent 新匹配事件（私有通知通道）
type MatchedEvent struct {
	With    string `json:"with"`
	MatchID string `json:"matchId"`
}

// ErrorEvent 入站事件处理失败的回执
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SendMessagePayload 入站 sendMessage 负载
type SendMessagePayload struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

// Marshal 编码事件信封
func Marshal(typ string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: typ, Data: raw})
}
