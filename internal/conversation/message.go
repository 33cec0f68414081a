package conversation

// Reserved command that wipes a user's session and history.
const restartCommand = "/restart"

// Reply types on outbound messages.
const (
	MessageTypeText  = "text"
	MessageTypeError = "error"
)

// InboundMessage is one user chat message pulled off the inbound queue.
// Token, when present, authenticates backend calls made on the user's behalf
// and is passed through opaquely.
type InboundMessage struct {
	UserID    string `json:"userId"`
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
	Token     string `json:"token,omitempty"`
}

// OutboundMessage is the single reply produced for an inbound message.
// FunctionName and RawResult are set only when a tool invocation was routed.
type OutboundMessage struct {
	UserID       string `json:"userId"`
	MessageID    string `json:"messageId"`
	ReplyTo      string `json:"replyTo"`
	Content      string `json:"content"`
	Type         string `json:"type"`
	FunctionName string `json:"functionName,omitempty"`
	RawResult    any    `json:"rawResult,omitempty"`
}

func replyID(messageID string) string {
	return "reply-" + messageID
}
