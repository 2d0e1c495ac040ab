package chat

import "time"

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Valid reports whether the sender is one of the two known values.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAgent
}

// MessageType distinguishes typed from dictated input.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeVoice MessageType = "voice"
)

// Valid reports whether the message type is one of the known values.
func (t MessageType) Valid() bool {
	return t == TypeText || t == TypeVoice
}

// Message is a single conversation turn. Immutable once appended.
type Message struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Sender    Sender      `json:"sender"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
}
