package widget

import (
	"encoding/json"
	"time"

	"github.com/leadpilothq/chatwidget/internal/model/chat"
)

// frameKind is the result of classifying one inbound realtime frame.
type frameKind int

const (
	frameUnrecognized frameKind = iota
	frameChatMessage
	frameNotice
	frameFault
)

// inboundFrame is the superset of fields a server frame may carry. Chat
// message frames identify themselves with a sender field; notice and error
// frames with a type marker. The type field doubles as the message type
// (text/voice) on chat frames.
type inboundFrame struct {
	Sender    chat.Sender `json:"sender"`
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Type      string      `json:"type"`
	Message   string      `json:"message"`
}

// classifyFrame validates and classifies a raw frame. Only frameChatMessage
// results carry a usable message.
func classifyFrame(data []byte) (chat.Message, frameKind) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return chat.Message{}, frameUnrecognized
	}

	if frame.Sender.Valid() {
		msgType := chat.MessageType(frame.Type)
		if !msgType.Valid() {
			msgType = chat.TypeText
		}
		return chat.Message{
			ID:        frame.ID,
			Content:   frame.Content,
			Sender:    frame.Sender,
			Timestamp: frame.Timestamp,
			Type:      msgType,
		}, frameChatMessage
	}

	switch frame.Type {
	case "connected", "pong":
		return chat.Message{}, frameNotice
	case "error":
		return chat.Message{}, frameFault
	default:
		return chat.Message{}, frameUnrecognized
	}
}
