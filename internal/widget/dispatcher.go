package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/leadpilothq/chatwidget/internal/model/chat"
)

var (
	// ErrEmptyMessage rejects empty or whitespace-only content.
	ErrEmptyMessage = errors.New("message content is empty")
	// ErrNoSession rejects sends before a session has been initialized.
	ErrNoSession = errors.New("no active session")

	errMalformedReply = errors.New("malformed message response")
)

// Fixed replies synthesized locally so the visitor always sees an answer,
// even when the backend call fails.
const (
	replyNetworkFailure    = "Sorry, we couldn't reach our support service. Please check your connection and try again."
	replyMalformedResponse = "Sorry, something went wrong on our side processing that reply. Please try again."
)

type sendRequest struct {
	Content string           `json:"content"`
	Type    chat.MessageType `json:"type"`
}

// Send dispatches one user message. The request path is authoritative and is
// always attempted regardless of realtime-channel state. A locally-built
// user message is appended immediately for display; the agent reply (real or
// synthesized on failure) follows once the request settles, so one accepted
// send always grows the transcript by exactly two messages.
func (w *Widget) Send(ctx context.Context, content string, msgType chat.MessageType) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ErrEmptyMessage
	}
	if !msgType.Valid() {
		msgType = chat.TypeText
	}

	w.mu.Lock()
	if w.session == nil {
		w.mu.Unlock()
		return ErrNoSession
	}
	sessionID := w.session.ID
	w.mu.Unlock()

	w.appendMessage(chat.Message{
		ID:        localMessageID(),
		Content:   trimmed,
		Sender:    chat.SenderUser,
		Timestamp: time.Now().UTC(),
		Type:      msgType,
	})

	reply, err := w.postMessage(ctx, sessionID, trimmed, msgType)
	if err != nil {
		w.log.Warn().Err(err).Str("session", sessionID).Msg("send failed, synthesizing reply")
		w.appendMessage(synthesizedReply(err))
		return nil
	}

	w.appendMessage(reply)
	return nil
}

func (w *Widget) postMessage(ctx context.Context, sessionID, content string, msgType chat.MessageType) (chat.Message, error) {
	body, err := json.Marshal(sendRequest{Content: content, Type: msgType})
	if err != nil {
		return chat.Message{}, fmt.Errorf("marshal message request: %w", err)
	}

	url := w.cfg.BaseURL + "/api/v1/chat/" + sessionID + "/message"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return chat.Message{}, fmt.Errorf("build message request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return chat.Message{}, fmt.Errorf("message request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return chat.Message{}, fmt.Errorf("message request: unexpected status %d", resp.StatusCode)
	}

	var reply chat.Message
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return chat.Message{}, errMalformedReply
	}
	if reply.ID == "" || reply.Sender != chat.SenderAgent {
		return chat.Message{}, errMalformedReply
	}
	if !reply.Type.Valid() {
		reply.Type = chat.TypeText
	}

	return reply, nil
}

// synthesizedReply fabricates an agent-sender message describing the failure.
// The two failure classes carry distinct, fixed strings.
func synthesizedReply(err error) chat.Message {
	content := replyNetworkFailure
	if errors.Is(err, errMalformedReply) {
		content = replyMalformedResponse
	}
	return chat.Message{
		ID:        localMessageID(),
		Content:   content,
		Sender:    chat.SenderAgent,
		Timestamp: time.Now().UTC(),
		Type:      chat.TypeText,
	}
}

// localMessageID derives a client-side identifier from the current clock.
// Server-assigned messages keep their server ids.
func localMessageID() string {
	return fmt.Sprintf("local-%d", time.Now().UnixNano())
}
