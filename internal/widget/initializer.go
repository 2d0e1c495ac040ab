package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/leadpilothq/chatwidget/internal/model/chat"
)

var errMalformedSession = errors.New("malformed initialize response")

type initializeRequest struct {
	Context chat.Context `json:"context"`
}

// initializeSession issues the one-shot session create request. There is no
// retry: a failure leaves the widget in the init-failed state until the page
// reloads.
func (w *Widget) initializeSession(ctx context.Context) {
	w.mu.Lock()
	w.loading = true
	pageCtx := w.pageCtx
	w.mu.Unlock()

	session, err := w.requestSession(ctx, pageCtx)

	w.mu.Lock()
	w.loading = false
	if err != nil {
		w.initFailed = true
		listener := w.listener
		w.mu.Unlock()

		w.log.Error().Err(err).Msg("session initialization failed")
		if listener != nil {
			listener.InitFailed(err)
		}
		return
	}

	w.initFailed = false
	w.session = session
	listener := w.listener
	w.mu.Unlock()

	w.log.Info().Str("session", session.ID).Msg("session initialized")
	if listener != nil {
		listener.SessionChanged(session)
	}
}

func (w *Widget) requestSession(ctx context.Context, pageCtx chat.Context) (*chat.Session, error) {
	body, err := json.Marshal(initializeRequest{Context: pageCtx})
	if err != nil {
		return nil, fmt.Errorf("marshal initialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.BaseURL+"/api/v1/chat/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build initialize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("initialize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("initialize request: unexpected status %d", resp.StatusCode)
	}

	// Decode into pointer-bearing fields so a missing messages array is
	// distinguishable from an empty one.
	var payload struct {
		ID       string          `json:"id"`
		Messages *[]chat.Message `json:"messages"`
		Context  chat.Context    `json:"context"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errMalformedSession
	}
	if payload.ID == "" || payload.Messages == nil {
		return nil, errMalformedSession
	}

	return &chat.Session{
		ID:       payload.ID,
		Messages: *payload.Messages,
		Context:  pageCtx,
	}, nil
}
