package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/leadpilothq/chatwidget/internal/model/chat"
	"github.com/leadpilothq/chatwidget/internal/model/playbook"
	"github.com/leadpilothq/chatwidget/internal/service/agent"
	chatservice "github.com/leadpilothq/chatwidget/internal/service/chat"
)

func setupRouter() (*chi.Mux, *chatservice.Service, *Handler) {
	chatSvc := chatservice.NewService()
	store := playbook.NewMemoryStore(playbook.Seed())
	responder := agent.NewPlaybookResponder(store)
	h := New(chatSvc, responder, store, NewHub(zerolog.Nop()), zerolog.Nop())

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, chatSvc, h
}

func initializeSession(t *testing.T, r *chi.Mux) chat.Session {
	t.Helper()

	body := []byte(`{"context":{"currentPage":"/pricing","userProgress":{"signedUp":true}}}`)
	req := httptest.NewRequest(http.MethodPost, "/initialize", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var session chat.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session
}

func TestInitializeReturnsSessionWithGreeting(t *testing.T) {
	r, _, _ := setupRouter()
	session := initializeSession(t, r)

	if session.ID == "" {
		t.Fatal("expected a session id")
	}
	if len(session.Messages) != 1 {
		t.Fatalf("expected exactly the greeting, got %d messages", len(session.Messages))
	}
	if session.Messages[0].Sender != chat.SenderAgent {
		t.Fatalf("greeting must come from the agent, got %s", session.Messages[0].Sender)
	}
}

func TestInitializeInvalidBody(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/initialize", bytes.NewReader([]byte("{")))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestMessageAppendsUserAndAgentTurns(t *testing.T) {
	r, chatSvc, _ := setupRouter()
	session := initializeSession(t, r)

	body := []byte(`{"content":"what does the starter plan cost?","type":"text"}`)
	req := httptest.NewRequest(http.MethodPost, "/"+session.ID+"/message", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var reply chat.Message
	if err := json.Unmarshal(resp.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Sender != chat.SenderAgent || reply.ID == "" {
		t.Fatalf("expected a well-formed agent message, got %+v", reply)
	}

	transcript, err := chatSvc.Transcript(req.Context(), session.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	// greeting + user turn + agent turn
	if len(transcript) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(transcript))
	}
	if transcript[1].Sender != chat.SenderUser || transcript[2].Sender != chat.SenderAgent {
		t.Fatalf("unexpected transcript order: %+v", transcript)
	}
}

func TestMessageEmptyContent(t *testing.T) {
	r, _, _ := setupRouter()
	session := initializeSession(t, r)

	body := []byte(`{"content":"   ","type":"text"}`)
	req := httptest.NewRequest(http.MethodPost, "/"+session.ID+"/message", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestMessageInvalidType(t *testing.T) {
	r, _, _ := setupRouter()
	session := initializeSession(t, r)

	body := []byte(`{"content":"hello","type":"video"}`)
	req := httptest.NewRequest(http.MethodPost, "/"+session.ID+"/message", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestMessageUnknownSession(t *testing.T) {
	r, _, _ := setupRouter()

	body := []byte(`{"content":"hello","type":"text"}`)
	req := httptest.NewRequest(http.MethodPost, "/nope/message", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestHandoffFollowUpLandsInTranscript(t *testing.T) {
	r, chatSvc, h := setupRouter()
	h.followUpDelay = 10 * time.Millisecond
	session := initializeSession(t, r)

	body := []byte(`{"content":"my invoice looks wrong","type":"text"}`)
	req := httptest.NewRequest(http.MethodPost, "/"+session.ID+"/message", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		transcript, err := chatSvc.Transcript(req.Context(), session.ID)
		if err != nil {
			t.Fatalf("Transcript err: %v", err)
		}
		// greeting + user + agent + follow-up
		if len(transcript) == 4 {
			if transcript[3].Content != handoffFollowUp {
				t.Fatalf("unexpected follow-up: %q", transcript[3].Content)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("follow-up never appended, transcript has %d messages", len(transcript))
		}
		time.Sleep(10 * time.Millisecond)
	}
}
