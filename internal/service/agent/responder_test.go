package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/leadpilothq/chatwidget/internal/model/chat"
	"github.com/leadpilothq/chatwidget/internal/model/playbook"
)

func TestPlaybookResponderMatchesTopic(t *testing.T) {
	store := playbook.NewMemoryStore(playbook.Seed())
	responder := NewPlaybookResponder(store)

	reply, err := responder.Reply(context.Background(), chat.Session{}, nil, "what are your pricing plans?")
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}
	if !strings.Contains(reply, "Starter plan") {
		t.Fatalf("expected the pricing reply, got %q", reply)
	}
}

func TestPlaybookResponderFallsBack(t *testing.T) {
	store := playbook.NewMemoryStore(playbook.Seed())
	responder := NewPlaybookResponder(store)

	reply, err := responder.Reply(context.Background(), chat.Session{}, nil, "xyzzy")
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}

	fallback, ok := store.FindByTopic("fallback")
	if !ok {
		t.Fatal("seed is missing the fallback playbook")
	}
	if reply != fallback.Reply {
		t.Fatalf("expected fallback reply, got %q", reply)
	}
}

func TestGreeting(t *testing.T) {
	store := playbook.NewMemoryStore(playbook.Seed())
	if got := Greeting(store); !strings.Contains(got, "LeadPilot") {
		t.Fatalf("unexpected greeting: %q", got)
	}

	empty := playbook.NewMemoryStore(nil)
	if got := Greeting(empty); got == "" {
		t.Fatal("expected a default greeting for an empty store")
	}
}
