package agent

import (
	"context"

	"github.com/leadpilothq/chatwidget/internal/model/chat"
	"github.com/leadpilothq/chatwidget/internal/model/playbook"
)

// Responder produces the agent-side reply for one user message.
type Responder interface {
	Reply(ctx context.Context, session chat.Session, transcript []chat.Message, userText string) (string, error)
}

// PlaybookResponder answers from the canned playbook store by keyword match.
// It is the default responder when no language model is configured.
type PlaybookResponder struct {
	store playbook.Store
}

// NewPlaybookResponder returns a responder backed by the supplied store.
func NewPlaybookResponder(store playbook.Store) *PlaybookResponder {
	return &PlaybookResponder{store: store}
}

// Reply matches the user text against playbook keywords and returns the
// best-scoring reply, falling back to the store's fallback playbook.
func (r *PlaybookResponder) Reply(_ context.Context, _ chat.Session, _ []chat.Message, userText string) (string, error) {
	match := Match(r.store.List(), userText)
	if match.Topic != "" {
		if pb, ok := r.store.FindByTopic(match.Topic); ok {
			return pb.Reply, nil
		}
	}

	if pb, ok := r.store.FindByTopic("fallback"); ok {
		return pb.Reply, nil
	}
	return "Thanks for your message! A teammate will follow up shortly.", nil
}

// Greeting returns the opening agent message for a fresh session.
func Greeting(store playbook.Store) string {
	if pb, ok := store.FindByTopic("greeting"); ok {
		return pb.Reply
	}
	return "Hi there! How can we help?"
}
