package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/leadpilothq/chatwidget/internal/config"
	"github.com/leadpilothq/chatwidget/internal/model/chat"
)

const supportSystemPrompt = `You are the in-app support assistant for LeadPilot, a marketing-automation platform.
Answer briefly and concretely. You can help with campaigns, CRM connectors, pricing plans and onboarding.
If the visitor asks about billing disputes or account deletion, tell them a human teammate will take over.
Current page the visitor is on: {page}`

// historyLimit caps how many prior turns are sent to the model.
const historyLimit = 10

// LLMResponder generates agent replies through an eino prompt/model chain.
type LLMResponder struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
	log       zerolog.Logger
}

// NewLLMResponder builds the responder from the agent configuration.
func NewLLMResponder(ctx context.Context, cfg config.AgentConfig, logger zerolog.Logger) (*LLMResponder, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(supportSystemPrompt),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &LLMResponder{
		chatModel: chatModel,
		chain:     runnable,
		log:       logger.With().Str("component", "agent-llm").Logger(),
	}, nil
}

// Reply runs the chain over the recent transcript and the new user message.
func (r *LLMResponder) Reply(ctx context.Context, session chat.Session, transcript []chat.Message, userText string) (string, error) {
	input := map[string]any{
		"page":    session.Context.CurrentPage,
		"history": buildHistory(transcript),
		"query":   userText,
	}

	response, err := r.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run agent chain: %w", err)
	}

	r.log.Debug().
		Str("session", session.ID).
		Int("length", len(response.Content)).
		Msg("generated reply")

	return response.Content, nil
}

func buildHistory(transcript []chat.Message) []*schema.Message {
	if len(transcript) == 0 {
		return nil
	}

	startIdx := 0
	if len(transcript) > historyLimit {
		startIdx = len(transcript) - historyLimit
	}

	history := make([]*schema.Message, 0, len(transcript)-startIdx)
	for _, msg := range transcript[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderAgent:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
