package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/leadpilothq/chatwidget/internal/config"
	"github.com/leadpilothq/chatwidget/internal/model/chat"
	"github.com/leadpilothq/chatwidget/internal/widget"
)

// printListener dumps every widget event to the terminal.
type printListener struct{}

func (printListener) SessionChanged(session *chat.Session) {
	fmt.Printf("== session %s (%d seeded messages)\n", session.ID, len(session.Messages))
	for _, msg := range session.Messages {
		printMessage(msg)
	}
}

func (printListener) MessageAppended(msg chat.Message) {
	printMessage(msg)
}

func (printListener) ConnectionChanged(connected bool) {
	fmt.Printf("== realtime channel connected=%v\n", connected)
}

func (printListener) InitFailed(err error) {
	fmt.Printf("== initialization failed: %v\n", err)
}

func printMessage(msg chat.Message) {
	fmt.Printf("[%s] %-5s %s\n", msg.Timestamp.Format("15:04:05"), msg.Sender, msg.Content)
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("no .env file, using system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	baseURL := flag.String("base", cfg.Widget.BaseURL, "chat API base URL")
	page := flag.String("page", "/pricing", "page path reported in the session context")
	message := flag.String("message", "", "message(s) to send, separated by ';'")
	voiceInput := flag.Bool("voice", false, "send messages as voice transcripts")
	linger := flag.Duration("linger", 5*time.Second, "how long to keep the channel open for pushes")
	timeout := flag.Duration("timeout", 30*time.Second, "overall probe timeout")

	flag.Parse()

	if strings.TrimSpace(*message) == "" {
		flag.Usage()
		logger.Fatal().Msg("provide at least one -message")
	}

	widgetCfg := cfg.Widget
	widgetCfg.BaseURL = *baseURL

	pageCtx := chat.Context{
		CurrentPage:  *page,
		UserProgress: map[string]bool{"probe": true},
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	w := widget.New(widgetCfg, pageCtx, printListener{}, logger)
	w.Open(ctx)
	defer w.Close()

	if w.Snapshot().InitFailed {
		logger.Fatal().Msg("could not initialize a session, is widgetd running?")
	}

	for _, part := range strings.Split(*message, ";") {
		var err error
		if *voiceInput {
			err = w.SubmitVoiceTranscript(ctx, part, 0.92)
		} else {
			err = w.Send(ctx, part, chat.TypeText)
		}
		if err != nil {
			logger.Error().Err(err).Str("content", part).Msg("send rejected")
		}
	}

	// Leave the channel up so out-of-band pushes (handoff follow-ups) arrive.
	select {
	case <-ctx.Done():
	case <-time.After(*linger):
	}

	snap := w.Snapshot()
	if snap.Session != nil {
		fmt.Printf("== transcript: %d messages, connected=%v\n", len(snap.Session.Messages), snap.Connected)
	}
}
