package widget

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/leadpilothq/chatwidget/internal/config"
	"github.com/leadpilothq/chatwidget/internal/model/chat"
	"github.com/leadpilothq/chatwidget/internal/model/voice"
)

// Listener receives presentation-facing events. Implementations must not
// block; every callback runs on whichever goroutine produced the event.
type Listener interface {
	SessionChanged(session *chat.Session)
	MessageAppended(msg chat.Message)
	ConnectionChanged(connected bool)
	InitFailed(err error)
}

// Snapshot is the read model the presentation shell renders from.
type Snapshot struct {
	Session        *chat.Session
	Connected      bool
	Loading        bool
	InitFailed     bool
	Open           bool
	Minimized      bool
	VoiceSupported bool
	Voice          voice.RecognitionState
}

// Widget owns one chat session and its realtime channel. It coordinates the
// session initializer, the message dispatcher and the channel lifecycle; the
// presentation layer drives it through Open/Close/Minimize/Send and observes
// it through the Listener and Snapshot.
type Widget struct {
	cfg        config.WidgetConfig
	pageCtx    chat.Context
	httpClient *http.Client
	listener   Listener
	log        zerolog.Logger

	mu         sync.Mutex
	open       bool
	minimized  bool
	loading    bool
	initFailed bool
	connected  bool
	session    *chat.Session
	channel    *Channel
	recognizer voice.Recognizer
	voiceState voice.RecognitionState
}

// New builds a widget for the given page context. listener may be nil.
func New(cfg config.WidgetConfig, pageCtx chat.Context, listener Listener, logger zerolog.Logger) *Widget {
	return &Widget{
		cfg:        cfg,
		pageCtx:    pageCtx,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		listener:   listener,
		log:        logger.With().Str("component", "chat-widget").Logger(),
	}
}

// Open mounts the widget. The initialize request is issued only when no
// session exists yet; reopening with a live session reuses it and merely
// restarts the realtime channel if absent. Voice state is rebuilt on every
// open.
func (w *Widget) Open(ctx context.Context) {
	w.mu.Lock()
	if w.open {
		w.mu.Unlock()
		return
	}
	w.open = true
	w.minimized = false
	w.voiceState = voice.RecognitionState{
		Supported: w.recognizer != nil && w.recognizer.Supported(),
	}
	needInit := w.session == nil
	w.mu.Unlock()

	if needInit {
		w.initializeSession(ctx)
	}
	w.ensureChannel()
}

// Close unmounts the widget: reconnect attempts stop and any open socket is
// closed. In-flight send requests are not cancelled; a reply that settles
// after close still lands in the session, which survives for reuse on the
// next Open.
func (w *Widget) Close() {
	w.mu.Lock()
	if !w.open {
		w.mu.Unlock()
		return
	}
	w.open = false
	ch := w.channel
	w.channel = nil
	w.mu.Unlock()

	if ch != nil {
		ch.Close()
	}
}

// Minimize collapses the widget without tearing anything down.
func (w *Widget) Minimize() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.open {
		w.minimized = true
	}
}

// Snapshot returns a copy of the current presentation state.
func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	var session *chat.Session
	if w.session != nil {
		copied := *w.session
		copied.Messages = append([]chat.Message(nil), w.session.Messages...)
		session = &copied
	}

	return Snapshot{
		Session:        session,
		Connected:      w.connected,
		Loading:        w.loading,
		InitFailed:     w.initFailed,
		Open:           w.open,
		Minimized:      w.minimized,
		VoiceSupported: w.voiceState.Supported,
		Voice:          w.voiceState,
	}
}

// ensureChannel opens the realtime channel when a session exists and no
// channel is running. The channel is an additive enhancement: when disabled
// by configuration the widget stays in request-only mode.
func (w *Widget) ensureChannel() {
	if w.cfg.RealtimeDisabled {
		return
	}

	w.mu.Lock()
	if !w.open || w.session == nil || w.channel != nil {
		w.mu.Unlock()
		return
	}
	endpoint, err := channelURL(w.cfg.BaseURL, w.session.ID)
	if err != nil {
		w.mu.Unlock()
		w.log.Error().Err(err).Msg("invalid realtime endpoint")
		return
	}
	ch := NewChannel(endpoint, w.cfg.ReconnectDelay, w.appendMessage, w.handleChannelState, w.log)
	w.channel = ch
	w.mu.Unlock()

	ch.Start()
}

// appendMessage adds one message to the session transcript. Messages land in
// the order their producing event completes; nothing is ever mutated or
// removed.
func (w *Widget) appendMessage(msg chat.Message) {
	w.mu.Lock()
	if w.session == nil {
		w.mu.Unlock()
		return
	}
	w.session.Messages = append(w.session.Messages, msg)
	listener := w.listener
	w.mu.Unlock()

	if listener != nil {
		listener.MessageAppended(msg)
	}
}

func (w *Widget) handleChannelState(state State) {
	connected := state == StateOpen

	w.mu.Lock()
	if w.connected == connected {
		w.mu.Unlock()
		return
	}
	w.connected = connected
	listener := w.listener
	w.mu.Unlock()

	w.log.Debug().Stringer("state", state).Msg("channel state changed")
	if listener != nil {
		listener.ConnectionChanged(connected)
	}
}

// channelURL derives the websocket endpoint from the API base URL, keeping
// the page's transport security: https origins get wss, everything else ws.
func channelURL(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}

	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/chat/ws/" + sessionID

	return u.String(), nil
}
