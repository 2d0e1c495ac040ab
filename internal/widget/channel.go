package widget

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/leadpilothq/chatwidget/internal/model/chat"
)

// State is the realtime channel lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

// String renders the state for logs and status indicators.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Channel is the widget's push-enhancement socket. It dials the session's
// websocket endpoint and, whenever the connection drops, schedules exactly
// one reconnect attempt after a fixed delay, forever, until Close is called.
// The channel is the sole owner of the socket; nothing else opens or closes
// it.
type Channel struct {
	url       string
	delay     time.Duration
	dialer    *websocket.Dialer
	onMessage func(chat.Message)
	onState   func(State)
	log       zerolog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	state   State
	started bool

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannel builds a channel for the given ws(s) URL. onMessage receives
// inbound chat messages; onState receives every lifecycle transition. Both
// callbacks may be nil.
func NewChannel(url string, delay time.Duration, onMessage func(chat.Message), onState func(State), logger zerolog.Logger) *Channel {
	return &Channel{
		url:   url,
		delay: delay,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		onMessage: onMessage,
		onState:   onState,
		log:       logger.With().Str("component", "realtime-channel").Logger(),
		state:     StateIdle,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the connect/read/reconnect loop.
func (c *Channel) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.run()
}

// Close stops reconnect attempts and closes any open socket. It blocks until
// the run loop has exited.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		started := c.started
		c.mu.Unlock()
		if !started {
			close(c.done)
		}
	})
	<-c.done
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) run() {
	defer close(c.done)

	for {
		select {
		case <-c.stop:
			c.setState(StateClosed)
			return
		default:
		}

		c.setState(StateConnecting)
		conn, resp, err := c.dialer.Dial(c.url, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			c.log.Debug().Err(err).Str("url", c.url).Msg("dial failed")
			c.setState(StateClosed)
			if !c.waitRetry() {
				return
			}
			continue
		}

		c.mu.Lock()
		select {
		case <-c.stop:
			// Closed while the dial was in flight.
			c.mu.Unlock()
			conn.Close()
			c.setState(StateClosed)
			return
		default:
		}
		c.conn = conn
		c.mu.Unlock()

		c.setState(StateOpen)
		c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		c.setState(StateClosed)

		if !c.waitRetry() {
			return
		}
	}
}

// waitRetry pauses for the fixed reconnect delay. It returns false when the
// channel was closed during the wait.
func (c *Channel) waitRetry() bool {
	select {
	case <-c.stop:
		return false
	case <-time.After(c.delay):
		return true
	}
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("read error")
			}
			return
		}
		c.handleFrame(data)
	}
}

func (c *Channel) handleFrame(data []byte) {
	msg, kind := classifyFrame(data)
	switch kind {
	case frameChatMessage:
		if c.onMessage != nil {
			c.onMessage(msg)
		}
	case frameNotice:
		c.log.Debug().RawJSON("frame", data).Msg("channel notice")
	case frameFault:
		c.log.Warn().RawJSON("frame", data).Msg("channel error frame")
	default:
		// Unrecognized frames are dropped silently.
	}
}

func (c *Channel) setState(state State) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.mu.Unlock()

	if c.onState != nil {
		c.onState(state)
	}
}
