package widget

import (
	"sync"
	"testing"
	"time"

	"github.com/leadpilothq/chatwidget/internal/model/chat"
)

// recordingListener captures widget events for assertions.
type recordingListener struct {
	mu        sync.Mutex
	session   *chat.Session
	messages  []chat.Message
	connected []bool
	initErrs  []error
}

func (l *recordingListener) SessionChanged(session *chat.Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.session = session
}

func (l *recordingListener) MessageAppended(msg chat.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingListener) ConnectionChanged(connected bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = append(l.connected, connected)
}

func (l *recordingListener) InitFailed(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.initErrs = append(l.initErrs, err)
}

func (l *recordingListener) messageCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

func (l *recordingListener) lastMessage() (chat.Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.messages) == 0 {
		return chat.Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// waitFor polls until cond holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
