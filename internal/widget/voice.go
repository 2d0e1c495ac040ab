package widget

import (
	"context"
	"errors"

	"github.com/leadpilothq/chatwidget/internal/model/chat"
	"github.com/leadpilothq/chatwidget/internal/model/voice"
)

// ErrVoiceUnsupported rejects voice capture when no recognizer is available.
var ErrVoiceUnsupported = errors.New("voice recognition unsupported")

// SetRecognizer attaches a speech recognizer. Call before Open; the
// supported flag is evaluated when the widget mounts.
func (w *Widget) SetRecognizer(r voice.Recognizer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.recognizer = r
}

// StartListening begins speech capture. The finalized transcript is staged
// in the voice state for the presentation layer to confirm and submit.
func (w *Widget) StartListening() error {
	w.mu.Lock()
	r := w.recognizer
	if r == nil || !w.voiceState.Supported {
		w.mu.Unlock()
		return ErrVoiceUnsupported
	}
	w.voiceState.Listening = true
	w.mu.Unlock()

	return r.Start(func(transcript string, confidence float64) {
		w.mu.Lock()
		w.voiceState.Listening = false
		w.voiceState.Transcript = transcript
		w.voiceState.Confidence = confidence
		w.mu.Unlock()
	})
}

// StopListening halts speech capture without submitting anything.
func (w *Widget) StopListening() {
	w.mu.Lock()
	r := w.recognizer
	w.voiceState.Listening = false
	w.mu.Unlock()

	if r != nil {
		r.Stop()
	}
}

// SubmitVoiceTranscript routes a dictated transcript through the message
// dispatcher with the voice type and clears the staged transcript.
func (w *Widget) SubmitVoiceTranscript(ctx context.Context, transcript string, confidence float64) error {
	w.mu.Lock()
	w.voiceState.Transcript = transcript
	w.voiceState.Confidence = confidence
	w.mu.Unlock()

	if err := w.Send(ctx, transcript, chat.TypeVoice); err != nil {
		return err
	}

	w.mu.Lock()
	w.voiceState.Transcript = ""
	w.voiceState.Confidence = 0
	w.mu.Unlock()
	return nil
}
