package voice

// RecognitionState is the transient dictation state the presentation layer
// renders next to the input field. It is rebuilt every time the widget
// opens and never persisted.
type RecognitionState struct {
	Listening  bool    `json:"listening"`
	Supported  bool    `json:"supported"`
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

// Recognizer abstracts whatever speech capture the hosting environment
// provides. Implementations invoke the result callback once per finalized
// utterance.
type Recognizer interface {
	Supported() bool
	Start(onResult func(transcript string, confidence float64)) error
	Stop()
}
