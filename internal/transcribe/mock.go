package transcribe

import "fmt"

// MockTranscriber returns canned text for every chunk. Used by tests and
// the mock engine setting for exercising the pipeline without a model.
type MockTranscriber struct {
	text   string
	calls  int
	closed bool
}

// NewMockTranscriber creates a mock engine. With empty text it reports the
// chunk sample count, so each chunk produces distinct output.
func NewMockTranscriber(text string) *MockTranscriber {
	return &MockTranscriber{text: text}
}

// Process returns the canned text (or a sample-count placeholder).
func (t *MockTranscriber) Process(samples []float32) (string, error) {
	if t.closed {
		return "", fmt.Errorf("transcribe: mock engine is closed")
	}
	t.calls++
	if t.text != "" {
		return t.text, nil
	}
	return fmt.Sprintf("[chunk samples=%d]", len(samples)), nil
}

// Close marks the mock engine closed.
func (t *MockTranscriber) Close() error {
	t.closed = true
	return nil
}

// Calls reports how many times Process ran.
func (t *MockTranscriber) Calls() int { return t.calls }
