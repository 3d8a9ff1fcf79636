// Package transcribe provides speech-to-text engines.
//
// Supported engines:
//   - whisper: whisper.cpp via Go bindings (default)
//   - parakeet: Parakeet TDT transducer via sherpa-onnx
//   - exec: external recognizer command
//   - mock: canned responses for tests and dry runs
package transcribe

import (
	"fmt"

	"github.com/chaz8081/audioscribe/internal/config"
)

// Transcriber converts audio samples to text.
type Transcriber interface {
	// Process transcribes mono 16kHz float32 audio samples to text.
	Process(samples []float32) (string, error)
	// Close releases engine resources.
	Close() error
}

// New creates a Transcriber based on the config engine setting.
func New(cfg *config.ModelsConfig, engine string) (Transcriber, error) {
	switch engine {
	case "parakeet":
		return NewParakeetTranscriber(cfg.Parakeet)
	case "exec":
		return NewExecTranscriber(cfg.Exec.Command)
	case "mock":
		return NewMockTranscriber(""), nil
	case "whisper", "":
		return NewWhisperTranscriber(cfg.Whisper)
	default:
		return nil, fmt.Errorf("transcribe: unknown engine %q (supported: whisper, parakeet, exec, mock)", engine)
	}
}
