package transcribe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/chaz8081/audioscribe/internal/config"
)

const parakeetSampleRate = 16000

// parakeetFiles are the model files expected inside the parakeet model dir.
var parakeetFiles = []string{
	"encoder.int8.onnx",
	"decoder.int8.onnx",
	"joiner.int8.onnx",
	"tokens.txt",
}

// ParakeetTranscriber runs the Parakeet TDT transducer via sherpa-onnx.
// Inference is CPU-only with greedy search decoding.
type ParakeetTranscriber struct {
	recognizer *sherpa.OfflineRecognizer
}

// NewParakeetTranscriber loads the transducer model files from the
// configured directory. The caller must call Close() when done.
func NewParakeetTranscriber(cfg config.ParakeetConfig) (*ParakeetTranscriber, error) {
	for _, name := range parakeetFiles {
		path := filepath.Join(cfg.Dir, name)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("transcribe: parakeet model file missing: %s (run 'audioscribe models download')", path)
		}
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = 4
	}

	conf := sherpa.OfflineRecognizerConfig{
		FeatConfig: sherpa.FeatureConfig{
			SampleRate: parakeetSampleRate,
			FeatureDim: 80,
		},
		ModelConfig: sherpa.OfflineModelConfig{
			Transducer: sherpa.OfflineTransducerModelConfig{
				Encoder: filepath.Join(cfg.Dir, "encoder.int8.onnx"),
				Decoder: filepath.Join(cfg.Dir, "decoder.int8.onnx"),
				Joiner:  filepath.Join(cfg.Dir, "joiner.int8.onnx"),
			},
			Tokens:     filepath.Join(cfg.Dir, "tokens.txt"),
			NumThreads: threads,
			Provider:   "cpu",
			ModelType:  "nemo_transducer",
		},
		DecodingMethod: "greedy_search",
	}

	recognizer := sherpa.NewOfflineRecognizer(&conf)
	if recognizer == nil {
		return nil, fmt.Errorf("transcribe: create parakeet recognizer from %q", cfg.Dir)
	}

	return &ParakeetTranscriber{recognizer: recognizer}, nil
}

// Close releases the recognizer resources.
func (t *ParakeetTranscriber) Close() error {
	if t.recognizer != nil {
		sherpa.DeleteOfflineRecognizer(t.recognizer)
		t.recognizer = nil
	}
	return nil
}

// Process transcribes mono 16kHz float32 audio samples to text.
func (t *ParakeetTranscriber) Process(samples []float32) (string, error) {
	if t.recognizer == nil {
		return "", fmt.Errorf("transcribe: parakeet recognizer is closed")
	}

	stream := sherpa.NewOfflineStream(t.recognizer)
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(parakeetSampleRate, samples)
	t.recognizer.Decode(stream)

	result := stream.GetResult()
	return strings.TrimSpace(result.Text), nil
}
