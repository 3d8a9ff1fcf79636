package transcribe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sync"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/chaz8081/audioscribe/internal/audio"
)

const execSampleRate = 16000

// ExecTranscriber delegates recognition to an external command. The command
// receives a temp WAV via --audio and must print {"text": "..."} on stdout.
type ExecTranscriber struct {
	cmd []string
	mu  sync.Mutex
}

type execResult struct {
	Text string `json:"text"`
}

// NewExecTranscriber parses the configured command line.
func NewExecTranscriber(command string) (*ExecTranscriber, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("transcribe: parse exec command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("transcribe: exec command is empty")
	}
	return &ExecTranscriber{cmd: args}, nil
}

// Close is a no-op; the external command holds no persistent state.
func (t *ExecTranscriber) Close() error { return nil }

// Process transcribes mono 16kHz float32 audio samples to text by
// invoking the external recognizer once per call.
func (t *ExecTranscriber) Process(samples []float32) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.CreateTemp("", "audioscribe_exec_*.wav")
	if err != nil {
		return "", fmt.Errorf("transcribe: temp file: %w", err)
	}
	tmpPath := f.Name()
	f.Close()
	defer os.Remove(tmpPath)

	if err := audio.WriteWAV(tmpPath, samples, execSampleRate); err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	args := append(append([]string{}, t.cmd[1:]...), "--audio", tmpPath)
	cmd := exec.Command(t.cmd[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("transcribe: exec recognizer failed: %w: %s", err, stderr.String())
	}

	var resp execResult
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return "", fmt.Errorf("transcribe: decode recognizer output: %w", err)
	}
	return resp.Text, nil
}
