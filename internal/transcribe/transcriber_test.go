package transcribe

import (
	"strings"
	"testing"

	"github.com/chaz8081/audioscribe/internal/config"
)

func TestNewUnknownEngine(t *testing.T) {
	_, err := New(&config.Default().Models, "siri")
	if err == nil {
		t.Fatal("New() with unknown engine should return error")
	}
	if !strings.Contains(err.Error(), "siri") {
		t.Errorf("error %q should name the bad engine", err)
	}
}

func TestNewMockEngine(t *testing.T) {
	tr, err := New(&config.Default().Models, "mock")
	if err != nil {
		t.Fatalf("New(mock) error = %v", err)
	}
	defer tr.Close()

	text, err := tr.Process(make([]float32, 100))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if text == "" {
		t.Error("mock engine returned empty text")
	}
}

func TestNewParakeetMissingModels(t *testing.T) {
	cfg := config.Default().Models
	cfg.Parakeet.Dir = t.TempDir() // empty dir, no model files

	_, err := New(&cfg, "parakeet")
	if err == nil {
		t.Fatal("New(parakeet) without model files should return error")
	}
	if !strings.Contains(err.Error(), "encoder.int8.onnx") {
		t.Errorf("error %q should name the missing file", err)
	}
}

func TestMockTranscriberCanned(t *testing.T) {
	tr := NewMockTranscriber("fixed text")
	defer tr.Close()

	for i := 0; i < 3; i++ {
		text, err := tr.Process(make([]float32, 10))
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if text != "fixed text" {
			t.Errorf("Process() = %q, want %q", text, "fixed text")
		}
	}
	if tr.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3", tr.Calls())
	}
}

func TestMockTranscriberClosed(t *testing.T) {
	tr := NewMockTranscriber("")
	if err := tr.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := tr.Process(nil); err == nil {
		t.Fatal("Process() after Close() should return error")
	}
}
