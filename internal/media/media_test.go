package media

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/chaz8081/audioscribe/internal/audio"
)

func TestIsVideo(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"movie.mp4", true},
		{"MOVIE.MP4", true},
		{"clip.mkv", true},
		{"clip.webm", true},
		{"song.mp3", false},
		{"song.wav", false},
		{"notes.txt", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsVideo(tt.path); got != tt.want {
			t.Errorf("IsVideo(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsAudio(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"song.wav", true},
		{"song.MP3", true},
		{"song.flac", true},
		{"song.ogg", true},
		{"song.aac", true},
		{"movie.mp4", false},
		{"doc.pdf", false},
	}
	for _, tt := range tests {
		if got := IsAudio(tt.path); got != tt.want {
			t.Errorf("IsAudio(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsSupported(t *testing.T) {
	if !IsSupported("a.mp4") || !IsSupported("a.wav") {
		t.Error("IsSupported should accept both audio and video")
	}
	if IsSupported("a.txt") {
		t.Error("IsSupported(a.txt) = true, want false")
	}
}

func TestIsTargetWAV(t *testing.T) {
	tmpDir := t.TempDir()

	target := filepath.Join(tmpDir, "target.wav")
	if err := audio.WriteWAV(target, make([]float32, 16000), 16000); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if !IsTargetWAV(target) {
		t.Error("IsTargetWAV() = false for 16kHz mono 16-bit WAV")
	}

	wrongRate := filepath.Join(tmpDir, "wrong.wav")
	if err := audio.WriteWAV(wrongRate, make([]float32, 44100), 44100); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if IsTargetWAV(wrongRate) {
		t.Error("IsTargetWAV() = true for 44.1kHz WAV")
	}

	if IsTargetWAV(filepath.Join(tmpDir, "missing.wav")) {
		t.Error("IsTargetWAV() = true for missing file")
	}
}

func TestExtractAudioTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures are not portable to windows")
	}

	tmpDir := t.TempDir()

	// A stand-in ffmpeg that never finishes.
	fake := filepath.Join(tmpDir, "ffmpeg.sh")
	// exec, so the kill signal reaches the sleeping process and the
	// stdout pipe closes immediately.
	if err := os.WriteFile(fake, []byte("#!/bin/sh\nexec sleep 10\n"), 0755); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(tmpDir, "in.mp4")
	if err := os.WriteFile(src, []byte("not really a video"), 0644); err != nil {
		t.Fatal(err)
	}

	c := &Converter{ffmpegPath: fake, Timeout: 50 * time.Millisecond}

	start := time.Now()
	_, err := c.ExtractAudio(context.Background(), src, 0, nil)
	if err == nil {
		t.Fatal("ExtractAudio() past the timeout should return error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("ExtractAudio() returned after %v, timeout was not applied", elapsed)
	}
}

func TestReadProgress(t *testing.T) {
	stream := strings.Join([]string{
		"frame=100",
		"out_time_us=5000000",
		"progress=continue",
		"out_time_us=10000000",
		"progress=continue",
		"out_time_us=20000000",
		"progress=end",
	}, "\n")

	var got []float64
	readProgress(strings.NewReader(stream), 20, func(f float64) {
		got = append(got, f)
	})

	want := []float64{0.25, 0.5, 1, 1} // three out_time updates plus the end marker
	if len(got) != len(want) {
		t.Fatalf("progress updates = %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("update %d = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestReadProgressUnknownDuration(t *testing.T) {
	var got []float64
	readProgress(strings.NewReader("out_time_us=1000000\n"), 0, func(f float64) {
		got = append(got, f)
	})
	if len(got) != 1 || got[0] != -1 {
		t.Errorf("progress with unknown duration = %v, want [-1]", got)
	}
}

func TestReadProgressNilCallback(t *testing.T) {
	// Must not panic.
	readProgress(strings.NewReader("out_time_us=1000000\nprogress=end\n"), 10, nil)
}

func TestProgressFraction(t *testing.T) {
	tests := []struct {
		name      string
		processed float64
		total     float64
		want      float64
	}{
		{"halfway", 5, 10, 0.5},
		{"overshoot clamps", 15, 10, 1},
		{"negative clamps", -1, 10, 0},
		{"unknown total", 5, 0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progressFraction(tt.processed, tt.total); got != tt.want {
				t.Errorf("progressFraction(%g, %g) = %g, want %g", tt.processed, tt.total, got, tt.want)
			}
		})
	}
}
