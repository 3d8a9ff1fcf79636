// Package profile measures recognizer speed for transcription time
// estimates. The Real-Time Factor (RTF) is the ratio of inference
// wall-clock time to audio duration: 0.5 means twice as fast as
// real time, 2.0 means half speed.
package profile

import (
	"log/slog"
	"sync"
	"time"

	"github.com/chaz8081/audioscribe/internal/transcribe"
)

const (
	// benchmarkSeconds of synthetic silence fed to the recognizer for
	// the one-time measurement. Long enough for a stable number, short
	// enough to not annoy on startup.
	benchmarkSeconds = 5
	benchmarkRate    = 16000

	// FallbackRTF is the conservative estimate used when the benchmark
	// fails or has not run.
	FallbackRTF = 1.5
)

// Profiler caches a one-time RTF measurement for an engine instance.
type Profiler struct {
	mu       sync.Mutex
	rtf      float64
	profiled bool

	// now and since are swappable for tests.
	now   func() time.Time
	since func(time.Time) time.Duration
}

// NewProfiler returns an unprofiled Profiler.
func NewProfiler() *Profiler {
	return &Profiler{now: time.Now, since: time.Since}
}

// Benchmark measures the engine's RTF by timing one Process call over
// synthetic silence. The result is cached; later calls return it without
// re-running. A failed benchmark logs a warning and caches FallbackRTF;
// estimation must never abort a transcription.
func (p *Profiler) Benchmark(tr transcribe.Transcriber) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.profiled {
		return p.rtf
	}

	silence := make([]float32, benchmarkRate*benchmarkSeconds)

	start := p.now()
	_, err := tr.Process(silence)
	elapsed := p.since(start).Seconds()

	if err != nil {
		slog.Warn("RTF benchmark failed, using conservative estimate",
			"error", err, "fallback_rtf", FallbackRTF)
		p.rtf = FallbackRTF
		p.profiled = true
		return p.rtf
	}

	p.rtf = elapsed / benchmarkSeconds
	p.profiled = true

	slog.Info("RTF benchmark complete",
		"audio_sec", benchmarkSeconds,
		"inference_sec", elapsed,
		"rtf", p.rtf)

	return p.rtf
}

// RTF returns the measured factor, or FallbackRTF when unprofiled.
func (p *Profiler) RTF() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.profiled {
		return FallbackRTF
	}
	return p.rtf
}

// Estimate predicts the wall-clock seconds needed to transcribe audio of
// the given duration: duration × RTF.
func (p *Profiler) Estimate(audioDurationSec float64) float64 {
	return audioDurationSec * p.RTF()
}

// EstimateByVRAM predicts transcription time for GPU-class engines from
// the card's memory size, without running a benchmark. The factors are
// rough observed ratios per memory tier.
func EstimateByVRAM(audioDurationSec, vramGB float64) float64 {
	var factor float64
	switch {
	case vramGB >= 16:
		factor = 0.40
	case vramGB >= 8:
		factor = 0.80
	case vramGB >= 4:
		factor = 1.20
	default:
		factor = 2.0
	}
	return audioDurationSec * factor
}
