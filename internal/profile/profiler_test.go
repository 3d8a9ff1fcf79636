package profile

import (
	"errors"
	"testing"
	"time"

	"github.com/chaz8081/audioscribe/internal/transcribe"
)

// failingEngine always errors from Process.
type failingEngine struct{}

func (failingEngine) Process([]float32) (string, error) {
	return "", errors.New("boom")
}
func (failingEngine) Close() error { return nil }

// countingEngine records Process calls.
type countingEngine struct {
	calls int
}

func (e *countingEngine) Process([]float32) (string, error) {
	e.calls++
	return "", nil
}
func (e *countingEngine) Close() error { return nil }

// fixedClock makes the benchmark appear to take the given duration.
func fixedClock(p *Profiler, elapsed time.Duration) {
	p.now = func() time.Time { return time.Unix(0, 0) }
	p.since = func(time.Time) time.Duration { return elapsed }
}

func TestBenchmarkMeasuresRTF(t *testing.T) {
	p := NewProfiler()
	fixedClock(p, 10*time.Second) // 10s inference over 5s audio

	rtf := p.Benchmark(&countingEngine{})
	if rtf != 2.0 {
		t.Errorf("Benchmark() = %g, want 2.0", rtf)
	}
	if p.RTF() != 2.0 {
		t.Errorf("RTF() = %g, want 2.0", p.RTF())
	}
}

func TestBenchmarkRunsOnce(t *testing.T) {
	p := NewProfiler()
	fixedClock(p, 5*time.Second)

	eng := &countingEngine{}
	p.Benchmark(eng)
	p.Benchmark(eng)
	p.Benchmark(eng)

	if eng.calls != 1 {
		t.Errorf("engine Process calls = %d, want 1 (benchmark must cache)", eng.calls)
	}
}

func TestBenchmarkFallbackOnError(t *testing.T) {
	p := NewProfiler()
	fixedClock(p, time.Second)

	rtf := p.Benchmark(failingEngine{})
	if rtf != FallbackRTF {
		t.Errorf("Benchmark() on failure = %g, want fallback %g", rtf, FallbackRTF)
	}

	// The failure result is cached too.
	if got := p.Benchmark(failingEngine{}); got != FallbackRTF {
		t.Errorf("second Benchmark() = %g, want %g", got, FallbackRTF)
	}
}

func TestRTFUnprofiled(t *testing.T) {
	p := NewProfiler()
	if got := p.RTF(); got != FallbackRTF {
		t.Errorf("RTF() unprofiled = %g, want %g", got, FallbackRTF)
	}
}

func TestEstimate(t *testing.T) {
	p := NewProfiler()
	fixedClock(p, 2500*time.Millisecond) // RTF 0.5

	p.Benchmark(&countingEngine{})

	if got := p.Estimate(120); got != 60 {
		t.Errorf("Estimate(120) = %g, want 60", got)
	}
	if got := p.Estimate(0); got != 0 {
		t.Errorf("Estimate(0) = %g, want 0", got)
	}
}

func TestEstimateByVRAM(t *testing.T) {
	tests := []struct {
		name   string
		vramGB float64
		want   float64 // for 100s of audio
	}{
		{"16GB card", 16, 40},
		{"24GB card", 24, 40},
		{"8GB card", 8, 80},
		{"4GB card", 4, 120},
		{"no GPU", 0, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateByVRAM(100, tt.vramGB); got != tt.want {
				t.Errorf("EstimateByVRAM(100, %g) = %g, want %g", tt.vramGB, got, tt.want)
			}
		})
	}
}

var _ transcribe.Transcriber = (*countingEngine)(nil)
