// Package service coordinates the transcription pipeline: media conversion,
// chunked recognition, time estimation, resource throttling, and
// cancellation across the worker goroutine and the ffmpeg subprocess.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/chaz8081/audioscribe/internal/audio"
	"github.com/chaz8081/audioscribe/internal/config"
	"github.com/chaz8081/audioscribe/internal/media"
	"github.com/chaz8081/audioscribe/internal/profile"
	"github.com/chaz8081/audioscribe/internal/resource"
	"github.com/chaz8081/audioscribe/internal/transcribe"
)

// Phase names reported through Progress.
const (
	PhaseConvert    = "convert"
	PhaseTranscribe = "transcribe"
)

// Progress describes the state of a running job.
type Progress struct {
	Phase        string
	Fraction     float64 // completed fraction of the phase, -1 when unknown
	ElapsedSec   float64
	EstimatedSec float64 // estimated total transcription time, 0 before estimation
}

// ProgressFunc receives progress updates during a job.
type ProgressFunc func(Progress)

// Result is a finished transcription.
type Result struct {
	Text        string
	DurationSec float64 // audio duration
	ElapsedSec  float64 // wall-clock transcription time
	RTF         float64 // ElapsedSec / DurationSec
	Chunks      int
}

// Service runs transcription jobs against one engine instance.
type Service struct {
	engine    transcribe.Transcriber
	profiler  *profile.Profiler
	monitor   *resource.Monitor
	converter *media.Converter
	chunk     config.ChunkConfig

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	startedAt time.Time
	estimated float64
	fraction  float64

	doneCh chan struct{}
	result Result
	err    error
}

// New creates a Service. converter may be nil when only WAV input in the
// target format will be used.
func New(engine transcribe.Transcriber, profiler *profile.Profiler, monitor *resource.Monitor, converter *media.Converter, chunk config.ChunkConfig) *Service {
	return &Service{
		engine:    engine,
		profiler:  profiler,
		monitor:   monitor,
		converter: converter,
		chunk:     chunk,
	}
}

// Transcribe runs the full pipeline synchronously: convert the source to
// recognizer-ready audio if needed, estimate total time from the RTF
// benchmark, feed the audio through the engine window by window, and join
// the per-window transcripts. Cancelling ctx stops between windows and
// kills any in-flight ffmpeg subprocess.
func (s *Service) Transcribe(ctx context.Context, path string, onProgress ProgressFunc) (Result, error) {
	if !media.IsSupported(path) {
		return Result{}, fmt.Errorf("service: unsupported file type: %s", path)
	}

	audioPath, cleanup, err := s.prepareAudio(ctx, path, onProgress)
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	samples, rate, err := audio.LoadWAV(audioPath)
	if err != nil {
		return Result{}, fmt.Errorf("service: %w", err)
	}

	durationSec := audio.Duration(samples, rate)
	rtf := s.profiler.Benchmark(s.engine)
	estimated := s.profiler.Estimate(durationSec)

	s.mu.Lock()
	s.startedAt = time.Now()
	s.estimated = estimated
	s.fraction = 0
	s.mu.Unlock()

	slog.Info("transcription starting",
		"file", path,
		"audio_sec", durationSec,
		"estimated_sec", estimated,
		"rtf", rtf)

	chunks, err := transcribe.Split(samples, rate, s.chunk.WindowSec, s.chunk.OverlapSec)
	if err != nil {
		return Result{}, fmt.Errorf("service: %w", err)
	}

	start := time.Now()
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("service: transcription cancelled: %w", err)
		}

		// Back off while the system is over its resource caps.
		for s.monitor != nil && s.monitor.CheckAndThrottle(ctx) {
			if ctx.Err() != nil {
				return Result{}, fmt.Errorf("service: transcription cancelled: %w", ctx.Err())
			}
		}

		text, err := s.engine.Process(c.Samples)
		if err != nil {
			return Result{}, fmt.Errorf("service: chunk at %.1fs: %w", c.StartSec(rate), err)
		}
		parts = append(parts, text)

		frac := 1.0
		if len(samples) > 0 {
			frac = float64(c.End) / float64(len(samples))
		}
		s.mu.Lock()
		s.fraction = frac
		s.mu.Unlock()

		if onProgress != nil {
			onProgress(Progress{
				Phase:        PhaseTranscribe,
				Fraction:     frac,
				ElapsedSec:   time.Since(start).Seconds(),
				EstimatedSec: s.effectiveEstimate(time.Since(start).Seconds()),
			})
		}
	}

	elapsed := time.Since(start).Seconds()
	res := Result{
		Text:        transcribe.JoinText(parts),
		DurationSec: durationSec,
		ElapsedSec:  elapsed,
		Chunks:      len(chunks),
	}
	if durationSec > 0 {
		res.RTF = elapsed / durationSec
	}

	slog.Info("transcription complete",
		"file", path,
		"elapsed_sec", elapsed,
		"chunks", len(chunks),
		"chars", len(res.Text))

	return res, nil
}

// prepareAudio returns the path to recognizer-ready audio for src plus a
// cleanup func. WAV already in the target format passes through; anything
// else goes through ffmpeg.
func (s *Service) prepareAudio(ctx context.Context, src string, onProgress ProgressFunc) (string, func(), error) {
	if media.IsTargetWAV(src) {
		return src, func() {}, nil
	}

	if s.converter == nil {
		return "", nil, fmt.Errorf("service: %s needs conversion but no converter is available", src)
	}

	durationSec, err := s.converter.ProbeDuration(ctx, src)
	if err != nil {
		slog.Debug("duration probe failed, conversion progress will be indeterminate", "error", err)
		durationSec = 0
	}

	var mediaProgress media.ProgressFunc
	if onProgress != nil {
		mediaProgress = func(f float64) {
			onProgress(Progress{Phase: PhaseConvert, Fraction: f})
		}
	}

	tmpPath, err := s.converter.ExtractAudio(ctx, src, durationSec, mediaProgress)
	if err != nil {
		return "", nil, fmt.Errorf("service: %w", err)
	}
	return tmpPath, func() { media.Cleanup(tmpPath) }, nil
}

// effectiveEstimate applies the auto-extension rule: when the job outlives
// its estimate, the estimate grows by whole estimate periods rather than
// counting down past zero.
func (s *Service) effectiveEstimate(elapsedSec float64) float64 {
	s.mu.Lock()
	est := s.estimated
	s.mu.Unlock()

	if est <= 0 || elapsedSec <= est {
		return est
	}
	return est * math.Ceil(elapsedSec/est)
}

// Start launches Transcribe on a background goroutine. It returns an error
// when a job is already in flight. Completion is observed via Wait.
func (s *Service) Start(path string, onProgress ProgressFunc) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("service: transcription already in progress")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.doneCh = make(chan struct{})
	s.result = Result{}
	s.err = nil
	done := s.doneCh
	s.mu.Unlock()

	go func() {
		res, err := s.Transcribe(ctx, path, onProgress)

		s.mu.Lock()
		s.result = res
		s.err = err
		s.running = false
		s.cancel = nil
		s.mu.Unlock()

		cancel()
		close(done)
	}()

	return nil
}

// Cancel requests cancellation of the in-flight job, if any.
func (s *Service) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Running reports whether a job is in flight.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait blocks until the job started with Start finishes and returns its
// outcome. Calling Wait with no job started returns immediately.
func (s *Service) Wait() (Result, error) {
	s.mu.Lock()
	done := s.doneCh
	s.mu.Unlock()

	if done != nil {
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

// Progress reports elapsed seconds, the (possibly auto-extended) estimated
// total, and the completed audio fraction of the in-flight job. All zeros
// when idle.
func (s *Service) Progress() Progress {
	s.mu.Lock()
	running := s.running
	startedAt := s.startedAt
	fraction := s.fraction
	s.mu.Unlock()

	if !running || startedAt.IsZero() {
		return Progress{}
	}

	elapsed := time.Since(startedAt).Seconds()
	return Progress{
		Phase:        PhaseTranscribe,
		Fraction:     fraction,
		ElapsedSec:   elapsed,
		EstimatedSec: s.effectiveEstimate(elapsed),
	}
}
