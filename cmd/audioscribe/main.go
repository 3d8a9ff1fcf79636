package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/schollz/progressbar/v3"

	"github.com/chaz8081/audioscribe/internal/config"
	"github.com/chaz8081/audioscribe/internal/media"
	"github.com/chaz8081/audioscribe/internal/models"
	"github.com/chaz8081/audioscribe/internal/profile"
	"github.com/chaz8081/audioscribe/internal/resource"
	"github.com/chaz8081/audioscribe/internal/service"
	"github.com/chaz8081/audioscribe/internal/transcribe"
)

var cli struct {
	Config   string `help:"Path to config file (default: ~/.config/audioscribe/config.yaml)" type:"path"`
	Engine   string `help:"Override the transcription engine (whisper, parakeet, exec, mock)"`
	LogLevel string `help:"Override the log level (debug, info, warn, error)"`

	Transcribe TranscribeCmd `cmd:"" help:"Transcribe one audio or video file to text"`
	Batch      BatchCmd      `cmd:"" help:"Transcribe every supported media file in a directory"`
	Models     ModelsCmd     `cmd:"" help:"Download and inspect speech models"`
	Bench      BenchCmd      `cmd:"" help:"Measure engine speed, optionally scoring accuracy against a reference transcript"`
}

// app carries the parsed config and the signal-cancelled context into
// subcommand Run methods.
type app struct {
	ctx context.Context
	cfg *config.Config
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("audioscribe"),
		kong.Description("Offline speech-to-text for long recordings, with chunked recognition and ffmpeg media conversion."),
		kong.UsageOnError(),
	)

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cli.Engine != "" {
		cfg.Engine = cli.Engine
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := kctx.Run(&app{ctx: ctx, cfg: cfg}); err != nil {
		log.Fatalf("%v", err)
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		slog.Debug("config loaded", "path", defaultPath)
		return cfg, nil
	}

	return config.Default(), nil
}

func setupLogging(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// newService builds the transcription pipeline from the config. The
// returned closer releases the engine. A background watcher logs resource
// usage at debug level until ctx is cancelled.
func newService(ctx context.Context, cfg *config.Config) (*service.Service, func(), error) {
	engine, err := transcribe.New(&cfg.Models, cfg.Engine)
	if err != nil {
		return nil, nil, err
	}

	monitor := resource.NewMonitor(cfg.Limits.MaxCPUPercent, cfg.Limits.MaxRAMPercent)
	go monitor.Watch(ctx, time.Duration(cfg.Limits.PollIntervalSec*float64(time.Second)), func(s resource.Snapshot) {
		slog.Debug("resource usage",
			"cpu_percent", s.CPUPercent,
			"ram_percent", s.RAMPercent,
			"ram_used_mb", int(s.RAMUsedMB))
	})

	converter, err := media.NewConverter()
	if err != nil {
		// WAV input in the target format still works without ffmpeg.
		slog.Warn("media conversion unavailable", "error", err)
		converter = nil
	} else {
		converter.Timeout = time.Duration(cfg.Convert.TimeoutSec) * time.Second
	}

	svc := service.New(engine, profile.NewProfiler(), monitor, converter, cfg.Chunk)
	closer := func() {
		if err := engine.Close(); err != nil {
			slog.Warn("engine close failed", "error", err)
		}
	}
	return svc, closer, nil
}

const progressScale = 1000

// newProgressRenderer returns a ProgressFunc that drives a terminal
// progress bar, relabelling it when the pipeline changes phase.
func newProgressRenderer() service.ProgressFunc {
	bar := progressbar.NewOptions(progressScale,
		progressbar.OptionSetDescription("starting"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
	)
	phase := ""
	return func(p service.Progress) {
		if p.Phase != phase {
			phase = p.Phase
			label := phase
			if p.EstimatedSec > 0 {
				label = fmt.Sprintf("%s (~%ds)", phase, int(p.EstimatedSec))
			}
			bar.Describe(label)
		}
		if p.Fraction >= 0 {
			_ = bar.Set(int(p.Fraction * progressScale))
		}
	}
}

// TranscribeCmd transcribes a single file.
type TranscribeCmd struct {
	File       string `arg:"" help:"Audio or video file to transcribe" type:"existingfile"`
	Output     string `short:"o" help:"Write the transcript to this file instead of stdout" type:"path"`
	Language   string `short:"l" help:"Spoken language hint for the whisper engine (default: auto-detect)"`
	Threads    int    `short:"t" help:"Number of inference threads"`
	NoProgress bool   `help:"Disable the progress bar"`
}

func (t *TranscribeCmd) Run(a *app) error {
	if t.Language != "" {
		a.cfg.Models.Whisper.Language = t.Language
	}
	if t.Threads > 0 {
		a.cfg.Models.Whisper.Threads = t.Threads
		a.cfg.Models.Parakeet.Threads = t.Threads
	}

	svc, closer, err := newService(a.ctx, a.cfg)
	if err != nil {
		return err
	}
	defer closer()

	var render service.ProgressFunc
	if !t.NoProgress {
		render = newProgressRenderer()
	}

	res, err := svc.Transcribe(a.ctx, t.File, render)
	if err != nil {
		return err
	}

	slog.Info("transcription finished",
		"audio_sec", res.DurationSec,
		"elapsed_sec", res.ElapsedSec,
		"rtf", res.RTF,
		"chunks", res.Chunks,
	)

	if t.Output != "" {
		if err := os.WriteFile(t.Output, []byte(res.Text+"\n"), 0644); err != nil {
			return fmt.Errorf("writing transcript: %w", err)
		}
		fmt.Printf("Transcript written to %s\n", t.Output)
		return nil
	}

	fmt.Println(res.Text)
	return nil
}

// BatchCmd transcribes a whole directory.
type BatchCmd struct {
	Dir        string `arg:"" help:"Directory of media files" type:"existingdir"`
	OutputDir  string `short:"o" help:"Directory for the .txt transcripts (default: the input directory)" type:"path"`
	NoProgress bool   `help:"Disable the per-file progress bar"`
}

func (b *BatchCmd) Run(a *app) error {
	svc, closer, err := newService(a.ctx, a.cfg)
	if err != nil {
		return err
	}
	defer closer()

	outDir := b.OutputDir
	if outDir == "" {
		outDir = b.Dir
	}

	var render service.ProgressFunc
	if !b.NoProgress {
		render = newProgressRenderer()
	}

	res, err := svc.TranscribeDir(a.ctx, b.Dir, outDir, func(i, n int, name string) {
		fmt.Printf("[%d/%d] %s\n", i, n, name)
	}, render)
	if err != nil {
		return err
	}

	fmt.Printf("Done: %d transcribed, %d failed\n", len(res.Outputs), len(res.Failed))
	for _, f := range res.Failed {
		fmt.Printf("  failed: %v\n", f)
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d file(s) failed", len(res.Failed))
	}
	return nil
}

// ModelsCmd groups model management subcommands.
type ModelsCmd struct {
	Download ModelsDownloadCmd `cmd:"" help:"Download models from HuggingFace"`
	List     ModelsListCmd     `cmd:"" help:"Show installed models"`
}

// ModelsDownloadCmd downloads one or all models.
type ModelsDownloadCmd struct {
	Model string `arg:"" optional:"" default:"all" help:"Which model to download: whisper, parakeet, or all" enum:"whisper,parakeet,all"`
}

func (m *ModelsDownloadCmd) Run(a *app) error {
	dir := a.cfg.Models.Dir
	switch m.Model {
	case "whisper":
		return models.DownloadWhisper(dir)
	case "parakeet":
		return models.DownloadParakeet(dir)
	default:
		return models.DownloadAll(dir)
	}
}

// ModelsListCmd prints install state for every known model.
type ModelsListCmd struct{}

func (m *ModelsListCmd) Run(a *app) error {
	fmt.Printf("Models directory: %s\n\n", a.cfg.Models.Dir)
	for _, st := range models.Status(a.cfg.Models.Dir) {
		mark := " "
		size := "not installed"
		if st.Installed {
			mark = "*"
			size = fmt.Sprintf("%.1f MB", st.SizeMB)
		}
		fmt.Printf("  [%s] %-30s %s\n      %s\n", mark, st.Name, size, st.Path)
	}
	if missing := models.MissingParakeetFiles(a.cfg.Models.Dir); len(missing) > 0 {
		fmt.Printf("\nParakeet files missing: %s\n", strings.Join(missing, ", "))
	}
	return nil
}

// BenchCmd measures the engine's real-time factor, and when given a file
// transcribes it and reports speed, plus word error rate against an
// optional reference transcript.
type BenchCmd struct {
	File      string `arg:"" optional:"" help:"Media file to transcribe for the benchmark" type:"existingfile"`
	Reference string `help:"Reference transcript file for word error rate" type:"existingfile"`
}

func (b *BenchCmd) Run(a *app) error {
	engine, err := transcribe.New(&a.cfg.Models, a.cfg.Engine)
	if err != nil {
		return err
	}
	defer engine.Close()

	profiler := profile.NewProfiler()
	rtf := profiler.Benchmark(engine)
	fmt.Printf("Engine: %s\n", a.cfg.Engine)
	fmt.Printf("RTF:    %.3f (1 minute of audio takes ~%.0fs)\n", rtf, profiler.Estimate(60))

	usage := resource.NewMonitor(a.cfg.Limits.MaxCPUPercent, a.cfg.Limits.MaxRAMPercent).Usage()
	fmt.Printf("System: CPU %.0f%%, RAM %.0f%% (%.0f/%.0f MB)\n",
		usage.CPUPercent, usage.RAMPercent, usage.RAMUsedMB, usage.RAMTotalMB)

	if b.File == "" {
		return nil
	}

	converter, cerr := media.NewConverter()
	if cerr != nil {
		slog.Warn("media conversion unavailable", "error", cerr)
		converter = nil
	} else {
		converter.Timeout = time.Duration(a.cfg.Convert.TimeoutSec) * time.Second
	}
	svc := service.New(engine, profiler, nil, converter, a.cfg.Chunk)

	res, err := svc.Transcribe(a.ctx, b.File, newProgressRenderer())
	if err != nil {
		return err
	}

	fmt.Printf("\nFile:    %s\n", filepath.Base(b.File))
	fmt.Printf("Audio:   %.1fs in %d chunk(s)\n", res.DurationSec, res.Chunks)
	fmt.Printf("Elapsed: %.1fs (RTF %.3f)\n", res.ElapsedSec, res.RTF)

	if b.Reference != "" {
		ref, err := os.ReadFile(b.Reference)
		if err != nil {
			return fmt.Errorf("reading reference: %w", err)
		}
		wer := transcribe.ComputeWER(string(ref), res.Text)
		fmt.Printf("WER:     %.2f%% (%d sub, %d ins, %d del over %d words)\n",
			wer.WER*100, wer.Substitutions, wer.Insertions, wer.Deletions, wer.RefWords)
	}
	return nil
}
