package media

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const targetSampleRate = 16000

// ProgressFunc receives conversion progress as a fraction in [0, 1].
// fraction is -1 when the source duration is unknown.
type ProgressFunc func(fraction float64)

// Converter extracts recognizer-ready audio from media files via ffmpeg.
type Converter struct {
	ffmpegPath  string
	ffprobePath string

	// Timeout bounds a single conversion. Zero means no limit.
	Timeout time.Duration
}

// NewConverter locates the ffmpeg and ffprobe binaries on PATH.
func NewConverter() (*Converter, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("media: ffmpeg not found in PATH (install it, e.g. 'apt install ffmpeg' or 'brew install ffmpeg')")
	}
	// ffprobe ships with ffmpeg; absence only disables duration probing.
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		slog.Warn("ffprobe not found, duration probing disabled")
		ffprobe = ""
	}
	return &Converter{ffmpegPath: ffmpeg, ffprobePath: ffprobe}, nil
}

// ProbeDuration returns the media duration in seconds via ffprobe, or an
// error when probing is unavailable or the file is unreadable.
func (c *Converter) ProbeDuration(ctx context.Context, path string) (float64, error) {
	if c.ffprobePath == "" {
		return 0, fmt.Errorf("media: ffprobe not available")
	}

	cmd := exec.CommandContext(ctx, c.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("media: probe %q: %w: %s", path, err, stderr.String())
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("media: parse probed duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return dur, nil
}

// ExtractAudio demuxes and resamples src into a temporary 16kHz mono 16-bit
// WAV and returns its path. The caller owns the temp file. Progress is
// parsed from ffmpeg's -progress stream when onProgress is non-nil; pass
// the probed source duration (0 when unknown). Cancelling ctx kills the
// subprocess and removes the temp file.
func (c *Converter) ExtractAudio(ctx context.Context, src string, durationSec float64, onProgress ProgressFunc) (string, error) {
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("media: source file: %w", err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	tmp, err := os.CreateTemp("", "audioscribe_*.wav")
	if err != nil {
		return "", fmt.Errorf("media: temp file: %w", err)
	}
	dst := tmp.Name()
	tmp.Close()

	cmd := exec.CommandContext(ctx, c.ffmpegPath,
		"-i", src,
		"-ar", strconv.Itoa(targetSampleRate),
		"-ac", "1",
		"-acodec", "pcm_s16le",
		"-progress", "pipe:1",
		"-nostats",
		"-loglevel", "error",
		"-y",
		dst,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("media: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("media: start ffmpeg: %w", err)
	}

	readProgress(stdout, durationSec, onProgress)

	if err := cmd.Wait(); err != nil {
		os.Remove(dst)
		if ctx.Err() != nil {
			return "", fmt.Errorf("media: conversion cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("media: ffmpeg: %w: %s", err, stderr.String())
	}

	return dst, nil
}

// readProgress consumes ffmpeg's key=value -progress stream, reporting the
// fraction of durationSec completed after each update block.
func readProgress(r io.Reader, durationSec float64, onProgress ProgressFunc) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us":
			if onProgress == nil {
				continue
			}
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				continue
			}
			onProgress(progressFraction(float64(us)/1e6, durationSec))
		case "progress":
			if onProgress != nil && value == "end" {
				onProgress(1)
			}
		}
	}
}

// progressFraction clamps processed/total to [0, 1], or -1 when the total
// is unknown.
func progressFraction(processedSec, durationSec float64) float64 {
	if durationSec <= 0 {
		return -1
	}
	f := processedSec / durationSec
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Cleanup removes a temp audio file produced by ExtractAudio. Missing
// files are ignored.
func Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove temp audio", "path", path, "error", err)
	}
}
