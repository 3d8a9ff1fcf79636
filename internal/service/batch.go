package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chaz8081/audioscribe/internal/media"
)

// FileFunc is notified before each file in a batch run.
type FileFunc func(index, total int, name string)

// BatchError records a per-file failure without stopping the batch.
type BatchError struct {
	File string
	Err  error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

// BatchResult summarizes a directory run.
type BatchResult struct {
	Outputs []string // written transcript paths
	Failed  []BatchError
}

// TranscribeDir transcribes every supported media file in dir, writing
// one <base>.txt per input into outDir. Files are processed in name order.
// Per-file failures are collected and the batch continues; cancellation
// stops the batch at the next file boundary.
func (s *Service) TranscribeDir(ctx context.Context, dir, outDir string, onFile FileFunc, onProgress ProgressFunc) (BatchResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return BatchResult{}, fmt.Errorf("service: read dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !media.IsSupported(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	if len(files) == 0 {
		return BatchResult{}, fmt.Errorf("service: no supported media files in %s", dir)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return BatchResult{}, fmt.Errorf("service: create output dir: %w", err)
	}

	var res BatchResult
	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("service: batch cancelled: %w", err)
		}

		if onFile != nil {
			onFile(i+1, len(files), name)
		}

		r, err := s.Transcribe(ctx, filepath.Join(dir, name), onProgress)
		if err != nil {
			if ctx.Err() != nil {
				return res, fmt.Errorf("service: batch cancelled: %w", ctx.Err())
			}
			slog.Error("batch file failed", "file", name, "error", err)
			res.Failed = append(res.Failed, BatchError{File: name, Err: err})
			continue
		}

		outPath := filepath.Join(outDir, baseName(name)+".txt")
		if err := os.WriteFile(outPath, []byte(r.Text+"\n"), 0644); err != nil {
			res.Failed = append(res.Failed, BatchError{File: name, Err: fmt.Errorf("write transcript: %w", err)})
			continue
		}
		res.Outputs = append(res.Outputs, outPath)
	}

	return res, nil
}

// baseName strips the extension from a file name.
func baseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
