package models

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
)

const (
	whisperModelURL  = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.en.bin"
	whisperModelName = "ggml-base.en.bin"
	parakeetRepoURL  = "https://huggingface.co/csukuangfj/sherpa-onnx-nemo-parakeet-tdt-0.6b-v3-int8/resolve/main"
	parakeetDirName  = "parakeet-tdt-v3"
)

// parakeetFiles are the files needed from the parakeet HuggingFace repo.
var parakeetFiles = []string{
	"encoder.int8.onnx",
	"decoder.int8.onnx",
	"joiner.int8.onnx",
	"tokens.txt",
}

// ModelStatus describes one installable model for 'models list'.
type ModelStatus struct {
	Name      string
	Path      string
	Installed bool
	SizeMB    float64
}

// DownloadWhisper downloads the whisper ggml model into modelsDir.
// It shows download progress to stdout.
func DownloadWhisper(modelsDir string) error {
	return downloadWhisperFrom(whisperModelURL, modelsDir)
}

func downloadWhisperFrom(url, modelsDir string) error {
	if err := os.MkdirAll(modelsDir, 0755); err != nil {
		return fmt.Errorf("creating models dir: %w", err)
	}

	destPath := filepath.Join(modelsDir, whisperModelName)

	// Check if already downloaded
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		fmt.Printf("  Whisper model already exists: %s (%.0f MB)\n", destPath, float64(info.Size())/(1024*1024))
		return nil
	}

	fmt.Printf("  Downloading whisper model from HuggingFace...\n")
	fmt.Printf("  Destination: %s\n", destPath)

	if err := downloadFile(url, destPath, whisperModelName); err != nil {
		return fmt.Errorf("downloading whisper model: %w", err)
	}
	return nil
}

// DownloadParakeet downloads the parakeet ONNX models into modelsDir.
// Files already present with nonzero size are skipped.
func DownloadParakeet(modelsDir string) error {
	return downloadParakeetFrom(parakeetRepoURL, modelsDir)
}

func downloadParakeetFrom(baseURL, modelsDir string) error {
	destDir := filepath.Join(modelsDir, parakeetDirName)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("creating models dir: %w", err)
	}

	fmt.Printf("  Downloading parakeet models from HuggingFace...\n")
	fmt.Printf("  Destination: %s\n", destDir)

	for _, name := range parakeetFiles {
		destPath := filepath.Join(destDir, name)
		if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
			fmt.Printf("  %s already exists, skipping\n", name)
			continue
		}
		if err := downloadFile(baseURL+"/"+name, destPath, name); err != nil {
			return fmt.Errorf("downloading %s: %w", name, err)
		}
	}

	fmt.Printf("  Parakeet models installed successfully.\n")
	return nil
}

// DownloadAll downloads every model into modelsDir.
func DownloadAll(modelsDir string) error {
	fmt.Println("[1/2] Whisper model:")
	if err := DownloadWhisper(modelsDir); err != nil {
		return fmt.Errorf("whisper download failed: %w", err)
	}
	fmt.Println()
	fmt.Println("[2/2] Parakeet models:")
	if err := DownloadParakeet(modelsDir); err != nil {
		return fmt.Errorf("parakeet download failed: %w", err)
	}
	return nil
}

// downloadFile fetches url into destPath with a progress bar. The file is
// written to a temp path first and renamed into place once complete.
func downloadFile(url, destPath, label string) error {
	resp, err := http.Get(url) //nolint:gosec // URLs are built from compile-time constants
	if err != nil {
		return fmt.Errorf("fetching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	bar := progressbar.DefaultBytes(resp.ContentLength, "  "+label)
	_, err = io.Copy(io.MultiWriter(f, bar), resp.Body)
	f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing model file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("moving model file: %w", err)
	}
	return nil
}

// Status reports install state for every known model under modelsDir.
func Status(modelsDir string) []ModelStatus {
	statuses := []ModelStatus{whisperStatus(modelsDir)}

	destDir := filepath.Join(modelsDir, parakeetDirName)
	parakeet := ModelStatus{Name: "parakeet (TDT v3, int8 ONNX)", Path: destDir, Installed: true}
	for _, name := range parakeetFiles {
		info, err := os.Stat(filepath.Join(destDir, name))
		if err != nil || info.Size() == 0 {
			parakeet.Installed = false
			continue
		}
		parakeet.SizeMB += float64(info.Size()) / (1024 * 1024)
	}
	if !parakeet.Installed {
		parakeet.SizeMB = 0
	}

	return append(statuses, parakeet)
}

func whisperStatus(modelsDir string) ModelStatus {
	path := filepath.Join(modelsDir, whisperModelName)
	st := ModelStatus{Name: "whisper (base.en, ggml)", Path: path}
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		st.Installed = true
		st.SizeMB = float64(info.Size()) / (1024 * 1024)
	}
	return st
}

// MissingParakeetFiles lists the parakeet files absent from modelsDir.
func MissingParakeetFiles(modelsDir string) []string {
	destDir := filepath.Join(modelsDir, parakeetDirName)
	var missing []string
	for _, name := range parakeetFiles {
		info, err := os.Stat(filepath.Join(destDir, name))
		if err != nil || info.Size() == 0 {
			missing = append(missing, name)
		}
	}
	return missing
}
