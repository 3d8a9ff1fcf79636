// Package media converts video and compressed audio files into the 16kHz
// mono WAV the recognizers consume, by driving ffmpeg/ffprobe subprocesses.
package media

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
)

// videoExts are the container formats treated as video input.
var videoExts = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
	".webm": true, ".flv": true, ".wmv": true,
}

// audioExts are the formats treated as audio input.
var audioExts = map[string]bool{
	".wav": true, ".mp3": true, ".ogg": true, ".flac": true, ".aac": true,
}

// IsVideo reports whether the file extension is a supported video format.
func IsVideo(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// IsAudio reports whether the file extension is a supported audio format.
func IsAudio(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// IsSupported reports whether the file is either audio or video.
func IsSupported(path string) bool {
	return IsVideo(path) || IsAudio(path)
}

// IsTargetWAV reports whether the file is already a 16kHz mono 16-bit WAV
// and can skip conversion.
func IsTargetWAV(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return false
	}
	return dec.BitDepth == 16 && dec.NumChans == 1 && dec.SampleRate == 16000
}
