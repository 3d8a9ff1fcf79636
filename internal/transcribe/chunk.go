package transcribe

import (
	"fmt"
	"strings"
)

// Chunk is one bounded-length window of audio. Start and End are sample
// offsets into the original buffer; consecutive chunks overlap so words
// spanning a boundary are seen whole by at least one window.
type Chunk struct {
	Samples []float32
	Start   int // inclusive sample offset
	End     int // exclusive sample offset
}

// StartSec returns the chunk start position in seconds.
func (c Chunk) StartSec(sampleRate int) float64 {
	return float64(c.Start) / float64(sampleRate)
}

// EndSec returns the chunk end position in seconds.
func (c Chunk) EndSec(sampleRate int) float64 {
	return float64(c.End) / float64(sampleRate)
}

// Split cuts a sample buffer into windows of at most windowSec seconds with
// overlapSec seconds shared between consecutive windows. The recognizers
// have a bounded attention window, so long audio must be fed piecewise.
//
// The last window may be shorter than windowSec. Audio no longer than one
// window yields a single chunk. Chunks share backing memory with samples.
func Split(samples []float32, sampleRate int, windowSec, overlapSec float64) ([]Chunk, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("transcribe: sample rate must be > 0, got %d", sampleRate)
	}
	if windowSec <= 0 {
		return nil, fmt.Errorf("transcribe: window must be > 0, got %g", windowSec)
	}
	if overlapSec < 0 || overlapSec >= windowSec {
		return nil, fmt.Errorf("transcribe: overlap %g must be in [0, window %g)", overlapSec, windowSec)
	}
	if len(samples) == 0 {
		return nil, nil
	}

	window := int(windowSec * float64(sampleRate))
	step := window - int(overlapSec*float64(sampleRate))
	// The float guard above is not enough: after truncation to sample
	// counts, window and overlap can land on the same value and the loop
	// below would never advance.
	if window <= 0 || step <= 0 {
		return nil, fmt.Errorf("transcribe: window %gs and overlap %gs truncate to a step of %d samples at %d Hz", windowSec, overlapSec, step, sampleRate)
	}

	var chunks []Chunk
	for start := 0; ; start += step {
		end := start + window
		if end >= len(samples) {
			chunks = append(chunks, Chunk{Samples: samples[start:], Start: start, End: len(samples)})
			break
		}
		chunks = append(chunks, Chunk{Samples: samples[start:end], Start: start, End: end})
	}
	return chunks, nil
}

// JoinText stitches per-chunk transcripts into one transcript, separated by
// single spaces. Empty chunk results are dropped.
func JoinText(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
