package ingesttrace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
)

// Stage represents a pipeline stage used for tracking record processing
// during one normalization run.
type Stage string

const (
	StageSeenFromSource Stage = "seen_from_source"
	StageNormalizedOK   Stage = "normalized_ok"

	StageDroppedPrefix = "dropped_"
)

// StageDropped creates a Stage for a skipped record with the given reason.
func StageDropped(reason string) Stage {
	return Stage(fmt.Sprintf("%s%s", StageDroppedPrefix, reason))
}

// Report accumulates per-stage counters for one transcript normalization.
// A nil *Report is valid and counts nothing, so the normalizer never has to
// branch on whether accounting is enabled.
type Report struct {
	Source  string
	VideoID string
	TraceID string

	mu       sync.Mutex
	counters map[Stage]int64
}

// NewReport constructs a report for one acquisition source and video.
func NewReport(source, videoID string) *Report {
	return &Report{
		Source:   source,
		VideoID:  videoID,
		TraceID:  computeTraceID(source, videoID),
		counters: make(map[Stage]int64),
	}
}

// Inc increments the counter for the provided stage and returns the updated
// value.
func (r *Report) Inc(stage Stage) int64 {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counters[stage]++
	return r.counters[stage]
}

// LogSummary logs the report metadata and counters using structured logging.
func (r *Report) LogSummary(logger *slog.Logger, msg string) {
	if r == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info(msg,
		"trace_id", r.TraceID,
		"source", r.Source,
		"video_id", r.VideoID,
		"counters", r.Snapshot(),
	)
}

// Snapshot returns a copy of the current counters.
func (r *Report) Snapshot() map[Stage]int64 {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	copy := make(map[Stage]int64, len(r.counters))
	for stage, count := range r.counters {
		copy[stage] = count
	}

	return copy
}

func computeTraceID(source, videoID string) string {
	digest := sha256.Sum256([]byte(source + "\x1f" + videoID))
	return hex.EncodeToString(digest[:])
}
