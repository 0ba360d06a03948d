package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/atikulmunna/weft/internal/model"
)

// Stats holds a point-in-time snapshot of stream metrics.
type Stats struct {
	Uptime         string           `json:"uptime"`
	TotalRecords   int64            `json:"total_records"`
	RPS            float64          `json:"rps"`
	FieldCounts    map[string]int64 `json:"field_counts"`
	DroppedRecords int64            `json:"dropped_records"`
	SkippedLines   int64            `json:"skipped_lines"`
	FilesWatched   int              `json:"files_watched"`
}

// Aggregator subscribes to the Hub and computes time-windowed statistics
// about the metric stream itself: how many records arrived, how often, and
// which fields they carried.
type Aggregator struct {
	mu           sync.RWMutex
	startTime    time.Time
	totalRecords int64
	fieldCounts  map[string]int64
	window       []time.Time // timestamps for records/s calculation (last 5 seconds)
	dropped      func() int64
	skipped      func() int64
	fileCount    func() int
	records      <-chan model.Record
}

// New creates an Aggregator that reads from the given Hub subscriber channel.
// The droppedFn, skippedFn and fileCountFn callbacks provide live values from
// the Hub and Watcher respectively.
func New(records <-chan model.Record, droppedFn, skippedFn func() int64, fileCountFn func() int) *Aggregator {
	return &Aggregator{
		startTime:   time.Now(),
		fieldCounts: make(map[string]int64),
		dropped:     droppedFn,
		skipped:     skippedFn,
		fileCount:   fileCountFn,
		records:     records,
	}
}

// Snapshot returns the current statistics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	// Copy field counts.
	counts := make(map[string]int64)
	for k, v := range a.fieldCounts {
		counts[k] = v
	}

	// Calculate records/s from the sliding window.
	now := time.Now()
	cutoff := now.Add(-5 * time.Second)
	var recent int
	for _, t := range a.window {
		if t.After(cutoff) {
			recent++
		}
	}
	rps := float64(recent) / 5.0

	return Stats{
		Uptime:         time.Since(a.startTime).Truncate(time.Second).String(),
		TotalRecords:   a.totalRecords,
		RPS:            rps,
		FieldCounts:    counts,
		DroppedRecords: a.dropped(),
		SkippedLines:   a.skipped(),
		FilesWatched:   a.fileCount(),
	}
}

// Start begins consuming records and updating statistics. Blocks until the
// context is cancelled.
func (a *Aggregator) Start(ctx context.Context) {
	// Periodically prune the sliding window.
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-a.records:
			if !ok {
				return
			}
			a.record(rec)
		case <-ticker.C:
			a.prune()
		}
	}
}

// record adds a metric record to the statistics.
func (a *Aggregator) record(rec model.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalRecords++
	for name := range rec.Fields {
		a.fieldCounts[name]++
	}
	a.window = append(a.window, time.Now())
}

// prune removes timestamps older than 5 seconds from the sliding window.
func (a *Aggregator) prune() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-5 * time.Second)
	i := 0
	for _, t := range a.window {
		if t.After(cutoff) {
			a.window[i] = t
			i++
		}
	}
	a.window = a.window[:i]
}
