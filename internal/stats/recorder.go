package stats

import "github.com/utilitarian/spot-archive/internal/model"

// Recorder persists a history of computed day statistics for later analysis.
type Recorder interface {
	RecordDayStats(area string, stats model.DayStatistics) error
	Close() error
}

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func (NoopRecorder) RecordDayStats(string, model.DayStatistics) error { return nil }
func (NoopRecorder) Close() error                                     { return nil }
