package recorder

import "time"

// RunEvent describes one ranked analysis run.
type RunEvent struct {
	RunID    string
	Source   string // "cache" or "network"
	Series   int    // series loaded
	Analysed int    // series that survived the history filter
	Duration time.Duration
	Err      string
}

// FetchEvent describes the download of one ticker within a run.
type FetchEvent struct {
	RunID    string
	Symbol   string
	Name     string
	Points   int
	Duration time.Duration
	Err      string
}

// RunSummary is a stored RunEvent with its timestamp.
type RunSummary struct {
	RunEvent
	At time.Time
}

// Recorder keeps an operational log of runs and fetches. No analysis
// result is stored.
type Recorder interface {
	RecordRun(evt *RunEvent) error
	RecordFetch(evt *FetchEvent) error
	RecentRuns(limit int) ([]RunSummary, error)
	Close() error
}
