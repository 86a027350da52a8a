package progress

import "time"

// Stage identifies a high-level step in the conversion pipeline.
type Stage string

const (
	StageLoading    Stage = "loading"
	StageAnalyzing  Stage = "analyzing"
	StageProcessing Stage = "processing"
	StageFinalizing Stage = "finalizing"
	StageCompleted  Stage = "completed"
	StageError      Stage = "error"
)

// order maps pipeline stages to their position in the canonical sequence.
// Terminal stages share the highest slot so they never reorder each other.
var order = map[Stage]int{
	StageLoading:    0,
	StageAnalyzing:  1,
	StageProcessing: 2,
	StageFinalizing: 3,
	StageCompleted:  4,
	StageError:      4,
}

// Index returns the ordinal position of s in the stage sequence, or -1 for
// an unknown stage.
func Index(s Stage) int {
	if i, ok := order[s]; ok {
		return i
	}
	return -1
}

// LogStream indicates which stream produced a log line.
type LogStream int

const (
	StreamStdout LogStream = iota
	StreamStderr
)

// Update conveys progress or stage changes for a job.
// Percent is 0..100 when known; set to a negative value (e.g., -1) to mean unknown.
type Update struct {
	JobID   string
	Stage   Stage
	Percent float64 // 0..100, or <0 if unknown

	ETA         *time.Duration // optional
	FramesDone  int            // 0 if unknown
	FramesTotal int            // 0 if unknown
	Message     string         // short human-friendly status line
}

// Log is a structured log line associated with a job.
type Log struct {
	JobID  string
	Stream LogStream
	Line   string
}

// Result is emitted once per job when it completes or fails.
type Result struct {
	JobID      string
	OutputPath string
	Bytes      int64
	Err        error // nil on success
}

// Reporter is implemented by UI or any observer interested in progress events.
type Reporter interface {
	Update(u Update)
	Log(l Log)
	Result(r Result)
}
