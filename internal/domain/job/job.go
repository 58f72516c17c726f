package job

import (
	"time"
)

// State describes where a job is in its lifecycle.
type State string

const (
	StateValidating  State = "Validating"
	StateDownloading State = "Downloading"
	StateDownloaded  State = "Downloaded"
	StateConverting  State = "Converting"
	StateCompleted   State = "Completed"
	StateError       State = "Error"
	StateCancelled   State = "Cancelled"
)

// Terminal reports whether no further transition can leave the state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError || s == StateCancelled
}

// ProcessHandle lets the cancellation path stop a running external
// process: graceful signal first, forced kill after the grace interval.
// It is never used for data exchange.
type ProcessHandle interface {
	Stop(grace time.Duration)
}

// TranscodeProcess is a running external transcode. Wait blocks until
// the process exits and returns its failure, if any, with the captured
// diagnostic tail.
type TranscodeProcess interface {
	ProcessHandle
	Wait() error
}

// MediaInfo holds probed media metadata.
type MediaInfo struct {
	DurationSeconds float64 `json:"duration"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Codec           string  `json:"codec"`
	Format          string  `json:"format"`
	SizeBytes       int64   `json:"size"`
	BitRate         int64   `json:"bitRate"`
	Quality         string  `json:"quality"`
}

// Record is the single source of truth for one accepted request.
// All mutation goes through the session table so that readers never
// observe a half-written state/field combination.
type Record struct {
	ID        string
	SourceURL string
	State     State
	CreatedAt time.Time

	DownloadProgress   int
	ConversionProgress int

	SourcePath string
	// OutputPath is set together with StateCompleted, never before.
	OutputPath string

	Profile string
	Error   string

	VideoInfo     *MediaInfo
	ConvertedInfo *MediaInfo

	Logs []string

	// Handle references the currently running external process, if any.
	Handle ProcessHandle
}

// Summary is the listing projection of a record.
type Summary struct {
	ID                 string    `json:"id"`
	State              State     `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
	DownloadProgress   int       `json:"downloadProgress"`
	ConversionProgress int       `json:"conversionProgress"`
}

// Summary projects the record for listings.
func (r *Record) Summary() Summary {
	return Summary{
		ID:                 r.ID,
		State:              r.State,
		CreatedAt:          r.CreatedAt,
		DownloadProgress:   r.DownloadProgress,
		ConversionProgress: r.ConversionProgress,
	}
}

// AppendLog appends a timestamped entry to the record's log.
func (r *Record) AppendLog(message string) {
	r.Logs = append(r.Logs, "["+time.Now().Format("15:04:05")+"] "+message)
}
