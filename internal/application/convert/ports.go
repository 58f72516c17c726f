package convert

import (
	"context"

	"vidmill/internal/domain/job"
)

// Fetcher retrieves the bytes behind a URL into a local file.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Prober extracts media metadata from a local file.
type Prober interface {
	Probe(ctx context.Context, path string) (job.MediaInfo, error)
}

// Transcoder starts external transcode processes. durationSeconds is
// the probed source duration; zero means the progress stream cannot be
// converted to a percentage and onProgress is never called. onProgress
// receives clamped percentages, only when they change.
type Transcoder interface {
	Available(ctx context.Context) error
	Start(ctx context.Context, inputPath, outputPath string, profile job.Profile, durationSeconds float64, onProgress func(percent int)) (job.TranscodeProcess, error)
}

// ArtifactStore resolves on-disk locations for job artifacts.
type ArtifactStore interface {
	SourcePath(id string) string
	OutputPath(id, profile string) string
}
