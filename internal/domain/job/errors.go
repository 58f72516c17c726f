package job

import "errors"

var (
	// ErrNotFound is returned for an unknown job id or missing artifact.
	ErrNotFound = errors.New("job not found")

	// ErrInvalidInput is returned for a malformed URL or unsupported
	// quality profile, before any record mutation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPreconditionFailed is returned when an operation is requested
	// in the wrong state, e.g. convert before the download finished.
	ErrPreconditionFailed = errors.New("operation not allowed in current state")

	// ErrFetchFailed marks a failed source download.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrTranscodeFailed marks a failed conversion.
	ErrTranscodeFailed = errors.New("transcode failed")

	// ErrTimeout marks an expired external invocation in either phase.
	ErrTimeout = errors.New("operation timed out")

	// ErrCancelled marks a user-initiated cancellation.
	ErrCancelled = errors.New("job cancelled")
)
