package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"vidmill/internal/domain/job"
)

const defaultAttempts = 2

// HTTPFetcher retrieves a remote URL into a local file with a bounded
// retry count. The caller bounds total time through ctx.
type HTTPFetcher struct {
	client   *http.Client
	attempts int
	maxBytes int64
}

// NewHTTPFetcher creates a fetcher. maxBytes caps the downloaded size;
// zero means unlimited.
func NewHTTPFetcher(maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		// Per-request timing is governed by the request context.
		client:   &http.Client{},
		attempts: defaultAttempts,
		maxBytes: maxBytes,
	}
}

// Fetch downloads url into dest. An empty body is a failure and the
// partial file is removed. A deadline expiry is surfaced as a timeout
// and not retried further.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, dest string) error {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		err := f.fetchOnce(ctx, url, dest)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: download did not finish in time", job.ErrTimeout)
			}
			return ctx.Err()
		}

		if attempt < f.attempts {
			sleepCtx(ctx, time.Second)
		}
	}
	return fmt.Errorf("%w: %v", job.ErrFetchFailed, lastErr)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	body := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}

	written, copyErr := io.Copy(out, body)
	closeErr := out.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(dest)
		return copyErr
	case closeErr != nil:
		_ = os.Remove(dest)
		return closeErr
	case written == 0:
		_ = os.Remove(dest)
		return errors.New("downloaded file is empty")
	case f.maxBytes > 0 && written > f.maxBytes:
		_ = os.Remove(dest)
		return fmt.Errorf("source exceeds size limit of %d bytes", f.maxBytes)
	}

	return nil
}

// sleepCtx pauses between retries without outliving the context.
func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
