package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"vidmill/internal/application/session"
	"vidmill/internal/domain/job"
)

const (
	defaultFetchTimeout   = 2 * time.Minute
	defaultProbeTimeout   = 30 * time.Second
	defaultConvertTimeout = 10 * time.Minute
	defaultCancelGrace    = 3 * time.Second
	defaultConcurrency    = 2
)

// Config bounds the external invocations driven by the service.
type Config struct {
	FetchTimeout   time.Duration
	ProbeTimeout   time.Duration
	ConvertTimeout time.Duration
	CancelGrace    time.Duration
	Concurrency    int
}

func (c Config) withDefaults() Config {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaultFetchTimeout
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = defaultProbeTimeout
	}
	if c.ConvertTimeout <= 0 {
		c.ConvertTimeout = defaultConvertTimeout
	}
	if c.CancelGrace <= 0 {
		c.CancelGrace = defaultCancelGrace
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	return c
}

// Health reports collaborator liveness and job counts.
type Health struct {
	TranscoderOK bool
	ActiveJobs   int
	TotalJobs    int
}

// Service owns the job lifecycle: it validates submissions, runs one
// download worker and at most one conversion worker per job, handles
// cancellation, and answers status polls from the session table.
type Service struct {
	table      *session.Table
	store      ArtifactStore
	fetcher    Fetcher
	prober     Prober
	transcoder Transcoder
	logger     *slog.Logger
	cfg        Config

	convertSlots chan struct{}
}

// NewService wires the lifecycle manager with its external ports.
func NewService(table *session.Table, store ArtifactStore, fetcher Fetcher, prober Prober, transcoder Transcoder, logger *slog.Logger, cfg Config) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		table:        table,
		store:        store,
		fetcher:      fetcher,
		prober:       prober,
		transcoder:   transcoder,
		logger:       logger,
		cfg:          cfg,
		convertSlots: make(chan struct{}, cfg.Concurrency),
	}
}

// Submit validates the source URL, creates a record and starts the
// download worker. Validation failures never create a record.
func (s *Service) Submit(rawURL string) (job.Record, error) {
	trimmed := strings.TrimSpace(rawURL)
	parsed, err := url.Parse(trimmed)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return job.Record{}, fmt.Errorf("%w: URL must start with http:// or https://", job.ErrInvalidInput)
	}

	rec := s.table.Create(trimmed)
	s.logger.Info("job submitted", slog.String("job_id", rec.ID), slog.String("url", trimmed))

	go s.runDownload(rec.ID, trimmed)

	return rec, nil
}

// Status returns a snapshot of the record.
func (s *Service) Status(id string) (job.Record, error) {
	return s.table.Get(id)
}

// List returns summaries of all records.
func (s *Service) List() []job.Summary {
	return s.table.List()
}

// Convert atomically moves a Downloaded job into Converting and starts
// the conversion worker. A job in any other state is rejected without
// a state change, so a duplicate request never spawns a second worker.
func (s *Service) Convert(id, profileName string) (job.Record, error) {
	profile, ok := job.ProfileByName(profileName)
	if !ok {
		return job.Record{}, fmt.Errorf("%w: unsupported quality profile %q", job.ErrInvalidInput, profileName)
	}

	var (
		sourcePath string
		duration   float64
	)
	err := s.table.Update(id, func(rec *job.Record) error {
		if rec.State != job.StateDownloaded {
			return fmt.Errorf("%w: job is %s, expected %s", job.ErrPreconditionFailed, rec.State, job.StateDownloaded)
		}
		rec.State = job.StateConverting
		rec.Profile = profile.Name
		rec.ConversionProgress = 0
		if rec.VideoInfo != nil {
			duration = rec.VideoInfo.DurationSeconds
		}
		sourcePath = rec.SourcePath
		rec.AppendLog("conversion to " + profile.Name + " started")
		return nil
	})
	if err != nil {
		return job.Record{}, err
	}

	s.logger.Info("conversion started", slog.String("job_id", id), slog.String("profile", profile.Name))
	go s.runConversion(id, sourcePath, profile, duration)

	return s.table.Get(id)
}

// Cancel stops the job's external process, if one is running, and
// marks the record Cancelled. Terminal jobs absorb it as a no-op.
func (s *Service) Cancel(id string) (job.Record, error) {
	var handle job.ProcessHandle
	err := s.table.Update(id, func(rec *job.Record) error {
		if rec.State.Terminal() {
			return nil
		}
		handle = rec.Handle
		rec.Handle = nil
		rec.State = job.StateCancelled
		rec.AppendLog("cancelled by user")
		return nil
	})
	if err != nil {
		return job.Record{}, err
	}

	if handle != nil {
		go handle.Stop(s.cfg.CancelGrace)
	}

	s.logger.Info("job cancelled", slog.String("job_id", id))
	return s.table.Get(id)
}

// Health checks the transcoder binary and counts jobs.
func (s *Service) Health(ctx context.Context) Health {
	active, total := s.table.Counts()
	return Health{
		TranscoderOK: s.transcoder.Available(ctx) == nil,
		ActiveJobs:   active,
		TotalJobs:    total,
	}
}

// cancelHandle adapts a context cancel into a process handle for the
// download phase; an HTTP fetch has no graceful/forced distinction.
type cancelHandle struct {
	cancel context.CancelFunc
}

func (h cancelHandle) Stop(time.Duration) {
	h.cancel()
}

func (s *Service) runDownload(id, sourceURL string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout)
	defer cancel()

	dest := s.store.SourcePath(id)
	started := s.table.Update(id, func(rec *job.Record) error {
		if rec.State.Terminal() {
			return job.ErrCancelled
		}
		rec.State = job.StateDownloading
		rec.SourcePath = dest
		rec.DownloadProgress = 0
		rec.Handle = cancelHandle{cancel: cancel}
		rec.AppendLog("download started: " + sourceURL)
		return nil
	})
	if started != nil {
		return
	}

	if err := s.fetcher.Fetch(ctx, sourceURL, dest); err != nil {
		s.failJob(id, s.classify(ctx, err, "download"))
		return
	}

	info, probeErr := s.probe(dest)
	if probeErr != nil {
		s.logger.Warn("source probe failed", slog.String("job_id", id), slog.String("error", probeErr.Error()))
	}

	_ = s.table.Update(id, func(rec *job.Record) error {
		if rec.State.Terminal() {
			return nil
		}
		rec.State = job.StateDownloaded
		rec.DownloadProgress = 100
		rec.Handle = nil
		if probeErr == nil {
			rec.VideoInfo = &info
			rec.AppendLog(fmt.Sprintf("download complete: %dx%d, %.1fs", info.Width, info.Height, info.DurationSeconds))
		} else {
			rec.AppendLog("download complete (metadata unavailable)")
		}
		return nil
	})

	s.logger.Info("download complete", slog.String("job_id", id))
}

func (s *Service) runConversion(id, sourcePath string, profile job.Profile, duration float64) {
	s.convertSlots <- struct{}{}
	defer func() { <-s.convertSlots }()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ConvertTimeout)
	defer cancel()

	outputPath := s.store.OutputPath(id, profile.Name)
	proc, err := s.transcoder.Start(ctx, sourcePath, outputPath, profile, duration, func(percent int) {
		s.publishProgress(id, percent)
	})
	if err != nil {
		s.failJob(id, fmt.Errorf("%w: %v", job.ErrTranscodeFailed, err))
		return
	}

	registered := s.table.Update(id, func(rec *job.Record) error {
		if rec.State.Terminal() {
			return job.ErrCancelled
		}
		rec.Handle = proc
		return nil
	})
	if registered != nil {
		// Cancelled between worker start and handle registration.
		proc.Stop(0)
		_ = proc.Wait()
		return
	}

	if err := proc.Wait(); err != nil {
		s.failJob(id, s.classify(ctx, err, "conversion"))
		return
	}

	info, probeErr := s.probe(outputPath)
	if probeErr != nil {
		s.logger.Warn("output probe failed", slog.String("job_id", id), slog.String("error", probeErr.Error()))
	}

	committed := s.table.Update(id, func(rec *job.Record) error {
		if rec.State.Terminal() {
			return job.ErrCancelled
		}
		rec.State = job.StateCompleted
		rec.OutputPath = outputPath
		rec.ConversionProgress = 100
		rec.Handle = nil
		if probeErr == nil {
			rec.ConvertedInfo = &info
		}
		rec.AppendLog("conversion complete: " + profile.Name)
		return nil
	})
	if committed != nil {
		return
	}

	s.logger.Info("conversion complete", slog.String("job_id", id), slog.String("profile", profile.Name))
}

func (s *Service) publishProgress(id string, percent int) {
	_ = s.table.Update(id, func(rec *job.Record) error {
		if rec.State != job.StateConverting {
			return nil
		}
		if percent > rec.ConversionProgress {
			rec.ConversionProgress = percent
		}
		return nil
	})
}

// failJob commits a failure unless a terminal commit already won.
func (s *Service) failJob(id string, cause error) {
	_ = s.table.Update(id, func(rec *job.Record) error {
		if rec.State.Terminal() {
			return nil
		}
		rec.State = job.StateError
		rec.Error = cause.Error()
		rec.Handle = nil
		rec.AppendLog("error: " + cause.Error())
		return nil
	})
	s.logger.Error("job failed", slog.String("job_id", id), slog.String("error", cause.Error()))
}

// classify distinguishes deadline expiry from plain phase failure.
func (s *Service) classify(ctx context.Context, err error, phase string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s deadline exceeded", job.ErrTimeout, phase)
	}
	kind := job.ErrFetchFailed
	if phase == "conversion" {
		kind = job.ErrTranscodeFailed
	}
	return fmt.Errorf("%w: %v", kind, err)
}

func (s *Service) probe(path string) (job.MediaInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ProbeTimeout)
	defer cancel()
	return s.prober.Probe(ctx, path)
}
