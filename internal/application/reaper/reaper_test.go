package reaper

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidmill/internal/application/session"
	"vidmill/internal/domain/job"
	"vidmill/internal/infrastructure/filesystem"
)

type recordingCanceller struct {
	table     *session.Table
	cancelled []string
}

func (c *recordingCanceller) Cancel(id string) (job.Record, error) {
	c.cancelled = append(c.cancelled, id)
	err := c.table.Update(id, func(rec *job.Record) error {
		rec.State = job.StateCancelled
		return nil
	})
	if err != nil {
		return job.Record{}, err
	}
	return c.table.Get(id)
}

func newTestReaper(t *testing.T, window time.Duration) (*Reaper, *session.Table, *recordingCanceller, *filesystem.Store) {
	t.Helper()

	table := session.NewTable()
	canceller := &recordingCanceller{table: table}
	store := filesystem.NewStore(t.TempDir(), t.TempDir())
	require.NoError(t, store.EnsureDirs())

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(table, canceller, store, window, time.Minute, log), table, canceller, store
}

func backdate(t *testing.T, table *session.Table, id string, age time.Duration) {
	t.Helper()
	require.NoError(t, table.Update(id, func(rec *job.Record) error {
		rec.CreatedAt = time.Now().Add(-age)
		return nil
	}))
}

func backdateFile(t *testing.T, path string, age time.Duration) {
	t.Helper()
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestSweep_RemovesExpiredJobAndArtifacts(t *testing.T) {
	reap, table, _, store := newTestReaper(t, time.Hour)

	rec := table.Create("http://example.com/a.mp4")
	src := store.SourcePath(rec.ID)
	out := store.OutputPath(rec.ID, "480p")
	require.NoError(t, os.WriteFile(src, []byte("src"), 0o644))
	require.NoError(t, os.WriteFile(out, []byte("out"), 0o644))

	require.NoError(t, table.Update(rec.ID, func(r *job.Record) error {
		r.State = job.StateCompleted
		r.SourcePath = src
		r.OutputPath = out
		return nil
	}))
	backdate(t, table, rec.ID, 2*time.Hour)
	backdateFile(t, src, 2*time.Hour)
	backdateFile(t, out, 2*time.Hour)

	removedJobs, _ := reap.Sweep()
	require.Equal(t, 1, removedJobs)

	_, err := table.Get(rec.ID)
	require.ErrorIs(t, err, job.ErrNotFound)
	assert.NoFileExists(t, src)
	assert.NoFileExists(t, out)
}

func TestSweep_CancelsActiveExpiredJob(t *testing.T) {
	reap, table, canceller, _ := newTestReaper(t, time.Hour)

	rec := table.Create("http://example.com/a.mp4")
	require.NoError(t, table.Update(rec.ID, func(r *job.Record) error {
		r.State = job.StateConverting
		return nil
	}))
	backdate(t, table, rec.ID, 2*time.Hour)

	removedJobs, _ := reap.Sweep()
	require.Equal(t, 1, removedJobs)
	assert.Equal(t, []string{rec.ID}, canceller.cancelled)
}

func TestSweep_TerminalJobNotCancelled(t *testing.T) {
	reap, table, canceller, _ := newTestReaper(t, time.Hour)

	rec := table.Create("http://example.com/a.mp4")
	require.NoError(t, table.Update(rec.ID, func(r *job.Record) error {
		r.State = job.StateError
		r.Error = "boom"
		return nil
	}))
	backdate(t, table, rec.ID, 2*time.Hour)

	removedJobs, _ := reap.Sweep()
	require.Equal(t, 1, removedJobs)
	assert.Empty(t, canceller.cancelled, "terminal jobs have no process to stop")
}

func TestSweep_KeepsFreshJobs(t *testing.T) {
	reap, table, canceller, _ := newTestReaper(t, time.Hour)

	rec := table.Create("http://example.com/a.mp4")

	removedJobs, _ := reap.Sweep()
	require.Zero(t, removedJobs)
	assert.Empty(t, canceller.cancelled)

	_, err := table.Get(rec.ID)
	require.NoError(t, err)
}

func TestSweep_RemovesOrphanedFiles(t *testing.T) {
	reap, _, _, store := newTestReaper(t, time.Hour)

	orphan := store.SourcePath("lost-job")
	fresh := store.OutputPath("new-job", "480p")
	require.NoError(t, os.WriteFile(orphan, []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("fresh"), 0o644))
	backdateFile(t, orphan, 2*time.Hour)

	_, removedFiles := reap.Sweep()
	require.Equal(t, 1, removedFiles)
	assert.NoFileExists(t, orphan)
	assert.FileExists(t, fresh)
}
