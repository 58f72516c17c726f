package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidmill/internal/domain/job"
)

// Table is the concurrent in-memory mapping from job id to record.
// Mutation of a single record happens under the table lock, so a
// reader never observes a half-written state/field combination.
type Table struct {
	mu   sync.RWMutex
	jobs map[string]*job.Record
}

// NewTable creates an empty session table.
func NewTable() *Table {
	return &Table{jobs: make(map[string]*job.Record)}
}

// Create registers a new record for the given source URL and returns
// its snapshot. Identifiers are generated and never reused.
func (t *Table) Create(sourceURL string) job.Record {
	rec := &job.Record{
		ID:        uuid.NewString(),
		SourceURL: sourceURL,
		State:     job.StateValidating,
		CreatedAt: time.Now(),
	}
	rec.AppendLog("job created")

	t.mu.Lock()
	t.jobs[rec.ID] = rec
	t.mu.Unlock()

	return snapshot(rec)
}

// Get returns a snapshot of the record, or job.ErrNotFound.
func (t *Table) Get(id string) (job.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.jobs[id]
	if !ok {
		return job.Record{}, job.ErrNotFound
	}
	return snapshot(rec), nil
}

// Update applies fn to the record under the table lock. An error from
// fn aborts the call; fn must not mutate before deciding to fail.
func (t *Table) Update(id string, fn func(*job.Record) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.jobs[id]
	if !ok {
		return job.ErrNotFound
	}
	return fn(rec)
}

// Delete removes the record from the table.
func (t *Table) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.jobs[id]; !ok {
		return job.ErrNotFound
	}
	delete(t.jobs, id)
	return nil
}

// List returns summaries of all records, newest first.
func (t *Table) List() []job.Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]job.Summary, 0, len(t.jobs))
	for _, rec := range t.jobs {
		out = append(out, rec.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Snapshots returns copies of every record; used by the reaper sweep.
func (t *Table) Snapshots() []job.Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]job.Record, 0, len(t.jobs))
	for _, rec := range t.jobs {
		out = append(out, snapshot(rec))
	}
	return out
}

// Counts returns the number of non-terminal and total records.
func (t *Table) Counts() (active, total int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, rec := range t.jobs {
		if !rec.State.Terminal() {
			active++
		}
	}
	return active, len(t.jobs)
}

func snapshot(rec *job.Record) job.Record {
	out := *rec
	out.Logs = append([]string(nil), rec.Logs...)
	if rec.VideoInfo != nil {
		info := *rec.VideoInfo
		out.VideoInfo = &info
	}
	if rec.ConvertedInfo != nil {
		info := *rec.ConvertedInfo
		out.ConvertedInfo = &info
	}
	return out
}
