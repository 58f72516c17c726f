package filesystem

import (
	"os"
	"path/filepath"
	"time"
)

// Store manages the two artifact directories and per-job file paths.
type Store struct {
	DownloadDir  string
	ConvertedDir string
}

// NewStore creates a filesystem adapter with configured roots.
func NewStore(downloadDir, convertedDir string) *Store {
	return &Store{DownloadDir: downloadDir, ConvertedDir: convertedDir}
}

// EnsureDirs creates the artifact roots.
func (s *Store) EnsureDirs() error {
	if err := os.MkdirAll(s.DownloadDir, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(s.ConvertedDir, 0o755)
}

// SourcePath returns the download destination for a job.
func (s *Store) SourcePath(id string) string {
	return filepath.Join(s.DownloadDir, "original_"+id+".mp4")
}

// OutputPath returns the conversion destination for a job and profile.
func (s *Store) OutputPath(id, profile string) string {
	return filepath.Join(s.ConvertedDir, "converted_"+id+"_"+profile+".mp4")
}

// SweepOlderThan deletes regular files older than age from both
// artifact directories and returns how many were removed.
func (s *Store) SweepOlderThan(age time.Duration) int {
	cutoff := time.Now().Add(-age)
	removed := 0

	for _, dir := range []string{s.DownloadDir, s.ConvertedDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
				removed++
			}
		}
	}

	return removed
}
