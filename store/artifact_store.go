package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no artifact exists for a handle.
var ErrNotFound = errors.New("artifact not found")

// WriteError reports a failure to durably publish an artifact. Whatever the
// underlying cause, no partially written file is left visible.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write artifact %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Artifact is the metadata record of one published output file.
type Artifact struct {
	Handle    string `json:"handle"`
	JobID     string `json:"jobId"`
	Filename  string `json:"filename"`
	Format    string `json:"format"`
	Size      int64  `json:"size"`
	CreatedAt int64  `json:"createdAt"`
}

// ArtifactStore publishes rendered report files under unguessable handles
// and tracks them in a SQLite index.
type ArtifactStore struct {
	db      *sql.DB
	dataDir string
}

// NewArtifactStore creates a new ArtifactStore instance
func NewArtifactStore(db *sql.DB, dataDir string) *ArtifactStore {
	return &ArtifactStore{
		db:      db,
		dataDir: dataDir,
	}
}

// artifactsDir is where published files live on disk.
func (s *ArtifactStore) artifactsDir() string {
	return filepath.Join(s.dataDir, "artifacts")
}

func (s *ArtifactStore) pathFor(handle, format string) string {
	return filepath.Join(s.artifactsDir(), handle+"."+format)
}

// Put publishes the rendered bytes under a fresh random handle. The file is
// written to a temp file in the same directory and renamed into place, so a
// reader either sees the complete artifact or nothing.
func (s *ArtifactStore) Put(jobID, filename, format string, data []byte) (*Artifact, error) {
	dir := s.artifactsDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &WriteError{Path: dir, Err: err}
	}

	handle := uuid.New().String()
	finalPath := s.pathFor(handle, format)

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return nil, &WriteError{Path: finalPath, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, &WriteError{Path: finalPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, &WriteError{Path: finalPath, Err: err}
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return nil, &WriteError{Path: finalPath, Err: err}
	}

	artifact := &Artifact{
		Handle:    handle,
		JobID:     jobID,
		Filename:  filename,
		Format:    format,
		Size:      int64(len(data)),
		CreatedAt: time.Now().UnixMilli(),
	}

	_, err = s.db.Exec(
		"INSERT INTO artifacts (handle, job_id, filename, format, size, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		artifact.Handle, artifact.JobID, artifact.Filename, artifact.Format, artifact.Size, artifact.CreatedAt,
	)
	if err != nil {
		// Roll the file back so an unindexed artifact is never reachable.
		os.Remove(finalPath)
		return nil, &WriteError{Path: finalPath, Err: err}
	}

	return artifact, nil
}

// Get returns the metadata record for a handle.
func (s *ArtifactStore) Get(handle string) (*Artifact, error) {
	var a Artifact
	err := s.db.QueryRow(
		"SELECT handle, job_id, filename, format, size, created_at FROM artifacts WHERE handle = ?",
		handle,
	).Scan(&a.Handle, &a.JobID, &a.Filename, &a.Format, &a.Size, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up artifact %s: %w", handle, err)
	}
	return &a, nil
}

// Open returns the artifact file for reading along with its metadata.
func (s *ArtifactStore) Open(handle string) (io.ReadCloser, *Artifact, error) {
	artifact, err := s.Get(handle)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(s.pathFor(artifact.Handle, artifact.Format))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open artifact %s: %w", handle, err)
	}
	return f, artifact, nil
}

// Sweep removes artifacts older than the retention window and returns how
// many were deleted.
func (s *ArtifactStore) Sweep(retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention).UnixMilli()

	rows, err := s.db.Query("SELECT handle, format FROM artifacts WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired artifacts: %w", err)
	}
	defer rows.Close()

	type expired struct {
		handle string
		format string
	}
	var victims []expired
	for rows.Next() {
		var v expired
		if err := rows.Scan(&v.handle, &v.format); err != nil {
			return 0, fmt.Errorf("failed to scan expired artifact: %w", err)
		}
		victims = append(victims, v)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read expired artifacts: %w", err)
	}

	removed := 0
	for _, v := range victims {
		// Drop the file first; a leftover row without a file just 404s,
		// while a file without a row would be unreachable forever.
		if err := os.Remove(s.pathFor(v.handle, v.format)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to remove expired artifact %s: %w", v.handle, err)
		}
		if _, err := s.db.Exec("DELETE FROM artifacts WHERE handle = ?", v.handle); err != nil {
			return removed, fmt.Errorf("failed to delete artifact record %s: %w", v.handle, err)
		}
		removed++
	}
	return removed, nil
}

// Count returns how many artifacts are currently indexed.
func (s *ArtifactStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM artifacts").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count artifacts: %w", err)
	}
	return n, nil
}
