package main

import (
	"context"
	"testing"
	"time"

	"rapidreport/store"
)

func TestRetentionSweepCoversArtifactsAndJobs(t *testing.T) {
	dir := t.TempDir()
	configSvc := NewConfigService(nil)
	configSvc.SetStorageDir(dir)
	db, err := store.InitDB(dir)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	artifacts := store.NewArtifactStore(db, dir)
	jobs := NewJobService(configSvc, artifacts, nil)
	retention := NewRetentionService(artifacts, jobs, 24*time.Hour, nil)

	job := jobs.Submit([]byte("Region,Revenue\nEast,100\n"), "sales.csv")
	if job.State != StateReady {
		t.Fatalf("expected Ready, got %s (%s)", job.State, job.Error)
	}

	// Backdate both the artifact row and the job past the window.
	old := time.Now().Add(-48 * time.Hour)
	if _, err := db.Exec(`UPDATE artifacts SET created_at = ?`, old.UnixMilli()); err != nil {
		t.Fatalf("backdate artifact: %v", err)
	}
	jobs.mu.Lock()
	jobs.jobs[job.ID].UpdatedAt = old.UnixMilli()
	jobs.mu.Unlock()

	removed, err := retention.SweepNow()
	if err != nil {
		t.Fatalf("SweepNow failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 artifact removed, got %d", removed)
	}
	if _, ok := jobs.GetJob(job.ID); ok {
		t.Error("finished job past the window must be evicted with its artifact")
	}
	if n, _ := artifacts.Count(); n != 0 {
		t.Errorf("expected empty store after sweep, found %d", n)
	}
}

func TestRetentionServiceLifecycle(t *testing.T) {
	jobs, _, artifacts := newTestJobService(t)
	retention := NewRetentionService(artifacts, jobs, 24*time.Hour, nil)

	if err := retention.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := retention.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	// Shutdown is idempotent.
	if err := retention.Shutdown(); err != nil {
		t.Fatalf("second Shutdown failed: %v", err)
	}
}
