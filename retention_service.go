package main

import (
	"context"
	"fmt"
	"time"

	"rapidreport/store"
)

// RetentionService periodically removes artifacts older than the configured
// retention window, and evicts the finished jobs that produced them so the
// in-memory job table stays bounded.
type RetentionService struct {
	artifacts *store.ArtifactStore
	jobs      *JobService
	retention time.Duration
	interval  time.Duration
	logger    func(string)
	done      chan struct{}
}

// NewRetentionService creates a new RetentionService instance
func NewRetentionService(artifacts *store.ArtifactStore, jobs *JobService, retention time.Duration, logger func(string)) *RetentionService {
	return &RetentionService{
		artifacts: artifacts,
		jobs:      jobs,
		retention: retention,
		interval:  time.Hour,
		logger:    logger,
	}
}

// Name returns the service name
func (s *RetentionService) Name() string {
	return "retention"
}

// Initialize starts the background sweep loop.
func (s *RetentionService) Initialize(ctx context.Context) error {
	s.done = make(chan struct{})
	go s.run(s.done)
	s.log(fmt.Sprintf("RetentionService started, window %s", s.retention))
	return nil
}

// Shutdown stops the sweep loop.
func (s *RetentionService) Shutdown() error {
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	return nil
}

// SweepNow runs one sweep immediately and returns how many artifacts were
// removed. Finished jobs past the same window are evicted alongside.
func (s *RetentionService) SweepNow() (int, error) {
	n, err := s.artifacts.Sweep(s.retention)
	if evicted := s.jobs.SweepJobs(s.retention); evicted > 0 {
		s.log(fmt.Sprintf("evicted %d finished jobs", evicted))
	}
	return n, err
}

func (s *RetentionService) run(done <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := s.SweepNow()
			if err != nil {
				s.log(fmt.Sprintf("artifact sweep failed: %v", err))
			} else if n > 0 {
				s.log(fmt.Sprintf("artifact sweep removed %d expired artifacts", n))
			}
		case <-done:
			return
		}
	}
}

func (s *RetentionService) log(msg string) {
	if s.logger != nil {
		s.logger(msg)
	}
}
