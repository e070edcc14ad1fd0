package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"rapidreport/export"
	"rapidreport/ingest"
	"rapidreport/report"
	"rapidreport/schema"
	"rapidreport/store"
)

// JobState is the lifecycle stage of one report request.
type JobState string

const (
	StateReceived   JobState = "received"
	StateValidating JobState = "validating"
	StateBuilding   JobState = "building"
	StateRendering  JobState = "rendering"
	StateReady      JobState = "ready"
	StateFailed     JobState = "failed"
)

// FailureKind separates input problems the uploader can fix from faults on
// our side. It decides the HTTP status of a failed submission.
type FailureKind string

const (
	FailureUserInput FailureKind = "user_input"
	FailureInternal  FailureKind = "internal"
)

// Job tracks one uploaded file through the pipeline.
type Job struct {
	ID        string      `json:"id"`
	Filename  string      `json:"filename"`
	State     JobState    `json:"state"`
	Error     string      `json:"error,omitempty"`   // user-facing message, set only when Failed
	Failure   FailureKind `json:"failure,omitempty"` // set only when Failed
	Handle    string      `json:"handle,omitempty"`  // artifact handle, set only when Ready
	Artifact  string      `json:"artifact,omitempty"`
	CreatedAt int64       `json:"createdAt"`
	UpdatedAt int64       `json:"updatedAt"`
}

// Renderer turns a report model into document bytes.
type Renderer interface {
	RenderReport(m *report.Model) ([]byte, error)
}

// JobService runs uploads through validate, build and render, and publishes
// the result to the artifact store. Each submission is processed on its
// caller's goroutine; the job map only coordinates status lookups.
type JobService struct {
	configSvc ConfigProvider
	artifacts *store.ArtifactStore
	schema    *schema.Definition
	renderers map[string]Renderer
	logger    func(string)

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobService creates a new JobService instance
func NewJobService(configSvc ConfigProvider, artifacts *store.ArtifactStore, logger func(string)) *JobService {
	return &JobService{
		configSvc: configSvc,
		artifacts: artifacts,
		schema:    schema.Default(),
		renderers: map[string]Renderer{
			export.FormatPPTX: export.NewPPTService(),
			export.FormatPDF:  export.NewPDFService(),
			export.FormatXLSX: export.NewExcelService(),
		},
		logger: logger,
		jobs:   make(map[string]*Job),
	}
}

// Name returns the service name
func (s *JobService) Name() string {
	return "job"
}

// Initialize prepares the service for submissions.
func (s *JobService) Initialize(ctx context.Context) error {
	s.log(fmt.Sprintf("JobService initialized with %d renderers", len(s.renderers)))
	return nil
}

// Shutdown releases the service (no-op; jobs run on caller goroutines).
func (s *JobService) Shutdown() error {
	return nil
}

// Submit runs the whole pipeline for one uploaded file and returns the
// finished job, either Ready with an artifact handle or Failed with a
// user-facing message. It never returns an error for bad input; input
// problems are recorded on the job itself.
func (s *JobService) Submit(raw []byte, filename string) Job {
	job := &Job{
		ID:        uuid.New().String(),
		Filename:  filename,
		State:     StateReceived,
		CreatedAt: time.Now().UnixMilli(),
		UpdatedAt: time.Now().UnixMilli(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	s.log(fmt.Sprintf("job %s: received %q (%d bytes)", job.ID, filename, len(raw)))

	cfg, err := s.configSvc.GetConfig()
	if err != nil {
		s.log(fmt.Sprintf("job %s: config load failed: %v", job.ID, err))
		return s.fail(job, FailureInternal, "internal server error")
	}

	s.setState(job, StateValidating)
	dataset, err := ingest.Validate(raw, filename, s.schema)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			s.log(fmt.Sprintf("job %s: rejected: %v", job.ID, verr))
			return s.fail(job, FailureUserInput, verr.Error())
		}
		s.log(fmt.Sprintf("job %s: validation failed unexpectedly: %v", job.ID, err))
		return s.fail(job, FailureInternal, "internal server error")
	}

	s.setState(job, StateBuilding)
	style := report.GroupStyleTable
	if cfg.GroupSlideStyle == "chart" {
		style = report.GroupStyleChart
	}
	model := report.Build(dataset, report.Options{
		Title:      cfg.ReportTitle,
		GroupStyle: style,
	})

	s.setState(job, StateRendering)
	format := cfg.OutputFormat
	renderer, ok := s.renderers[format]
	if !ok {
		s.log(fmt.Sprintf("job %s: no renderer for format %q", job.ID, format))
		return s.fail(job, FailureInternal, "internal server error")
	}
	data, err := renderer.RenderReport(model)
	if err != nil {
		var inv *export.InvariantError
		if errors.As(err, &inv) {
			// Programming defect, never a user-input problem.
			s.log(fmt.Sprintf("job %s: INVARIANT VIOLATION: %v", job.ID, inv))
		} else {
			s.log(fmt.Sprintf("job %s: render failed: %v", job.ID, err))
		}
		return s.fail(job, FailureInternal, "internal error while generating report")
	}

	artifactName := fmt.Sprintf("business_report_%s.%s", time.Now().Format("20060102_150405"), format)
	artifact, err := s.artifacts.Put(job.ID, artifactName, format, data)
	if err != nil {
		s.log(fmt.Sprintf("job %s: publish failed: %v", job.ID, err))
		return s.fail(job, FailureInternal, "failed to write report file")
	}

	s.mu.Lock()
	job.Handle = artifact.Handle
	job.Artifact = artifact.Filename
	job.State = StateReady
	job.UpdatedAt = time.Now().UnixMilli()
	snapshot := *job
	s.mu.Unlock()

	s.log(fmt.Sprintf("job %s: ready, artifact %s", job.ID, artifact.Handle))
	return snapshot
}

// GetJob returns a snapshot of a job by ID.
func (s *JobService) GetJob(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// SweepJobs drops finished jobs whose last update is older than maxAge and
// returns how many were evicted. In-flight jobs are never touched; their
// status endpoint must keep answering until the submission returns.
func (s *JobService) SweepJobs(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, job := range s.jobs {
		if job.State != StateReady && job.State != StateFailed {
			continue
		}
		if job.UpdatedAt < cutoff {
			delete(s.jobs, id)
			evicted++
		}
	}
	return evicted
}

// setState advances the job lifecycle and logs the transition.
func (s *JobService) setState(job *Job, state JobState) {
	s.mu.Lock()
	job.State = state
	job.UpdatedAt = time.Now().UnixMilli()
	s.mu.Unlock()
	s.log(fmt.Sprintf("job %s: %s", job.ID, state))
}

// fail marks the job Failed with a user-facing message and returns a snapshot.
func (s *JobService) fail(job *Job, kind FailureKind, message string) Job {
	s.mu.Lock()
	job.State = StateFailed
	job.Failure = kind
	job.Error = message
	job.UpdatedAt = time.Now().UnixMilli()
	snapshot := *job
	s.mu.Unlock()
	return snapshot
}

func (s *JobService) log(msg string) {
	if s.logger != nil {
		s.logger(msg)
	}
}
