package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/bai0012/audio-toolkit-gui/internal/cover"
	"github.com/bai0012/audio-toolkit-gui/internal/domain"
	"github.com/bai0012/audio-toolkit-gui/internal/pipeline"
	"github.com/bai0012/audio-toolkit-gui/internal/scan"
	"github.com/bai0012/audio-toolkit-gui/internal/tags"
	"github.com/bai0012/audio-toolkit-gui/internal/tools"
)

// ErrBatchNotFinished is returned when a summary is requested before the
// batch reaches a terminal state.
var ErrBatchNotFinished = errors.New("batch not finished")

// ErrNoJobs is returned when a batch is submitted without any input.
var ErrNoJobs = errors.New("no jobs submitted")

// run holds the orchestrator's working state for one batch. The worker
// goroutine is the only publisher on its bus once started.
type run struct {
	batchID  string
	kind     domain.PipelineKind
	inputs   []domain.JobDescriptor
	cfg      domain.BatchConfig
	bus      *EventBus
	executor pipeline.Executor
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex
	summary *domain.BatchSummary
}

// setSummary stores the terminal summary.
func (r *run) setSummary(summary domain.BatchSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = &summary
}

// getSummary returns the terminal summary once the worker has stored it.
func (r *run) getSummary() (domain.BatchSummary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summary == nil {
		return domain.BatchSummary{}, false
	}
	return *r.summary, true
}

// Orchestrator accepts batches, runs each on its own background worker,
// and exposes lifecycle state, events, and summaries to callers. Jobs
// within a batch run sequentially; cancellation is honored between jobs
// only, so the in-flight job always finishes.
type Orchestrator struct {
	logger   *log.Logger
	manager  *Manager
	runner   tools.Runner
	tags     pipeline.TagAccessor
	covers   pipeline.CoverResolver
	lookPath func(string) (string, error)
	remove   func(string) error
	newID    func() string
	notify   func(Event)
	busSize  int

	mu   sync.RWMutex
	runs map[string]*run
}

// NewOrchestrator wires the production orchestrator. notify receives
// every published event in order and may be nil.
func NewOrchestrator(logger *log.Logger, notify func(Event)) *Orchestrator {
	return &Orchestrator{
		logger:   logger,
		manager:  NewManager(),
		runner:   tools.NewExecRunner(),
		tags:     tags.NewAccessor(),
		covers:   cover.NewResolver(),
		lookPath: exec.LookPath,
		remove:   os.Remove,
		newID:    uuid.NewString,
		notify:   notify,
		busSize:  500,
		runs:     make(map[string]*run),
	}
}

// Submit validates the batch, preflights its external tools, registers
// it, and starts its worker. It returns without waiting for any job.
func (o *Orchestrator) Submit(jobs []domain.JobDescriptor, cfg domain.BatchConfig) (domain.Batch, error) {
	if len(jobs) == 0 {
		return domain.Batch{}, ErrNoJobs
	}

	kind := jobs[0].Kind
	if !kind.Valid() {
		return domain.Batch{}, fmt.Errorf("unsupported pipeline kind: %q", kind)
	}
	for _, job := range jobs[1:] {
		if job.Kind != kind {
			return domain.Batch{}, fmt.Errorf("mixed pipeline kinds in one batch: %s and %s", kind, job.Kind)
		}
	}

	if err := o.preflightTools(kind); err != nil {
		return domain.Batch{}, err
	}

	r := &run{
		batchID: o.newID(),
		kind:    kind,
		inputs:  append([]domain.JobDescriptor(nil), jobs...),
		cfg:     cfg,
		bus:     NewEventBus(o.busSize),
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())

	executor, err := pipeline.ForKind(kind, pipeline.Deps{
		Runner: o.runner,
		Tags:   o.tags,
		Covers: o.covers,
		Report: func(severity domain.Severity, message string) {
			o.publish(r, Event{Type: EventTypeLog, Severity: severity, Message: message})
		},
	})
	if err != nil {
		r.cancel()
		return domain.Batch{}, err
	}
	r.executor = executor

	submittedAt := time.Now().UTC()
	if err := o.manager.Register(r.batchID, kind, submittedAt); err != nil {
		r.cancel()
		return domain.Batch{}, err
	}

	o.mu.Lock()
	o.runs[r.batchID] = r
	o.mu.Unlock()

	o.logInfo("batch submitted", "batch", r.batchID, "kind", kind, "inputs", len(jobs))
	o.publish(r, Event{
		Type:     EventTypeBatch,
		Severity: domain.SeverityInfo,
		State:    domain.BatchStatePending,
		Message:  fmt.Sprintf("batch submitted with %d input(s)", len(jobs)),
	})

	go o.work(r)

	return domain.Batch{ID: r.batchID, Kind: kind, State: domain.BatchStatePending, SubmittedAt: submittedAt}, nil
}

// Cancel requests cooperative cancellation of a batch. The in-flight job
// always finishes; jobs not yet started are recorded as not attempted.
func (o *Orchestrator) Cancel(batchID string) error {
	r, ok := o.lookup(batchID)
	if !ok {
		return ErrUnknownBatch
	}

	batch, err := o.manager.Get(batchID)
	if err != nil {
		return err
	}
	if batch.State.Terminal() {
		return ErrBatchFinished
	}

	o.logInfo("batch cancellation requested", "batch", batchID)
	r.cancel()
	return nil
}

// Events returns the batch's events with sequence numbers strictly
// greater than sinceSeq, oldest first.
func (o *Orchestrator) Events(batchID string, sinceSeq int64) ([]Event, error) {
	r, ok := o.lookup(batchID)
	if !ok {
		return nil, ErrUnknownBatch
	}
	return r.bus.Since(sinceSeq), nil
}

// Summary returns the aggregated results of a finished batch.
func (o *Orchestrator) Summary(batchID string) (domain.BatchSummary, error) {
	r, ok := o.lookup(batchID)
	if !ok {
		return domain.BatchSummary{}, ErrUnknownBatch
	}
	summary, ok := r.getSummary()
	if !ok {
		return domain.BatchSummary{}, ErrBatchNotFinished
	}
	return summary, nil
}

// Batch returns the lifecycle snapshot of one batch.
func (o *Orchestrator) Batch(batchID string) (domain.Batch, error) {
	return o.manager.Get(batchID)
}

// Batches lists every submitted batch in submission order.
func (o *Orchestrator) Batches() []domain.Batch {
	return o.manager.List()
}

// work runs one batch to its terminal state: discovery, sequential
// execution, source cleanup after verified successes, and the summary
// event last.
func (o *Orchestrator) work(r *run) {
	startedAt := time.Now().UTC()
	o.transition(r, domain.BatchStateRunning)
	o.publish(r, Event{
		Type:     EventTypeBatch,
		Severity: domain.SeverityInfo,
		State:    domain.BatchStateRunning,
		Message:  "batch started",
	})

	resolved := o.resolveJobs(r)
	total := len(resolved)
	o.publish(r, Event{
		Type:     EventTypeLog,
		Severity: domain.SeverityInfo,
		Message:  fmt.Sprintf("resolved %d file(s) to process", total),
		Total:    total,
	})

	results := make([]domain.JobResult, 0, total)
	cancelled := false
	for _, job := range resolved {
		if r.ctx.Err() != nil {
			cancelled = true
			o.publish(r, Event{
				Type:     EventTypeLog,
				Severity: domain.SeverityWarning,
				Message:  "cancellation requested, stopping before next job",
			})
			break
		}

		o.publish(r, Event{
			Type:     EventTypeJob,
			Severity: domain.SeverityInfo,
			Source:   job.Source,
			Message:  fmt.Sprintf("processing %s", filepath.Base(job.Source)),
			Done:     len(results),
			Total:    total,
		})

		// The job context is deliberately independent of the batch
		// context: an in-flight job is never interrupted.
		result := r.executor.Execute(context.Background(), job, r.cfg)
		if result.Outcome == domain.OutcomeSuccess && len(result.Cleanup) > 0 {
			o.deleteCleanupFiles(r, result.Cleanup)
		}
		results = append(results, result)

		o.publish(r, Event{
			Type:     EventTypeJob,
			Severity: severityForOutcome(result.Outcome),
			Source:   result.Job.Source,
			Outcome:  result.Outcome,
			Message:  result.Message,
			Done:     len(results),
			Total:    total,
		})
	}

	executed := len(results)
	if cancelled {
		for _, job := range resolved[executed:] {
			results = append(results, domain.JobResult{Job: job, Outcome: domain.OutcomeNotAttempted})
		}
	}

	if c, ok := r.executor.(pipeline.Cleaner); ok {
		c.Cleanup()
	}

	state := domain.BatchStateCompleted
	if cancelled {
		state = domain.BatchStateCancelled
	}
	o.transition(r, state)

	summary := buildSummary(r.batchID, state, results, startedAt, time.Now().UTC())
	r.setSummary(summary)
	o.logInfo("batch finished", "batch", r.batchID, "state", state,
		"succeeded", summary.Succeeded, "skipped", summary.Skipped,
		"failed", summary.Failed, "notAttempted", summary.NotAttempted)

	o.publish(r, Event{
		Type:     EventTypeSummary,
		Severity: summarySeverity(summary),
		State:    state,
		Message:  summaryMessage(summary),
		Done:     executed,
		Total:    total,
		Summary:  &summary,
	})
}

// resolveJobs expands file and directory inputs into per-file jobs,
// deduplicating across descriptors while preserving first-seen order.
// Params on a descriptor carry over to every file it resolves to.
func (o *Orchestrator) resolveJobs(r *run) []domain.JobDescriptor {
	resolved := make([]domain.JobDescriptor, 0, len(r.inputs))
	seen := make(map[string]struct{})
	for _, input := range r.inputs {
		for _, path := range scan.Expand([]string{input.Source}, r.kind.Extensions(), o.logger) {
			key := scan.CanonicalKey(path)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			resolved = append(resolved, domain.JobDescriptor{Source: path, Kind: r.kind, Params: input.Params})
		}
	}
	return resolved
}

// preflightTools verifies the kind's external tools are on PATH before
// any job runs. A missing tool fails the whole submission.
func (o *Orchestrator) preflightTools(kind domain.PipelineKind) error {
	for _, tool := range pipeline.RequiredTools(kind) {
		if _, err := o.lookPath(tool); err != nil {
			return &pipeline.Error{
				Kind:    pipeline.KindToolUnavailable,
				Message: fmt.Sprintf("required tool %q not found on PATH", tool),
				Err:     err,
			}
		}
	}
	return nil
}

// deleteCleanupFiles removes the source files a verified success made
// eligible for deletion. Failures downgrade to warnings, never to job
// failures.
func (o *Orchestrator) deleteCleanupFiles(r *run, paths []string) {
	for _, path := range paths {
		if err := o.remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			o.publish(r, Event{
				Type:     EventTypeLog,
				Severity: domain.SeverityWarning,
				Message:  fmt.Sprintf("could not delete %s: %v", path, err),
			})
			continue
		}
		o.publish(r, Event{
			Type:     EventTypeLog,
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("deleted %s", path),
		})
	}
}

// publish stamps the batch ID, records the event on the batch bus, and
// forwards the stamped event to the notify hook.
func (o *Orchestrator) publish(r *run, event Event) {
	event.BatchID = r.batchID
	published := r.bus.Publish(event)
	if o.notify != nil {
		o.notify(published)
	}
}

// transition advances the managed state, logging rather than failing on
// a rejected transition.
func (o *Orchestrator) transition(r *run, state domain.BatchState) {
	if err := o.manager.Transition(r.batchID, state); err != nil {
		o.logWarn("batch transition rejected", "batch", r.batchID, "state", state, "err", err)
	}
}

// lookup fetches one run under the read lock.
func (o *Orchestrator) lookup(batchID string) (*run, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	r, ok := o.runs[batchID]
	return r, ok
}

// logInfo logs operationally when a logger is configured.
func (o *Orchestrator) logInfo(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Info(msg, args...)
	}
}

// logWarn logs a warning when a logger is configured.
func (o *Orchestrator) logWarn(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}

// severityForOutcome maps job outcomes onto event severities.
func severityForOutcome(outcome domain.Outcome) domain.Severity {
	switch outcome {
	case domain.OutcomeFailed:
		return domain.SeverityError
	case domain.OutcomeSkipped:
		return domain.SeverityWarning
	default:
		return domain.SeverityInfo
	}
}

// buildSummary aggregates per-job results into the terminal summary.
func buildSummary(batchID string, state domain.BatchState, results []domain.JobResult, startedAt, finishedAt time.Time) domain.BatchSummary {
	summary := domain.BatchSummary{
		BatchID:    batchID,
		State:      state,
		Results:    results,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	for _, result := range results {
		switch result.Outcome {
		case domain.OutcomeSuccess:
			summary.Succeeded++
		case domain.OutcomeSkipped:
			summary.Skipped++
		case domain.OutcomeFailed:
			summary.Failed++
		case domain.OutcomeNotAttempted:
			summary.NotAttempted++
		}
	}
	return summary
}

// summaryMessage renders the one-line terminal report.
func summaryMessage(s domain.BatchSummary) string {
	if s.NotAttempted > 0 {
		return fmt.Sprintf("batch %s: %d succeeded, %d skipped, %d failed, %d not attempted",
			s.State, s.Succeeded, s.Skipped, s.Failed, s.NotAttempted)
	}
	return fmt.Sprintf("batch %s: %d succeeded, %d skipped, %d failed",
		s.State, s.Succeeded, s.Skipped, s.Failed)
}

// summarySeverity marks summaries containing failures as errors.
func summarySeverity(s domain.BatchSummary) domain.Severity {
	if s.Failed > 0 {
		return domain.SeverityError
	}
	return domain.SeverityInfo
}

// NewOrchestratorForTests wires an orchestrator with injectable
// dependencies.
func NewOrchestratorForTests(
	logger *log.Logger,
	runner tools.Runner,
	accessor pipeline.TagAccessor,
	covers pipeline.CoverResolver,
	lookPath func(string) (string, error),
	remove func(string) error,
	newID func() string,
	notify func(Event),
) *Orchestrator {
	return &Orchestrator{
		logger:   logger,
		manager:  NewManager(),
		runner:   runner,
		tags:     accessor,
		covers:   covers,
		lookPath: lookPath,
		remove:   remove,
		newID:    newID,
		notify:   notify,
		busSize:  100,
		runs:     make(map[string]*run),
	}
}
