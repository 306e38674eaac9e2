package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/bai0012/audio-toolkit-gui/internal/batch"
	"github.com/bai0012/audio-toolkit-gui/internal/config"
	"github.com/bai0012/audio-toolkit-gui/internal/diagnostics"
	"github.com/bai0012/audio-toolkit-gui/internal/domain"
	"github.com/bai0012/audio-toolkit-gui/internal/tags"
)

// eventPollInterval is how often a followed batch is checked for new
// events.
const eventPollInterval = 50 * time.Millisecond

// errJobsFailed marks a finished batch that contained failed jobs so
// main exits nonzero.
var errJobsFailed = errors.New("some jobs failed")

// Runner holds the dependencies behind every CLI command action.
type Runner struct {
	store   config.Store
	batches *batch.Orchestrator
	checker *diagnostics.Checker
	tags    tagReader
	logger  *log.Logger
	output  io.Writer
}

// tagReader isolates tag reading behind an interface.
type tagReader interface {
	Read(path string) (domain.FileTags, error)
}

// RunnerOpts carries optional dependencies for NewRunner; nil fields
// fall back to production implementations.
type RunnerOpts struct {
	Store   config.Store
	Batches *batch.Orchestrator
	Checker *diagnostics.Checker
	Tags    tagReader
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a Runner with the provided dependencies.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Batches == nil {
		opts.Batches = batch.NewOrchestrator(opts.Logger, nil)
	}
	if opts.Checker == nil {
		opts.Checker = diagnostics.NewChecker()
	}
	if opts.Tags == nil {
		opts.Tags = tags.NewAccessor()
	}

	return &Runner{
		store:   opts.Store,
		batches: opts.Batches,
		checker: opts.Checker,
		tags:    opts.Tags,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

// register assembles the top-level command set.
func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		splitCommand, convertCommand, tagsCommand, coverCommand, inspectCommand, doctorCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// loadSettings reads persisted defaults, falling back to built-in
// defaults when no store is configured or the file cannot be read.
func (r *Runner) loadSettings() domain.Settings {
	if r.store == nil {
		return config.DefaultSettings()
	}
	settings, err := r.store.Load()
	if err != nil {
		r.logger.Warn("could not load settings, using defaults", "error", err)
		return config.DefaultSettings()
	}
	return settings
}

// runBatch submits the sources and streams progress until the batch
// finishes. An interrupt cancels the batch before its next job.
func (r *Runner) runBatch(ctx context.Context, kind domain.PipelineKind, sources []string, cfg domain.BatchConfig) error {
	jobs := make([]domain.JobDescriptor, 0, len(sources))
	for _, source := range sources {
		jobs = append(jobs, domain.JobDescriptor{Source: source, Kind: kind})
	}

	submitted, err := r.batches.Submit(jobs, cfg)
	if err != nil {
		return err
	}

	summary, err := r.followBatch(ctx, submitted.ID)
	if err != nil {
		return err
	}

	r.printSummary(summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", errJobsFailed, summary.Failed, len(summary.Results))
	}
	return nil
}

// followBatch prints events as they arrive and returns the final
// summary once the terminal event shows up.
func (r *Runner) followBatch(ctx context.Context, batchID string) (domain.BatchSummary, error) {
	var lastSeq int64
	interrupted := false
	for {
		events, err := r.batches.Events(batchID, lastSeq)
		if err != nil {
			return domain.BatchSummary{}, err
		}
		for _, event := range events {
			lastSeq = event.Seq
			r.printEvent(event)
			if event.Type == batch.EventTypeSummary {
				return r.batches.Summary(batchID)
			}
		}

		select {
		case <-ctx.Done():
			if !interrupted {
				interrupted = true
				r.logger.Warn("interrupt received, cancelling batch", "batch", batchID)
				if err := r.batches.Cancel(batchID); err != nil && !errors.Is(err, batch.ErrBatchFinished) {
					return domain.BatchSummary{}, err
				}
			}
			time.Sleep(eventPollInterval)
		case <-time.After(eventPollInterval):
		}
	}
}

// printEvent forwards one progress event to the logger at its severity.
func (r *Runner) printEvent(event batch.Event) {
	fields := make([]any, 0, 6)
	if event.Source != "" {
		fields = append(fields, "source", event.Source)
	}
	if event.Outcome != "" {
		fields = append(fields, "outcome", string(event.Outcome))
	}
	if event.Total > 0 {
		fields = append(fields, "progress", fmt.Sprintf("%d/%d", event.Done, event.Total))
	}

	switch event.Severity {
	case domain.SeverityError:
		r.logger.Error(event.Message, fields...)
	case domain.SeverityWarning:
		r.logger.Warn(event.Message, fields...)
	default:
		r.logger.Info(event.Message, fields...)
	}
}

// printSummary writes the human-readable batch result block.
func (r *Runner) printSummary(summary domain.BatchSummary) {
	r.writePlain("\nbatch %s %s\n", summary.BatchID, summary.State)
	r.writePlain("  succeeded: %d\n", summary.Succeeded)
	r.writePlain("  skipped:   %d\n", summary.Skipped)
	r.writePlain("  failed:    %d\n", summary.Failed)
	if summary.NotAttempted > 0 {
		r.writePlain("  not attempted: %d\n", summary.NotAttempted)
	}
	for _, result := range summary.Results {
		if result.Outcome == domain.OutcomeFailed {
			r.writePlain("  failed: %s: %s\n", result.Job.Source, result.Message)
		}
	}
}

// writePlain writes formatted text to the runner output.
func (r *Runner) writePlain(format string, args ...any) {
	fmt.Fprintf(r.output, format, args...)
}

// writeJSON writes indented JSON to the runner output.
func (r *Runner) writeJSON(data any) error {
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
