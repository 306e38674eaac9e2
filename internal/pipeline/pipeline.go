// Package pipeline implements the per-job execution contract: one
// executor per pipeline kind, each turning a job descriptor plus the
// shared batch configuration into a single job result.
package pipeline

import (
	"context"
	"fmt"

	"github.com/bai0012/audio-toolkit-gui/internal/cover"
	"github.com/bai0012/audio-toolkit-gui/internal/domain"
	"github.com/bai0012/audio-toolkit-gui/internal/tags"
	"github.com/bai0012/audio-toolkit-gui/internal/tools"
)

// Executor runs one job against the shared batch configuration. Failures
// are folded into the result; Execute never aborts the batch.
type Executor interface {
	Execute(ctx context.Context, job domain.JobDescriptor, cfg domain.BatchConfig) domain.JobResult
}

// Cleaner is implemented by executors that accumulate batch-scoped
// temporary files; the orchestrator calls Cleanup once per batch.
type Cleaner interface {
	Cleanup()
}

// Reporter receives human-readable progress lines from executors.
type Reporter func(severity domain.Severity, message string)

// TagAccessor is the metadata surface executors depend on.
type TagAccessor interface {
	Read(path string) (domain.FileTags, error)
	Write(path string, edits domain.TagEdits) error
	ReadPicture(path string) (tags.Picture, bool, error)
	EmbedPicture(path string, pic tags.Picture) error
}

// CoverResolver locates cover images for embed jobs.
type CoverResolver interface {
	Download(ctx context.Context, dir, rawURL string) (cover.Source, error)
	FindLocal(dir string) (cover.Source, error)
}

// Deps bundles the collaborators shared by the executors.
type Deps struct {
	Runner tools.Runner
	Tags   TagAccessor
	Covers CoverResolver
	Report Reporter
}

// ForKind builds a fresh executor for one pipeline kind. Executors are
// batch-scoped: EmbedCover in particular caches per-directory cover
// resolution for the life of the instance.
func ForKind(kind domain.PipelineKind, deps Deps) (Executor, error) {
	switch kind {
	case domain.PipelineSplit:
		return NewSplit(deps.Runner, deps.Report), nil
	case domain.PipelineConvert:
		return NewConvert(deps.Runner, deps.Tags, deps.Report), nil
	case domain.PipelineTagEdit:
		return NewTagEdit(deps.Tags, deps.Report), nil
	case domain.PipelineEmbedCover:
		return NewEmbedCover(deps.Tags, deps.Covers, deps.Report), nil
	default:
		return nil, fmt.Errorf("unsupported pipeline kind: %q", kind)
	}
}

// RequiredTools lists the external binaries a pipeline kind invokes.
func RequiredTools(kind domain.PipelineKind) []string {
	switch kind {
	case domain.PipelineSplit:
		return []string{"ffcuesplitter", "ffmpeg", "ffprobe"}
	case domain.PipelineConvert:
		return []string{"ffmpeg"}
	default:
		return nil
	}
}

// report forwards one line when a reporter is configured.
func report(cb Reporter, severity domain.Severity, message string) {
	if cb != nil {
		cb(severity, message)
	}
}

// reportf is report with formatting.
func reportf(cb Reporter, severity domain.Severity, format string, args ...any) {
	report(cb, severity, fmt.Sprintf(format, args...))
}

// failure builds a failed result carrying the error text.
func failure(job domain.JobDescriptor, err error) domain.JobResult {
	return domain.JobResult{Job: job, Outcome: domain.OutcomeFailed, Message: err.Error()}
}

// skip builds a skipped result with an explanatory message.
func skip(job domain.JobDescriptor, message string) domain.JobResult {
	return domain.JobResult{Job: job, Outcome: domain.OutcomeSkipped, Message: message}
}
