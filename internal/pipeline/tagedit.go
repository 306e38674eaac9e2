package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bai0012/audio-toolkit-gui/internal/domain"
)

// TagEdit applies the batch's tri-state tag edits to one file.
type TagEdit struct {
	tags   TagAccessor
	report Reporter
}

// NewTagEdit constructs the tag edit executor.
func NewTagEdit(accessor TagAccessor, report Reporter) *TagEdit {
	return &TagEdit{tags: accessor, report: report}
}

// Execute writes the configured edits through the metadata accessor. A
// failure on one file never affects the rest of the batch.
func (t *TagEdit) Execute(ctx context.Context, job domain.JobDescriptor, cfg domain.BatchConfig) domain.JobResult {
	if len(cfg.TagEdits) == 0 {
		return skip(job, "no tag edits requested")
	}

	if err := t.tags.Write(job.Source, cfg.TagEdits); err != nil {
		return failure(job, &Error{
			Kind:    KindMetadataIOFailed,
			Message: fmt.Sprintf("write tags to %s: %v", filepath.Base(job.Source), err),
			Err:     err,
		})
	}

	return domain.JobResult{
		Job:       job,
		Outcome:   domain.OutcomeSuccess,
		Message:   editSummary(cfg.TagEdits),
		Artifacts: []string{job.Source},
	}
}

// editSummary counts set and cleared fields for the result message.
func editSummary(edits domain.TagEdits) string {
	set, cleared := 0, 0
	for _, edit := range edits {
		if edit.Clear {
			cleared++
		} else {
			set++
		}
	}
	switch {
	case cleared == 0:
		return fmt.Sprintf("updated %d tag field(s)", set)
	case set == 0:
		return fmt.Sprintf("cleared %d tag field(s)", cleared)
	default:
		return fmt.Sprintf("updated %d and cleared %d tag field(s)", set, cleared)
	}
}
