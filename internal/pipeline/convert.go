package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bai0012/audio-toolkit-gui/internal/domain"
	"github.com/bai0012/audio-toolkit-gui/internal/tools"
)

// Convert transcodes one WAV into a FLAC beside the source, optionally
// copying tags and cover art from a sibling MP3.
type Convert struct {
	ffmpegPath string
	runner     tools.Runner
	tags       TagAccessor
	report     Reporter
	stat       func(string) (os.FileInfo, error)
	remove     func(string) error
}

// NewConvert constructs the production convert executor.
func NewConvert(runner tools.Runner, accessor TagAccessor, report Reporter) *Convert {
	return &Convert{
		ffmpegPath: "ffmpeg",
		runner:     runner,
		tags:       accessor,
		report:     report,
		stat:       os.Stat,
		remove:     os.Remove,
	}
}

// Execute converts job.Source to FLAC. An existing target causes a skip
// with the file untouched; any failure removes the partial output this
// job produced.
func (c *Convert) Execute(ctx context.Context, job domain.JobDescriptor, cfg domain.BatchConfig) domain.JobResult {
	source := job.Source
	base := strings.TrimSuffix(source, filepath.Ext(source))
	target := base + ".flac"

	if _, err := c.stat(target); err == nil {
		return skip(job, fmt.Sprintf("flac already exists: %s", filepath.Base(target)))
	}

	if _, err := c.stat(source); err != nil {
		return failure(job, fmt.Errorf("cannot access source wav: %s", source))
	}

	reportf(c.report, domain.SeverityInfo, "converting %s", filepath.Base(source))
	command := tools.Command{Name: c.ffmpegPath, Args: convertArgs(source, target)}

	result, runErr := c.runner.Run(ctx, command)
	if runErr != nil {
		c.removePartial(target)
		return failure(job, &Error{
			Kind:    KindToolExecutionFailed,
			Message: fmt.Sprintf("failed to launch %s", c.ffmpegPath),
			Command: tools.FormatCommand(command),
			Err:     runErr,
		})
	}
	if result.ExitCode != 0 {
		c.removePartial(target)
		return failure(job, &Error{
			Kind: KindToolExecutionFailed,
			Message: fmt.Sprintf("%s exited with %d: %s",
				c.ffmpegPath, result.ExitCode, tools.StderrTail(result.Stderr, 3)),
			Command:  tools.FormatCommand(command),
			ExitCode: result.ExitCode,
		})
	}

	if info, err := c.stat(target); err != nil || info.Size() == 0 {
		c.removePartial(target)
		return failure(job, &Error{
			Kind:    KindOutputVerificationFailed,
			Message: fmt.Sprintf("%s reported success but %s is missing or empty", c.ffmpegPath, filepath.Base(target)),
			Command: tools.FormatCommand(command),
		})
	}

	message := fmt.Sprintf("converted to %s", filepath.Base(target))
	if cfg.CopyMetadata {
		copied, err := c.copySiblingMetadata(base, target)
		if err != nil {
			c.removePartial(target)
			return failure(job, err)
		}
		if copied {
			message += " (metadata copied)"
		}
	}

	return domain.JobResult{
		Job:       job,
		Outcome:   domain.OutcomeSuccess,
		Message:   message,
		Artifacts: []string{target},
	}
}

// copySiblingMetadata applies tags and front cover art from a sibling
// .mp3 to the freshly produced flac. A missing sibling is reported, not
// an error.
func (c *Convert) copySiblingMetadata(base, target string) (bool, error) {
	sibling := base + ".mp3"
	if _, err := c.stat(sibling); err != nil {
		reportf(c.report, domain.SeverityWarning,
			"no sibling mp3 for %s, tags not copied", filepath.Base(target))
		return false, nil
	}

	fileTags, err := c.tags.Read(sibling)
	if err != nil {
		return false, &Error{
			Kind:    KindMetadataIOFailed,
			Message: fmt.Sprintf("read tags from %s: %v", filepath.Base(sibling), err),
			Err:     err,
		}
	}

	edits := make(domain.TagEdits, len(fileTags.Fields))
	for key, value := range fileTags.Fields {
		edits.SetValue(key, value)
	}
	if len(edits) > 0 {
		if err := c.tags.Write(target, edits); err != nil {
			return false, &Error{
				Kind:    KindMetadataIOFailed,
				Message: fmt.Sprintf("copy tags to %s: %v", filepath.Base(target), err),
				Err:     err,
			}
		}
	}

	pic, found, err := c.tags.ReadPicture(sibling)
	if err != nil {
		reportf(c.report, domain.SeverityWarning,
			"read cover from %s: %v", filepath.Base(sibling), err)
		return true, nil
	}
	if !found {
		return true, nil
	}
	if !flacEmbeddableMIME(pic.MIME) {
		reportf(c.report, domain.SeverityWarning,
			"cover in %s has unsupported type %s, not copied", filepath.Base(sibling), pic.MIME)
		return true, nil
	}
	if err := c.tags.EmbedPicture(target, pic); err != nil {
		return false, &Error{
			Kind:    KindMetadataIOFailed,
			Message: fmt.Sprintf("copy cover to %s: %v", filepath.Base(target), err),
			Err:     err,
		}
	}
	return true, nil
}

// removePartial deletes a target this job created; pre-existing targets
// never reach here because they cause a skip first.
func (c *Convert) removePartial(target string) {
	if err := c.remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		reportf(c.report, domain.SeverityWarning,
			"could not remove partial output %s: %v", target, err)
	}
}

// convertArgs builds the wav-to-flac ffmpeg invocation.
func convertArgs(source, target string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", source,
		"-c:a", "flac",
		target,
	}
}

// flacEmbeddableMIME reports whether a picture can go into a flac
// picture block.
func flacEmbeddableMIME(mime string) bool {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg", "image/png":
		return true
	default:
		return false
	}
}

// NewConvertForTests constructs a convert executor with injectable
// dependencies.
func NewConvertForTests(
	ffmpegPath string,
	runner tools.Runner,
	accessor TagAccessor,
	report Reporter,
	stat func(string) (os.FileInfo, error),
	remove func(string) error,
) *Convert {
	return &Convert{
		ffmpegPath: ffmpegPath,
		runner:     runner,
		tags:       accessor,
		report:     report,
		stat:       stat,
		remove:     remove,
	}
}
