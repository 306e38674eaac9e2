package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bai0012/audio-toolkit-gui/internal/cover"
	"github.com/bai0012/audio-toolkit-gui/internal/domain"
	"github.com/bai0012/audio-toolkit-gui/internal/tags"
)

// EmbedCover embeds front cover art into flac files, resolving one image
// per directory and reusing it for every file sharing that directory
// within the batch.
type EmbedCover struct {
	tags     TagAccessor
	covers   CoverResolver
	report   Reporter
	readFile func(string) ([]byte, error)
	remove   func(string) error

	resolved  map[string]resolvedCover
	downloads []string
}

// resolvedCover caches one directory's resolution, including negative
// results.
type resolvedCover struct {
	source cover.Source
	found  bool
}

// NewEmbedCover constructs the cover embed executor.
func NewEmbedCover(accessor TagAccessor, covers CoverResolver, report Reporter) *EmbedCover {
	return &EmbedCover{
		tags:     accessor,
		covers:   covers,
		report:   report,
		readFile: os.ReadFile,
		remove:   os.Remove,
		resolved: make(map[string]resolvedCover),
	}
}

// Execute embeds the directory's cover into job.Source, skipping when no
// image can be found by URL or local search.
func (e *EmbedCover) Execute(ctx context.Context, job domain.JobDescriptor, cfg domain.BatchConfig) domain.JobResult {
	dir := filepath.Dir(job.Source)
	entry := e.resolveDir(ctx, dir, coverURL(job, cfg))
	if !entry.found {
		missing := &Error{
			Kind:    KindNoSourceFound,
			Message: fmt.Sprintf("no cover image available for %s", dir),
		}
		return skip(job, missing.Error())
	}

	data, err := e.readFile(entry.source.Path)
	if err != nil {
		return failure(job, &Error{
			Kind:    KindMetadataIOFailed,
			Message: fmt.Sprintf("read cover %s: %v", entry.source.Path, err),
			Err:     err,
		})
	}

	pic := tags.Picture{MIME: coverMIME(entry.source.Path), Data: data}
	if err := e.tags.EmbedPicture(job.Source, pic); err != nil {
		return failure(job, &Error{
			Kind:    KindMetadataIOFailed,
			Message: fmt.Sprintf("embed cover into %s: %v", filepath.Base(job.Source), err),
			Err:     err,
		})
	}

	return domain.JobResult{
		Job:       job,
		Outcome:   domain.OutcomeSuccess,
		Message:   fmt.Sprintf("embedded cover %s", filepath.Base(entry.source.Path)),
		Artifacts: []string{job.Source},
	}
}

// resolveDir returns the directory's cached cover resolution, computing
// it on first use.
func (e *EmbedCover) resolveDir(ctx context.Context, dir, rawURL string) resolvedCover {
	if entry, ok := e.resolved[dir]; ok {
		return entry
	}

	entry := resolvedCover{}
	if rawURL != "" {
		src, err := e.covers.Download(ctx, dir, rawURL)
		if err != nil {
			fetchErr := &Error{
				Kind:    KindNetworkFetchFailed,
				Message: fmt.Sprintf("cover download failed, falling back to local search: %v", err),
				Err:     err,
			}
			report(e.report, domain.SeverityWarning, fetchErr.Error())
		} else {
			entry = resolvedCover{source: src, found: true}
			e.downloads = append(e.downloads, src.Path)
			reportf(e.report, domain.SeverityInfo, "downloaded cover for %s", dir)
		}
	}

	if !entry.found {
		src, err := e.covers.FindLocal(dir)
		if err == nil {
			entry = resolvedCover{source: src, found: true}
			reportf(e.report, domain.SeverityInfo, "using local cover %s", filepath.Base(src.Path))
		} else if !errors.Is(err, cover.ErrNoCover) {
			report(e.report, domain.SeverityWarning, err.Error())
		}
	}

	e.resolved[dir] = entry
	return entry
}

// Cleanup removes cover files downloaded during the batch.
func (e *EmbedCover) Cleanup() {
	for _, path := range e.downloads {
		if err := e.remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			reportf(e.report, domain.SeverityWarning,
				"could not remove downloaded cover %s: %v", path, err)
		}
	}
	e.downloads = nil
}

// coverURL prefers the per-job override over the batch setting.
func coverURL(job domain.JobDescriptor, cfg domain.BatchConfig) string {
	if rawURL := strings.TrimSpace(job.Param(domain.ParamCoverURL)); rawURL != "" {
		return rawURL
	}
	return strings.TrimSpace(cfg.CoverURL)
}

// coverMIME maps a cover file extension to its MIME type.
func coverMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// NewEmbedCoverForTests constructs a cover embed executor with
// injectable dependencies.
func NewEmbedCoverForTests(
	accessor TagAccessor,
	covers CoverResolver,
	report Reporter,
	readFile func(string) ([]byte, error),
	remove func(string) error,
) *EmbedCover {
	return &EmbedCover{
		tags:     accessor,
		covers:   covers,
		report:   report,
		readFile: readFile,
		remove:   remove,
		resolved: make(map[string]resolvedCover),
	}
}
