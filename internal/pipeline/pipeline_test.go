package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bai0012/audio-toolkit-gui/internal/cover"
	"github.com/bai0012/audio-toolkit-gui/internal/domain"
	"github.com/bai0012/audio-toolkit-gui/internal/tags"
	"github.com/bai0012/audio-toolkit-gui/internal/tools"
)

// fakeRunner simulates external command execution.
type fakeRunner struct {
	calls []tools.Command
	run   func(ctx context.Context, command tools.Command) (tools.Result, error)
}

// Run records the command and delegates to injected behavior.
func (f *fakeRunner) Run(ctx context.Context, command tools.Command) (tools.Result, error) {
	f.calls = append(f.calls, command)
	if f.run == nil {
		return tools.Result{}, nil
	}
	return f.run(ctx, command)
}

// fakeAccessor simulates the metadata accessor.
type fakeAccessor struct {
	read        func(path string) (domain.FileTags, error)
	write       func(path string, edits domain.TagEdits) error
	readPicture func(path string) (tags.Picture, bool, error)
	embed       func(path string, pic tags.Picture) error
}

// Read delegates to injected behavior.
func (f *fakeAccessor) Read(path string) (domain.FileTags, error) {
	if f.read == nil {
		return domain.FileTags{}, nil
	}
	return f.read(path)
}

// Write delegates to injected behavior.
func (f *fakeAccessor) Write(path string, edits domain.TagEdits) error {
	if f.write == nil {
		return nil
	}
	return f.write(path, edits)
}

// ReadPicture delegates to injected behavior.
func (f *fakeAccessor) ReadPicture(path string) (tags.Picture, bool, error) {
	if f.readPicture == nil {
		return tags.Picture{}, false, nil
	}
	return f.readPicture(path)
}

// EmbedPicture delegates to injected behavior.
func (f *fakeAccessor) EmbedPicture(path string, pic tags.Picture) error {
	if f.embed == nil {
		return nil
	}
	return f.embed(path, pic)
}

// fakeCovers simulates cover resolution.
type fakeCovers struct {
	download  func(ctx context.Context, dir, rawURL string) (cover.Source, error)
	findLocal func(dir string) (cover.Source, error)
}

// Download delegates to injected behavior.
func (f *fakeCovers) Download(ctx context.Context, dir, rawURL string) (cover.Source, error) {
	if f.download == nil {
		return cover.Source{}, cover.ErrNoCover
	}
	return f.download(ctx, dir, rawURL)
}

// FindLocal delegates to injected behavior.
func (f *fakeCovers) FindLocal(dir string) (cover.Source, error) {
	if f.findLocal == nil {
		return cover.Source{}, cover.ErrNoCover
	}
	return f.findLocal(dir)
}

// reportCollector captures reporter lines for assertions.
type reportCollector struct {
	lines []string
}

// report appends one severity-prefixed line.
func (r *reportCollector) report(severity domain.Severity, message string) {
	r.lines = append(r.lines, string(severity)+": "+message)
}

// contains reports whether any captured line includes substr.
func (r *reportCollector) contains(substr string) bool {
	for _, line := range r.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// mustWriteFile creates parent directories and writes file content.
func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir parent: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}

// TestForKindBuildsOneExecutorPerKind checks executor selection.
func TestForKindBuildsOneExecutorPerKind(t *testing.T) {
	deps := Deps{Runner: &fakeRunner{}, Tags: &fakeAccessor{}, Covers: &fakeCovers{}}
	for _, kind := range []domain.PipelineKind{
		domain.PipelineSplit,
		domain.PipelineConvert,
		domain.PipelineTagEdit,
		domain.PipelineEmbedCover,
	} {
		exec, err := ForKind(kind, deps)
		if err != nil {
			t.Fatalf("ForKind(%s) error = %v", kind, err)
		}
		if exec == nil {
			t.Fatalf("ForKind(%s) returned nil executor", kind)
		}
	}

	if _, err := ForKind(domain.PipelineKind("bogus"), deps); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

// TestRequiredToolsPerKind checks the preflight tool lists.
func TestRequiredToolsPerKind(t *testing.T) {
	if got := RequiredTools(domain.PipelineSplit); len(got) != 3 {
		t.Fatalf("split tools = %v, want ffcuesplitter+ffmpeg+ffprobe", got)
	}
	if got := RequiredTools(domain.PipelineConvert); len(got) != 1 || got[0] != "ffmpeg" {
		t.Fatalf("convert tools = %v, want [ffmpeg]", got)
	}
	if got := RequiredTools(domain.PipelineTagEdit); got != nil {
		t.Fatalf("tag edit tools = %v, want none", got)
	}
	if got := RequiredTools(domain.PipelineEmbedCover); got != nil {
		t.Fatalf("embed cover tools = %v, want none", got)
	}
}
