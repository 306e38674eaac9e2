package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/bai0012/audio-toolkit-gui/internal/cuesheet"
	"github.com/bai0012/audio-toolkit-gui/internal/domain"
	"github.com/bai0012/audio-toolkit-gui/internal/tools"
)

// splitterLogName is the log file ffcuesplitter writes into its output
// directory.
const splitterLogName = "ffcuesplitter.log"

// Split runs ffcuesplitter on one cue sheet and verifies the produced
// tracks before marking source files cleanup-eligible.
type Split struct {
	splitterPath string
	runner       tools.Runner
	report       Reporter
	stat         func(string) (os.FileInfo, error)
}

// NewSplit constructs the production split executor.
func NewSplit(runner tools.Runner, report Reporter) *Split {
	return &Split{
		splitterPath: "ffcuesplitter",
		runner:       runner,
		report:       report,
		stat:         os.Stat,
	}
}

// Execute splits one cue sheet into per-track files. Cleanup eligibility
// is granted only after every expected track is verified on disk.
func (s *Split) Execute(ctx context.Context, job domain.JobDescriptor, cfg domain.BatchConfig) domain.JobResult {
	cuePath := job.Source
	cueDir := filepath.Dir(cuePath)

	sheet, err := cuesheet.ParseFile(cuePath)
	if err != nil {
		return failure(job, fmt.Errorf("read cue sheet: %w", err))
	}
	if err := sheet.Validate(); err != nil {
		return failure(job, fmt.Errorf("cue sheet %s: %w", filepath.Base(cuePath), err))
	}

	audioPath, err := s.resolveAudioFile(cueDir, cuePath, sheet)
	if err != nil {
		return failure(job, err)
	}

	format := outputFormat(cfg)
	outputDir := splitOutputDir(job, cfg, cueDir)
	trackDir := collectionDir(outputDir, cfg.Collection, sheet)
	expected := expectedTrackPaths(trackDir, sheet, format, audioPath)

	if cfg.Overwrite != domain.OverwriteAlways {
		if existing := s.firstExisting(expected); existing != "" {
			return skip(job, fmt.Sprintf("output already exists: %s", existing))
		}
	}

	reportf(s.report, domain.SeverityInfo,
		"splitting %s (%d tracks) into %s", filepath.Base(cuePath), len(expected), trackDir)

	command := tools.Command{
		Name: s.splitterPath,
		Args: splitterArgs(cuePath, format, outputDir, cfg),
		Dir:  cueDir,
	}
	result, runErr := s.runner.Run(ctx, command)
	if runErr != nil {
		return failure(job, &Error{
			Kind:    KindToolExecutionFailed,
			Message: fmt.Sprintf("failed to launch %s", s.splitterPath),
			Command: tools.FormatCommand(command),
			Err:     runErr,
		})
	}
	if result.ExitCode != 0 {
		return failure(job, &Error{
			Kind: KindToolExecutionFailed,
			Message: fmt.Sprintf("%s exited with %d: %s",
				s.splitterPath, result.ExitCode, tools.StderrTail(result.Stderr, 3)),
			Command:  tools.FormatCommand(command),
			ExitCode: result.ExitCode,
		})
	}

	if missing := s.firstUnverified(expected); missing != "" {
		return failure(job, &Error{
			Kind:    KindOutputVerificationFailed,
			Message: fmt.Sprintf("expected track output missing or empty: %s", missing),
			Command: tools.FormatCommand(command),
		})
	}

	return domain.JobResult{
		Job:       job,
		Outcome:   domain.OutcomeSuccess,
		Message:   fmt.Sprintf("split into %d tracks", len(expected)),
		Artifacts: expected,
		Cleanup:   s.cleanupEligible(cuePath, cueDir, audioPath, outputDir, trackDir),
	}
}

// resolveAudioFile locates the audio container referenced by the sheet,
// falling back to a sibling sharing the cue's base name.
func (s *Split) resolveAudioFile(cueDir, cuePath string, sheet cuesheet.Sheet) (string, error) {
	cueBase := strings.TrimSuffix(filepath.Base(cuePath), filepath.Ext(cuePath))
	for _, file := range sheet.Files {
		referenced := filepath.Join(cueDir, filepath.FromSlash(file.Name))
		if s.fileExists(referenced) {
			return referenced, nil
		}
		alternate := filepath.Join(cueDir, cueBase+filepath.Ext(file.Name))
		if s.fileExists(alternate) {
			reportf(s.report, domain.SeverityWarning,
				"referenced audio %q not found, using %s", file.Name, filepath.Base(alternate))
			return alternate, nil
		}
	}
	return "", fmt.Errorf("no audio file referenced by %s exists on disk", filepath.Base(cuePath))
}

// firstExisting returns the first expected path already on disk.
func (s *Split) firstExisting(paths []string) string {
	for _, path := range paths {
		if s.fileExists(path) {
			return path
		}
	}
	return ""
}

// firstUnverified returns the first expected path missing or zero-sized.
func (s *Split) firstUnverified(paths []string) string {
	for _, path := range paths {
		info, err := s.stat(path)
		if err != nil || info.IsDir() || info.Size() == 0 {
			return path
		}
	}
	return ""
}

// fileExists reports whether path is an existing regular file.
func (s *Split) fileExists(path string) bool {
	info, err := s.stat(path)
	return err == nil && !info.IsDir()
}

// cleanupEligible collects the source-side files that verified success
// makes deletable: the cue, its audio container, a sibling .log, and the
// splitter's own log in the output directories.
func (s *Split) cleanupEligible(cuePath, cueDir, audioPath, outputDir, trackDir string) []string {
	cueBase := strings.TrimSuffix(filepath.Base(cuePath), filepath.Ext(cuePath))
	candidates := []string{
		cuePath,
		audioPath,
		filepath.Join(cueDir, cueBase+".log"),
		filepath.Join(outputDir, splitterLogName),
	}
	if trackDir != outputDir {
		candidates = append(candidates, filepath.Join(trackDir, splitterLogName))
	}

	cleanup := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		if s.fileExists(candidate) {
			cleanup = append(cleanup, candidate)
		}
	}
	return cleanup
}

// splitOutputDir resolves the split destination: per-job override, then
// the batch setting, then the cue's own directory.
func splitOutputDir(job domain.JobDescriptor, cfg domain.BatchConfig, cueDir string) string {
	if dir := strings.TrimSpace(job.Param(domain.ParamOutputDir)); dir != "" {
		return dir
	}
	if dir := strings.TrimSpace(cfg.OutputDir); dir != "" {
		return dir
	}
	return cueDir
}

// outputFormat returns the configured output format, defaulting to flac.
func outputFormat(cfg domain.BatchConfig) string {
	format := strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	if format == "" {
		return "flac"
	}
	return format
}

// splitterArgs builds the ffcuesplitter invocation.
func splitterArgs(cuePath, format, outputDir string, cfg domain.BatchConfig) []string {
	args := []string{
		"-i", cuePath,
		"-f", format,
		"-o", outputDir,
	}
	if cfg.Collection != domain.CollectionNone {
		args = append(args, "-c", string(cfg.Collection))
	}
	overwrite := cfg.Overwrite
	if overwrite != domain.OverwriteAlways {
		overwrite = domain.OverwriteNever
	}
	return append(args,
		"-ow", string(overwrite),
		"--ffmpeg-loglevel", "info",
		"--prg-loglevel", "info",
	)
}

// collectionDir appends the subfolders the splitter derives from the
// cue's performer and title.
func collectionDir(outputDir string, mode domain.CollectionMode, sheet cuesheet.Sheet) string {
	artist := sanitizePathComponent(sheet.Performer)
	album := sanitizePathComponent(sheet.Title)
	switch mode {
	case domain.CollectionArtist:
		if artist != "" {
			return filepath.Join(outputDir, artist)
		}
	case domain.CollectionAlbum:
		if album != "" {
			return filepath.Join(outputDir, album)
		}
	case domain.CollectionArtistAlbum:
		if artist != "" && album != "" {
			return filepath.Join(outputDir, artist, album)
		}
	}
	return outputDir
}

// sanitizePathComponent keeps letters, digits, spaces, underscores, and
// hyphens, matching the folder names the splitter generates.
func sanitizePathComponent(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '_' || r == '-':
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// expectedTrackPaths lists the per-track outputs the splitter should
// produce for the sheet.
func expectedTrackPaths(trackDir string, sheet cuesheet.Sheet, format, audioPath string) []string {
	ext := trackExtension(format, audioPath)
	audioTracks := sheet.AudioTracks()
	paths := make([]string, 0, len(audioTracks))
	for _, track := range audioTracks {
		paths = append(paths, filepath.Join(trackDir, trackFileName(track, ext)))
	}
	return paths
}

// trackExtension maps the output format to the produced file extension;
// copy keeps the source container's extension.
func trackExtension(format, audioPath string) string {
	if format == "copy" {
		return strings.ToLower(filepath.Ext(audioPath))
	}
	return "." + format
}

// trackFileName builds the splitter's output name for one track.
func trackFileName(track cuesheet.Track, ext string) string {
	title := strings.TrimSpace(track.Title)
	if title == "" {
		title = fmt.Sprintf("Track %02d", track.Number)
	}
	title = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, title)
	return fmt.Sprintf("%02d - %s%s", track.Number, title, ext)
}

// NewSplitForTests constructs a split executor with injectable
// dependencies.
func NewSplitForTests(
	splitterPath string,
	runner tools.Runner,
	report Reporter,
	stat func(string) (os.FileInfo, error),
) *Split {
	return &Split{
		splitterPath: splitterPath,
		runner:       runner,
		report:       report,
		stat:         stat,
	}
}
