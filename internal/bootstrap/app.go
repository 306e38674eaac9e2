package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/bai0012/audio-toolkit-gui/internal/batch"
	"github.com/bai0012/audio-toolkit-gui/internal/config"
	"github.com/bai0012/audio-toolkit-gui/internal/diagnostics"
	"github.com/bai0012/audio-toolkit-gui/internal/domain"
	"github.com/bai0012/audio-toolkit-gui/internal/tags"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var audioDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Audio and cue files",
		Pattern:     "*.cue;*.wav;*.flac;*.mp3",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App wires configuration, the batch orchestrator, diagnostics, and UI
// runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Batches     *batch.Orchestrator
	Tags        tagReader
	Diagnostics domain.DiagnosticReport

	logger  *log.Logger
	assets  fs.FS
	checker *diagnostics.Checker

	mu         sync.Mutex
	runtimeCtx context.Context
}

// tagReader isolates tag reading behind an interface.
type tagReader interface {
	Read(path string) (domain.FileTags, error)
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}
	if err := ensureLocalBinOnPATH(homeDir); err != nil {
		return nil, fmt.Errorf("prepare local tool path: %w", err)
	}

	store := config.NewJSONStore(filepath.Join(homeDir, ".audio-toolkit", "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	app := &App{
		Settings:    settings,
		Store:       store,
		Tags:        tags.NewAccessor(),
		Diagnostics: report,
		logger:      logger,
		assets:      assets,
		checker:     checker,
	}
	app.Batches = batch.NewOrchestrator(logger, app.emitBatchEvent)
	return app, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Audio Toolkit",
		Width:       1180,
		Height:      780,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = normalized
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(normalized)
	}
	a.mu.Unlock()

	return normalized, nil
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	report := a.Diagnostics
	a.mu.Unlock()
	return report, nil
}

// SubmitBatch validates and starts background processing of the given
// inputs. The returned batch is pending; progress arrives as events.
func (a *App) SubmitBatch(jobs []domain.JobDescriptor, cfg domain.BatchConfig) (domain.Batch, error) {
	return a.Batches.Submit(jobs, cfg)
}

// CancelBatch requests cooperative cancellation of a running batch.
func (a *App) CancelBatch(batchID string) error {
	return a.Batches.Cancel(batchID)
}

// GetBatch returns the lifecycle snapshot of one batch.
func (a *App) GetBatch(batchID string) (domain.Batch, error) {
	return a.Batches.Batch(batchID)
}

// ListBatches returns every batch of this session in submission order.
func (a *App) ListBatches() []domain.Batch {
	return a.Batches.Batches()
}

// BatchEvents returns a batch's events with sequence greater than sinceSeq.
func (a *App) BatchEvents(batchID string, sinceSeq int64) ([]batch.Event, error) {
	return a.Batches.Events(batchID, sinceSeq)
}

// GetBatchSummary returns the aggregated results of a finished batch.
func (a *App) GetBatchSummary(batchID string) (domain.BatchSummary, error) {
	return a.Batches.Summary(batchID)
}

// ReadFileTags reads the normalized tag fields of one audio file for the
// tag editor view.
func (a *App) ReadFileTags(path string) (domain.FileTags, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return domain.FileTags{}, fmt.Errorf("file path is required")
	}
	return a.Tags.Read(trimmed)
}

// PickAudioFiles opens a native dialog for selecting one or more inputs.
func (a *App) PickAudioFiles() ([]string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return nil, err
	}

	paths, err := wailsruntime.OpenMultipleFilesDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select audio files",
		Filters: audioDialogFilter,
	})
	if err != nil {
		return nil, err
	}

	trimmed := make([]string, 0, len(paths))
	for _, path := range paths {
		if p := strings.TrimSpace(path); p != "" {
			trimmed = append(trimmed, p)
		}
	}
	return trimmed, nil
}

// PickSourceDirectory opens a native directory picker for batch inputs.
func (a *App) PickSourceDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select source directory",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickOutputDirectory opens a native directory picker for outputs.
func (a *App) PickOutputDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select output directory",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// OpenOutputFolder opens the given path (or configured output dir) in the
// file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.Settings.OutputDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// emitBatchEvent pushes one orchestrator event to the frontend.
func (a *App) emitBatchEvent(event batch.Event) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "batch:event", event)
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user inputs and coerces unsupported options.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.OutputDir = strings.TrimSpace(settings.OutputDir)
	settings.CoverURL = strings.TrimSpace(settings.CoverURL)
	return config.Normalize(settings)
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
