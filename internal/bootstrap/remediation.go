package bootstrap

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"time"

	"github.com/bai0012/audio-toolkit-gui/internal/diagnostics"
	"github.com/bai0012/audio-toolkit-gui/internal/domain"
)

const (
	ffmpegWindowsBuildURL = "https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip"

	installCommandTimeout = 45 * time.Minute
	downloadToolTimeout   = 30 * time.Minute
)

type installOption struct {
	manager  string
	commands [][]string
}

// InstallOrFixDiagnostic applies an OS-specific remediation for one failed diagnostic item.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	var fixErr error
	switch id {
	case diagnostics.CheckFfmpeg, diagnostics.CheckFfprobe:
		fixErr = installFFmpegForCurrentOS()
	case diagnostics.CheckSplitter:
		fixErr = installSplitterForCurrentOS()
	case diagnostics.CheckOutputDir:
		fixErr = fixOutputDir(settings)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	return report, fixErr
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

func ensureLocalBinOnPATH(homeDir string) error {
	binDir := localBinDir(homeDir)
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}

	current := os.Getenv("PATH")
	entries := filepath.SplitList(current)
	for _, entry := range entries {
		if filepath.Clean(entry) == filepath.Clean(binDir) {
			return nil
		}
	}

	if current == "" {
		return os.Setenv("PATH", binDir)
	}
	return os.Setenv("PATH", binDir+string(os.PathListSeparator)+current)
}

func localBinDir(homeDir string) string {
	return filepath.Join(homeDir, ".audio-toolkit", "bin")
}

func installFFmpegForCurrentOS() error {
	if err := requireToolsOnPath("ffmpeg", "ffprobe"); err == nil {
		return nil
	}

	options := []installOption{}

	switch goruntime.GOOS {
	case "windows":
		options = []installOption{
			{
				manager: "winget",
				commands: [][]string{
					{"winget", "install", "--id", "Gyan.FFmpeg", "--exact", "--accept-source-agreements", "--accept-package-agreements"},
				},
			},
			{
				manager: "choco",
				commands: [][]string{
					{"choco", "install", "ffmpeg", "-y"},
				},
			},
			{
				manager: "scoop",
				commands: [][]string{
					{"scoop", "install", "ffmpeg"},
				},
			},
		}
	case "darwin":
		options = []installOption{
			{
				manager: "brew",
				commands: [][]string{
					{"brew", "install", "ffmpeg"},
				},
			},
		}
	default:
		options = []installOption{
			{
				manager: "apt-get",
				commands: [][]string{
					{"apt-get", "update"},
					{"apt-get", "install", "-y", "ffmpeg"},
				},
			},
			{
				manager: "dnf",
				commands: [][]string{
					{"dnf", "install", "-y", "ffmpeg"},
				},
			},
			{
				manager: "pacman",
				commands: [][]string{
					{"pacman", "-Sy", "--noconfirm", "ffmpeg"},
				},
			},
			{
				manager: "zypper",
				commands: [][]string{
					{"zypper", "install", "-y", "ffmpeg"},
				},
			},
			{
				manager: "brew",
				commands: [][]string{
					{"brew", "install", "ffmpeg"},
				},
			},
		}
	}

	installErr := runFirstSuccessfulInstall(options)
	if installErr == nil {
		if err := requireToolsOnPath("ffmpeg", "ffprobe"); err == nil {
			return nil
		}
	}

	if goruntime.GOOS == "windows" {
		fallbackErr := installFFmpegWindowsFromStaticBuild()
		if fallbackErr == nil {
			if err := requireToolsOnPath("ffmpeg", "ffprobe"); err == nil {
				return nil
			}
		} else if installErr != nil {
			installErr = fmt.Errorf("%v | static build fallback: %w", installErr, fallbackErr)
		} else {
			installErr = fmt.Errorf("static build fallback: %w", fallbackErr)
		}
	}

	if installErr != nil {
		return fmt.Errorf("install ffmpeg/ffprobe: %w", installErr)
	}
	return fmt.Errorf("verify ffmpeg/ffprobe on PATH: %w", requireToolsOnPath("ffmpeg", "ffprobe"))
}

func installSplitterForCurrentOS() error {
	if err := requireToolsOnPath("ffcuesplitter"); err == nil {
		return nil
	}

	// ffcuesplitter ships on PyPI, so installation goes through Python
	// tooling rather than system package managers.
	options := []installOption{
		{
			manager: "pipx",
			commands: [][]string{
				{"pipx", "install", "ffcuesplitter"},
			},
		},
		{
			manager: "pip3",
			commands: [][]string{
				{"pip3", "install", "--user", "ffcuesplitter"},
			},
		},
		{
			manager: "pip",
			commands: [][]string{
				{"pip", "install", "--user", "ffcuesplitter"},
			},
		},
	}

	installErr := runFirstSuccessfulInstall(options)
	if installErr == nil {
		if err := requireToolsOnPath("ffcuesplitter"); err == nil {
			return nil
		}
	}

	// pip --user installs land in script directories that are often not
	// on PATH.
	if err := createSplitterAlias(); err != nil {
		if installErr != nil {
			return fmt.Errorf("install ffcuesplitter failed: %v | alias creation failed: %w", installErr, err)
		}
		return fmt.Errorf("create ffcuesplitter command alias: %w", err)
	}

	if err := requireToolsOnPath("ffcuesplitter"); err != nil {
		if installErr != nil {
			return fmt.Errorf("install ffcuesplitter failed: %v | verify ffcuesplitter on PATH: %w", installErr, err)
		}
		return fmt.Errorf("verify ffcuesplitter on PATH: %w", err)
	}
	return nil
}

func runFirstSuccessfulInstall(options []installOption) error {
	if len(options) == 0 {
		return fmt.Errorf("no install commands configured for OS %s", goruntime.GOOS)
	}

	errorsByManager := make([]string, 0, len(options))
	atLeastOneManager := false

	for _, option := range options {
		if !commandAvailable(option.manager) {
			continue
		}
		atLeastOneManager = true
		if err := runInstallCommands(option.commands); err == nil {
			return nil
		} else {
			errorsByManager = append(errorsByManager, fmt.Sprintf("%s: %v", option.manager, err))
		}
	}

	if !atLeastOneManager {
		return fmt.Errorf("no supported package manager found for %s", goruntime.GOOS)
	}
	return errors.New(strings.Join(errorsByManager, " | "))
}

func runInstallCommands(commands [][]string) error {
	for _, command := range commands {
		if err := runCommandWithPossibleElevation(command); err != nil {
			return err
		}
	}
	return nil
}

func runCommandWithPossibleElevation(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}

	candidates := [][]string{command}
	if goruntime.GOOS == "linux" && requiresElevation(command[0]) {
		if commandAvailable("pkexec") {
			candidates = append(candidates, append([]string{"pkexec"}, command...))
		}
		if commandAvailable("sudo") {
			candidates = append(candidates, append([]string{"sudo", "-n"}, command...))
		}
	}

	attemptErrors := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if err := runCommand(candidate[0], candidate[1:]...); err == nil {
			return nil
		} else {
			attemptErrors = append(attemptErrors, err.Error())
		}
	}

	return errors.New(strings.Join(attemptErrors, " | "))
}

func runCommand(name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), installCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", formatCommand(name, args), installCommandTimeout)
	}

	trimmed := strings.TrimSpace(string(output))
	if len(trimmed) > 500 {
		trimmed = trimmed[:500] + "..."
	}
	if trimmed == "" {
		return fmt.Errorf("%s failed: %w", formatCommand(name, args), err)
	}
	return fmt.Errorf("%s failed: %w (%s)", formatCommand(name, args), err, trimmed)
}

func formatCommand(name string, args []string) string {
	parts := append([]string{name}, args...)
	return strings.Join(parts, " ")
}

func requiresElevation(manager string) bool {
	switch manager {
	case "apt-get", "dnf", "pacman", "zypper":
		return true
	default:
		return false
	}
}

func commandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func requireToolsOnPath(names ...string) error {
	missing := make([]string, 0, len(names))
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tools on PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}

func createSplitterAlias() error {
	if _, err := exec.LookPath("ffcuesplitter"); err == nil {
		return nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve user home: %w", err)
	}

	var candidates []string
	if goruntime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			matches, _ := filepath.Glob(filepath.Join(appData, "Python", "*", "Scripts", "ffcuesplitter.exe"))
			candidates = append(candidates, matches...)
		}
	} else {
		candidates = append(candidates, filepath.Join(homeDir, ".local", "bin", "ffcuesplitter"))
	}

	var sourcePath string
	for _, candidate := range candidates {
		info, statErr := os.Stat(candidate)
		if statErr == nil && !info.IsDir() {
			sourcePath = candidate
			break
		}
	}
	if sourcePath == "" {
		return fmt.Errorf("ffcuesplitter executable not found in user script directories")
	}

	return createToolAlias("ffcuesplitter", sourcePath)
}

func createToolAlias(name, sourcePath string) error {
	if strings.TrimSpace(sourcePath) == "" {
		return fmt.Errorf("source executable path is empty")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve user home: %w", err)
	}

	if err := ensureLocalBinOnPATH(homeDir); err != nil {
		return err
	}

	binDir := localBinDir(homeDir)
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("create local bin directory: %w", err)
	}

	if goruntime.GOOS == "windows" {
		aliasPath := filepath.Join(binDir, name+".cmd")
		content := fmt.Sprintf("@echo off\r\n\"%s\" %%*\r\n", sourcePath)
		if err := os.WriteFile(aliasPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s alias file: %w", name, err)
		}
		return nil
	}

	aliasPath := filepath.Join(binDir, name)
	escaped := strings.ReplaceAll(sourcePath, "\"", "\\\"")
	content := fmt.Sprintf("#!/usr/bin/env sh\nexec \"%s\" \"$@\"\n", escaped)
	if err := os.WriteFile(aliasPath, []byte(content), 0o755); err != nil {
		return fmt.Errorf("write %s alias script: %w", name, err)
	}
	return nil
}

func installFFmpegWindowsFromStaticBuild() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve user home: %w", err)
	}

	installDir := filepath.Join(homeDir, ".audio-toolkit", "tools", "ffmpeg")
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return fmt.Errorf("create ffmpeg install directory: %w", err)
	}

	zipPath := filepath.Join(installDir, "ffmpeg-release-essentials.zip")
	if err := downloadURLToFile(zipPath, ffmpegWindowsBuildURL, downloadToolTimeout); err != nil {
		return fmt.Errorf("download ffmpeg static build: %w", err)
	}

	executables, err := extractExecutablesFromZip(zipPath, installDir, []string{"ffmpeg.exe", "ffprobe.exe"})
	if err != nil {
		return fmt.Errorf("extract ffmpeg static build: %w", err)
	}

	for _, wanted := range []string{"ffmpeg.exe", "ffprobe.exe"} {
		executablePath, found := executables[wanted]
		if !found {
			return fmt.Errorf("static build archive does not contain %s", wanted)
		}
		aliasName := strings.TrimSuffix(wanted, ".exe")
		if err := createToolAlias(aliasName, executablePath); err != nil {
			return err
		}
	}
	return nil
}

func downloadURLToFile(destinationPath string, sourceURL string, timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(destinationPath), 0o755); err != nil {
		return fmt.Errorf("prepare destination directory: %w", err)
	}

	tmpPath := destinationPath + ".download"
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale temp file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "audio-toolkit-gui")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	_, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write destination file: %w", copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close destination file: %w", closeErr)
	}

	if err := os.Remove(destinationPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("remove old destination file: %w", err)
	}
	if err := os.Rename(tmpPath, destinationPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("move downloaded file into place: %w", err)
	}

	return nil
}

// extractExecutablesFromZip unpacks the archive into extractDir and
// returns the paths of the wanted executables found inside, keyed by
// their lowercase base name.
func extractExecutablesFromZip(zipPath string, extractDir string, wanted []string) (map[string]string, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	wantedSet := make(map[string]struct{}, len(wanted))
	for _, name := range wanted {
		wantedSet[strings.ToLower(name)] = struct{}{}
	}
	found := make(map[string]string)

	for _, file := range reader.File {
		if file == nil {
			continue
		}
		cleanName := filepath.Clean(file.Name)
		if cleanName == "." || cleanName == "" {
			continue
		}
		targetPath := filepath.Join(extractDir, cleanName)
		if !isWithinBaseDir(extractDir, targetPath) {
			return nil, fmt.Errorf("zip contains invalid path: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				return nil, err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return nil, err
		}

		src, err := file.Open()
		if err != nil {
			return nil, err
		}

		dst, err := os.OpenFile(targetPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, file.Mode())
		if err != nil {
			_ = src.Close()
			return nil, err
		}

		_, copyErr := io.Copy(dst, src)
		srcCloseErr := src.Close()
		dstCloseErr := dst.Close()
		if copyErr != nil {
			return nil, copyErr
		}
		if srcCloseErr != nil {
			return nil, srcCloseErr
		}
		if dstCloseErr != nil {
			return nil, dstCloseErr
		}

		baseName := strings.ToLower(filepath.Base(targetPath))
		if _, ok := wantedSet[baseName]; ok {
			found[baseName] = targetPath
		}
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("extracted archive does not contain any of: %s", strings.Join(wanted, ", "))
	}
	return found, nil
}

func isWithinBaseDir(baseDir string, targetPath string) bool {
	baseClean := filepath.Clean(baseDir)
	targetClean := filepath.Clean(targetPath)
	relative, err := filepath.Rel(baseClean, targetClean)
	if err != nil {
		return false
	}
	return relative == "." || (!strings.HasPrefix(relative, "..") && relative != "")
}

// fixOutputDir creates the configured output directory. An empty setting
// needs no fix because outputs land next to their sources.
func fixOutputDir(settings domain.Settings) error {
	outputDir := strings.TrimSpace(settings.OutputDir)
	if outputDir == "" {
		return nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", outputDir, err)
	}
	return nil
}
