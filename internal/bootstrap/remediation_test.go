package bootstrap

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/bai0012/audio-toolkit-gui/internal/diagnostics"
	"github.com/bai0012/audio-toolkit-gui/internal/domain"
)

// TestFixOutputDirCreatesDirectory ensures the output dir fix creates
// missing directories.
func TestFixOutputDirCreatesDirectory(t *testing.T) {
	root := t.TempDir()
	outputDir := filepath.Join(root, "nested", "albums")

	if err := fixOutputDir(domain.Settings{OutputDir: outputDir}); err != nil {
		t.Fatalf("fix output dir: %v", err)
	}
	if _, err := os.Stat(outputDir); err != nil {
		t.Fatalf("stat output dir: %v", err)
	}
}

// TestFixOutputDirAcceptsEmptyDir ensures the next-to-source default
// needs no fixing.
func TestFixOutputDirAcceptsEmptyDir(t *testing.T) {
	if err := fixOutputDir(domain.Settings{}); err != nil {
		t.Fatalf("fix empty output dir: %v", err)
	}
}

// TestInstallOrFixDiagnosticRejectsUnknownID ensures bad item IDs are
// rejected before any installer runs.
func TestInstallOrFixDiagnosticRejectsUnknownID(t *testing.T) {
	app := newTestApp(&fakeStore{}, &fakeTagAccessor{})

	if _, err := app.InstallOrFixDiagnostic(""); err == nil {
		t.Fatal("expected error for empty item ID")
	}
	if _, err := app.InstallOrFixDiagnostic("unknown_check"); err == nil {
		t.Fatal("expected error for unknown item ID")
	}
}

// TestInstallOrFixDiagnosticFixesOutputDir ensures the output dir item
// is repaired and diagnostics rerun.
func TestInstallOrFixDiagnosticFixesOutputDir(t *testing.T) {
	root := t.TempDir()
	outputDir := filepath.Join(root, "missing", "out")

	store := &fakeStore{settings: domain.Settings{OutputFormat: "flac", OutputDir: outputDir}}
	app := newTestApp(store, &fakeTagAccessor{})

	report, err := app.InstallOrFixDiagnostic(diagnostics.CheckOutputDir)
	if err != nil {
		t.Fatalf("fix diagnostic: %v", err)
	}
	if _, err := os.Stat(outputDir); err != nil {
		t.Fatalf("stat output dir: %v", err)
	}
	item, ok := report.FindItem(diagnostics.CheckOutputDir)
	if !ok {
		t.Fatal("output dir item missing from refreshed report")
	}
	if item.Status != domain.DiagnosticStatusPass {
		t.Fatalf("status = %s, want %s", item.Status, domain.DiagnosticStatusPass)
	}
}

// TestExtractExecutablesFromZip validates nested archive layouts are
// searched for the wanted executables.
func TestExtractExecutablesFromZip(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "build.zip")
	writeZipFixture(t, zipPath, map[string]string{
		"ffmpeg-7.0/README.txt":      "docs",
		"ffmpeg-7.0/bin/ffmpeg.exe":  "ffmpeg binary",
		"ffmpeg-7.0/bin/ffprobe.exe": "ffprobe binary",
	})

	extractDir := filepath.Join(root, "extracted")
	found, err := extractExecutablesFromZip(zipPath, extractDir, []string{"ffmpeg.exe", "ffprobe.exe"})
	if err != nil {
		t.Fatalf("extract zip: %v", err)
	}
	for _, name := range []string{"ffmpeg.exe", "ffprobe.exe"} {
		path, ok := found[name]
		if !ok {
			t.Fatalf("%s not located in archive", name)
		}
		if !isWithinBaseDir(extractDir, path) {
			t.Fatalf("extracted path %s escapes %s", path, extractDir)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
	}
}

// TestExtractExecutablesFromZipRejectsMissingWanted ensures archives
// without the executables fail loudly.
func TestExtractExecutablesFromZipRejectsMissingWanted(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "build.zip")
	writeZipFixture(t, zipPath, map[string]string{"docs/readme.md": "no binaries here"})

	if _, err := extractExecutablesFromZip(zipPath, filepath.Join(root, "out"), []string{"ffmpeg.exe"}); err == nil {
		t.Fatal("expected error when no wanted executable is present")
	}
}

// TestIsWithinBaseDirRejectsTraversal validates the archive path
// traversal guard.
func TestIsWithinBaseDirRejectsTraversal(t *testing.T) {
	base := filepath.Join("C:\\", "tmp", "root")
	target := filepath.Join(base, "..", "escape.txt")
	if isWithinBaseDir(base, target) {
		t.Fatal("expected traversal target to be rejected")
	}
}

// TestRequiresElevation covers the managers that need root.
func TestRequiresElevation(t *testing.T) {
	for _, manager := range []string{"apt-get", "dnf", "pacman", "zypper"} {
		if !requiresElevation(manager) {
			t.Fatalf("%s should require elevation", manager)
		}
	}
	for _, manager := range []string{"brew", "pipx", "pip3", "scoop"} {
		if requiresElevation(manager) {
			t.Fatalf("%s should not require elevation", manager)
		}
	}
}

// writeZipFixture builds a small archive for extraction tests.
func writeZipFixture(t *testing.T, zipPath string, entries map[string]string) {
	t.Helper()
	archive, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	writer := zip.NewWriter(archive)
	for name, content := range entries {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	if err := archive.Close(); err != nil {
		t.Fatalf("close zip file: %v", err)
	}
}
