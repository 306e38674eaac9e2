package cover

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestResolver(server *httptest.Server) *Resolver {
	return NewResolverForTests(server.Client(), "test-agent", os.Stat)
}

func TestDownloadWritesImageIntoTargetDirectory(t *testing.T) {
	payload := []byte("png-bytes")
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	dir := t.TempDir()
	src, err := newTestResolver(server).Download(context.Background(), dir, server.URL+"/art")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if !src.Downloaded {
		t.Fatalf("expected Downloaded to be true")
	}
	if filepath.Dir(src.Path) != dir {
		t.Fatalf("expected download in %s, got %s", dir, src.Path)
	}
	if !strings.HasSuffix(src.Path, ".png") {
		t.Fatalf("expected .png extension, got %s", src.Path)
	}
	if gotAgent != "test-agent" {
		t.Fatalf("expected custom user agent, got %q", gotAgent)
	}

	data, err := os.ReadFile(src.Path)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != string(payload) {
		t.Fatalf("downloaded bytes do not match served payload")
	}
}

func TestDownloadFallsBackToURLExtension(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("webp-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	src, err := newTestResolver(server).Download(context.Background(), dir, server.URL+"/art/cover.webp")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if !strings.HasSuffix(src.Path, ".webp") {
		t.Fatalf("expected extension from URL path, got %s", src.Path)
	}
}

func TestDownloadRejectsUnsupportedContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer server.Close()

	dir := t.TempDir()
	_, err := newTestResolver(server).Download(context.Background(), dir, server.URL+"/page")
	if err == nil {
		t.Fatalf("expected error for unsupported content type")
	}

	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatalf("reading directory: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files left behind, found %d", len(entries))
	}
}

func TestDownloadRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestResolver(server).Download(context.Background(), t.TempDir(), server.URL+"/missing.png")
	if err == nil {
		t.Fatalf("expected error for 404 response")
	}
}

func TestFindLocalPrefersPNGOverJPG(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cover.jpg", "cover.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	src, err := NewResolver().FindLocal(dir)
	if err != nil {
		t.Fatalf("FindLocal returned error: %v", err)
	}
	if filepath.Base(src.Path) != "cover.png" {
		t.Fatalf("expected cover.png to win, got %s", src.Path)
	}
	if src.Downloaded {
		t.Fatalf("local covers must not be marked as downloaded")
	}
}

func TestFindLocalMatchesLaterCandidates(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cover.jpeg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("writing cover.jpeg: %v", err)
	}

	src, err := NewResolver().FindLocal(dir)
	if err != nil {
		t.Fatalf("FindLocal returned error: %v", err)
	}
	if filepath.Base(src.Path) != "cover.jpeg" {
		t.Fatalf("expected cover.jpeg, got %s", src.Path)
	}
}

func TestFindLocalReportsMissingCover(t *testing.T) {
	_, err := NewResolver().FindLocal(t.TempDir())
	if !errors.Is(err, ErrNoCover) {
		t.Fatalf("expected ErrNoCover, got %v", err)
	}
}
