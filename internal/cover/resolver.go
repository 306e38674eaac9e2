// Package cover locates the cover image used when embedding art: a
// configured URL first, then a fixed list of well-known file names in
// the target directory.
package cover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoCover is returned when the local search list yields no image.
var ErrNoCover = errors.New("no cover image available")

// localCandidates is the fixed local search order; the first existing
// file in a directory wins.
var localCandidates = []string{"cover.png", "cover.jpg", "cover.jpeg", "cover.webp"}

// mimeExtensions maps acceptable download content types to extensions.
var mimeExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// Source is one resolved cover image. Downloaded sources are temporary
// files owned by the caller, to be removed once the batch is done with
// the directory.
type Source struct {
	Path       string `json:"path"`
	Downloaded bool   `json:"downloaded"`
}

// Resolver finds cover images for a directory.
type Resolver struct {
	client    *http.Client
	userAgent string
	stat      func(string) (os.FileInfo, error)
}

// NewResolver builds a resolver with a 10 second download timeout.
func NewResolver() *Resolver {
	return &Resolver{
		client:    &http.Client{Timeout: 10 * time.Second},
		userAgent: "audio-toolkit-gui/1.0",
		stat:      os.Stat,
	}
}

// Download fetches rawURL into a temp file inside dir. The extension is
// taken from the response content type, falling back to the URL path.
func (r *Resolver) Download(ctx context.Context, dir, rawURL string) (Source, error) {
	if strings.TrimSpace(rawURL) == "" {
		return Source{}, errors.New("cover url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Source{}, fmt.Errorf("build cover request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return Source{}, fmt.Errorf("fetch cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Source{}, fmt.Errorf("fetch cover: unexpected status %s", resp.Status)
	}

	ext := extensionForResponse(resp.Header.Get("Content-Type"), rawURL)
	if ext == "" {
		return Source{}, fmt.Errorf("fetch cover: unsupported content type %q", resp.Header.Get("Content-Type"))
	}

	tmp, err := os.CreateTemp(dir, "cover-download-*"+ext)
	if err != nil {
		return Source{}, fmt.Errorf("create cover temp file: %w", err)
	}

	_, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		if copyErr != nil {
			return Source{}, fmt.Errorf("download cover: %w", copyErr)
		}
		return Source{}, fmt.Errorf("download cover: %w", closeErr)
	}

	return Source{Path: tmp.Name(), Downloaded: true}, nil
}

// FindLocal returns the first matching candidate file in dir, or
// ErrNoCover when none exists.
func (r *Resolver) FindLocal(dir string) (Source, error) {
	for _, name := range localCandidates {
		candidate := filepath.Join(dir, name)
		info, err := r.stat(candidate)
		if err == nil && !info.IsDir() {
			return Source{Path: candidate}, nil
		}
	}
	return Source{}, ErrNoCover
}

// extensionForResponse picks a file extension from the content type,
// falling back to a recognized extension on the URL path.
func extensionForResponse(contentType, rawURL string) string {
	base := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if ext, ok := mimeExtensions[base]; ok {
		return ext
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	switch ext := strings.ToLower(path.Ext(parsed.Path)); ext {
	case ".png", ".jpg", ".jpeg", ".webp":
		return ext
	default:
		return ""
	}
}

// NewResolverForTests creates a resolver with injectable dependencies.
func NewResolverForTests(
	client *http.Client,
	userAgent string,
	stat func(string) (os.FileInfo, error),
) *Resolver {
	return &Resolver{
		client:    client,
		userAgent: userAgent,
		stat:      stat,
	}
}
