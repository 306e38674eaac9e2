package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Expand resolves a mixed list of file and directory inputs into a
// deduplicated, extension-filtered sequence of files. Directories are
// walked in lexical order and duplicates keep their first-seen position.
// Unreadable paths are logged and skipped; traversal continues.
func Expand(inputs []string, allowedExtensions []string, logger *log.Logger) []string {
	allowed := normalizeExtensions(allowedExtensions)
	seen := make(map[string]struct{})
	files := make([]string, 0, len(inputs))

	add := func(path string) {
		key := CanonicalKey(path)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		files = append(files, path)
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			logWarn(logger, "skipping unreadable input", "path", input, "err", err)
			continue
		}

		if !info.IsDir() {
			if matchesExtension(input, allowed) {
				add(input)
			}
			continue
		}

		walkErr := filepath.WalkDir(input, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				logWarn(logger, "skipping unreadable path", "path", path, "err", err)
				return nil
			}
			if entry.IsDir() {
				return nil
			}
			if matchesExtension(path, allowed) {
				add(path)
			}
			return nil
		})
		if walkErr != nil {
			logWarn(logger, "directory walk aborted", "path", input, "err", walkErr)
		}
	}

	return files
}

// CanonicalKey normalizes a path for deduplication.
func CanonicalKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// normalizeExtensions lowercases and dot-prefixes the allowed set.
func normalizeExtensions(extensions []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return allowed
}

// matchesExtension reports whether the path's extension is allowed.
func matchesExtension(path string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return false
	}
	_, ok := allowed[strings.ToLower(filepath.Ext(path))]
	return ok
}

// logWarn forwards a warning when a logger is configured.
func logWarn(logger *log.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}
