// Package tags reads and writes a normalized tag set on single audio
// files, hiding the differences between FLAC vorbis comments and MP3
// ID3v2 frames behind one accessor.
package tags

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bai0012/audio-toolkit-gui/internal/domain"
)

// ErrUnsupportedFormat is returned for files outside the supported
// containers.
var ErrUnsupportedFormat = errors.New("unsupported tag container")

// Picture is embedded cover art read from or written to a container.
type Picture struct {
	MIME string `json:"mime"`
	Data []byte `json:"-"`
}

// Accessor reads and writes normalized tags on single audio files.
type Accessor struct{}

// NewAccessor returns the production accessor.
func NewAccessor() *Accessor {
	return &Accessor{}
}

// Read returns the file's present tag fields and cover-art presence.
func (a *Accessor) Read(path string) (domain.FileTags, error) {
	switch containerFormat(path) {
	case "flac":
		return readFLACTags(path)
	case "mp3":
		return readMP3Tags(path)
	default:
		return domain.FileTags{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Write applies tri-state edits to one file. Fields absent from edits are
// left untouched, explicit values overwrite, and clears remove the field.
// The write lands atomically from the caller's perspective: the file is
// rewritten to a sibling temp file and renamed into place.
func (a *Accessor) Write(path string, edits domain.TagEdits) error {
	if len(edits) == 0 {
		return nil
	}
	for key := range edits {
		if !domain.KnownTagKey(key) {
			return fmt.Errorf("unknown tag field: %s", key)
		}
	}

	switch containerFormat(path) {
	case "flac":
		return writeFLACTags(path, edits)
	case "mp3":
		return writeMP3Tags(path, edits)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadPicture returns the first embedded picture, reporting whether one
// was present.
func (a *Accessor) ReadPicture(path string) (Picture, bool, error) {
	switch containerFormat(path) {
	case "flac":
		return readFLACPicture(path)
	case "mp3":
		return readMP3Picture(path)
	default:
		return Picture{}, false, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// EmbedPicture replaces any embedded cover art with pic as the front
// cover.
func (a *Accessor) EmbedPicture(path string, pic Picture) error {
	switch containerFormat(path) {
	case "flac":
		return embedFLACPicture(path, pic)
	case "mp3":
		return embedMP3Picture(path, pic)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// containerFormat maps a file extension to a supported container name.
func containerFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return "flac"
	case ".mp3":
		return "mp3"
	default:
		return ""
	}
}
