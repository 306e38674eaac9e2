// Package cuesheet reads the subset of the CUE sheet format needed to
// validate a split job and verify its outputs: FILE references, track
// numbers and titles, and the sheet-level performer and title.
package cuesheet

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Track is one TRACK directive inside a FILE block.
type Track struct {
	Number    int
	Mode      string
	Title     string
	Performer string
}

// File is one FILE directive with the tracks declared under it.
type File struct {
	Name   string
	Type   string
	Tracks []Track
}

// Sheet holds parsed cue sheet data.
type Sheet struct {
	Title     string
	Performer string
	Files     []File
}

// AudioTracks returns every TRACK of mode AUDIO across all FILE blocks,
// in declaration order.
func (s Sheet) AudioTracks() []Track {
	var tracks []Track
	for _, file := range s.Files {
		for _, track := range file.Tracks {
			if strings.EqualFold(track.Mode, "AUDIO") {
				tracks = append(tracks, track)
			}
		}
	}
	return tracks
}

// Validate checks the sheet references an audio file and declares at
// least one audio track.
func (s Sheet) Validate() error {
	if len(s.Files) == 0 {
		return errors.New("cue sheet has no FILE directive")
	}
	if len(s.AudioTracks()) == 0 {
		return errors.New("cue sheet has no audio tracks")
	}
	return nil
}

// ParseFile reads and parses the cue sheet at path.
func ParseFile(path string) (Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sheet{}, err
	}
	defer f.Close()

	sheet, err := Parse(f)
	if err != nil {
		return Sheet{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return sheet, nil
}

// Parse reads a cue sheet, tolerating a UTF-8 BOM, CRLF line endings, and
// both quoted and bare values. Unknown directives are ignored.
func Parse(r io.Reader) (Sheet, error) {
	var sheet Sheet
	fileIdx := -1
	trackIdx := -1

	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}
		if line == "" {
			continue
		}

		directive, rest := splitToken(line)
		switch strings.ToUpper(directive) {
		case "REM":
			continue
		case "TITLE":
			value, _ := splitToken(rest)
			if fileIdx >= 0 && trackIdx >= 0 {
				sheet.Files[fileIdx].Tracks[trackIdx].Title = value
			} else if sheet.Title == "" {
				sheet.Title = value
			}
		case "PERFORMER":
			value, _ := splitToken(rest)
			if fileIdx >= 0 && trackIdx >= 0 {
				sheet.Files[fileIdx].Tracks[trackIdx].Performer = value
			} else if sheet.Performer == "" {
				sheet.Performer = value
			}
		case "FILE":
			name, fileType := splitToken(rest)
			if name == "" {
				return Sheet{}, errors.New("FILE directive without a file name")
			}
			sheet.Files = append(sheet.Files, File{Name: name, Type: fileType})
			fileIdx = len(sheet.Files) - 1
			trackIdx = -1
		case "TRACK":
			if fileIdx < 0 {
				return Sheet{}, errors.New("TRACK directive before any FILE")
			}
			numberText, mode := splitToken(rest)
			number, err := strconv.Atoi(numberText)
			if err != nil {
				return Sheet{}, fmt.Errorf("invalid track number %q", numberText)
			}
			file := &sheet.Files[fileIdx]
			file.Tracks = append(file.Tracks, Track{Number: number, Mode: mode})
			trackIdx = len(file.Tracks) - 1
		}
	}
	if err := scanner.Err(); err != nil {
		return Sheet{}, err
	}

	return sheet, nil
}

// splitToken returns the first token of s, honoring double quotes, plus
// the trimmed remainder.
func splitToken(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}

	if s[0] == '"' {
		if end := strings.IndexByte(s[1:], '"'); end >= 0 {
			return s[1 : end+1], strings.TrimSpace(s[end+2:])
		}
		return s[1:], ""
	}

	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}
