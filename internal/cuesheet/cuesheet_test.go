package cuesheet

import (
	"strings"
	"testing"
)

const sampleCue = "\uFEFFREM GENRE Soundtrack\r\n" +
	"PERFORMER \"Various Artists\"\r\n" +
	"TITLE \"Game Album\"\r\n" +
	"FILE \"Game Album.wav\" WAVE\r\n" +
	"  TRACK 01 AUDIO\r\n" +
	"    TITLE \"Opening Theme\"\r\n" +
	"    PERFORMER \"Composer A\"\r\n" +
	"    INDEX 01 00:00:00\r\n" +
	"  TRACK 02 AUDIO\r\n" +
	"    TITLE \"Battle\"\r\n" +
	"    INDEX 01 04:31:20\r\n"

// TestParseReadsHeaderFileAndTracks checks the common quoted-value layout.
func TestParseReadsHeaderFileAndTracks(t *testing.T) {
	sheet, err := Parse(strings.NewReader(sampleCue))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if sheet.Title != "Game Album" {
		t.Fatalf("Title = %q, want %q", sheet.Title, "Game Album")
	}
	if sheet.Performer != "Various Artists" {
		t.Fatalf("Performer = %q, want %q", sheet.Performer, "Various Artists")
	}
	if len(sheet.Files) != 1 || sheet.Files[0].Name != "Game Album.wav" {
		t.Fatalf("Files = %+v, want one entry for Game Album.wav", sheet.Files)
	}

	tracks := sheet.AudioTracks()
	if len(tracks) != 2 {
		t.Fatalf("AudioTracks = %d, want 2", len(tracks))
	}
	if tracks[0].Number != 1 || tracks[0].Title != "Opening Theme" {
		t.Fatalf("track 1 = %+v", tracks[0])
	}
	if tracks[0].Performer != "Composer A" {
		t.Fatalf("track 1 performer = %q, want %q", tracks[0].Performer, "Composer A")
	}
	if tracks[1].Number != 2 || tracks[1].Title != "Battle" {
		t.Fatalf("track 2 = %+v", tracks[1])
	}
}

// TestParseAcceptsUnquotedFileName checks bare FILE values parse.
func TestParseAcceptsUnquotedFileName(t *testing.T) {
	sheet, err := Parse(strings.NewReader("FILE album.flac WAVE\nTRACK 01 AUDIO\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sheet.Files[0].Name != "album.flac" {
		t.Fatalf("file name = %q, want %q", sheet.Files[0].Name, "album.flac")
	}
	if sheet.Files[0].Type != "WAVE" {
		t.Fatalf("file type = %q, want %q", sheet.Files[0].Type, "WAVE")
	}
}

// TestParseIgnoresNonAudioTracks checks data tracks are excluded from AudioTracks.
func TestParseIgnoresNonAudioTracks(t *testing.T) {
	cue := "FILE disc.bin BINARY\nTRACK 01 MODE1/2352\nFILE disc.wav WAVE\nTRACK 02 AUDIO\n"
	sheet, err := Parse(strings.NewReader(cue))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tracks := sheet.AudioTracks()
	if len(tracks) != 1 || tracks[0].Number != 2 {
		t.Fatalf("AudioTracks = %+v, want single track 02", tracks)
	}
}

// TestParseRejectsTrackBeforeFile checks orphan TRACK directives error.
func TestParseRejectsTrackBeforeFile(t *testing.T) {
	if _, err := Parse(strings.NewReader("TRACK 01 AUDIO\n")); err == nil {
		t.Fatal("expected error for TRACK before FILE")
	}
}

// TestValidateRequiresFileAndAudioTracks checks validation guards.
func TestValidateRequiresFileAndAudioTracks(t *testing.T) {
	if err := (Sheet{}).Validate(); err == nil {
		t.Fatal("expected error for empty sheet")
	}

	noAudio := Sheet{Files: []File{{Name: "disc.bin", Tracks: []Track{{Number: 1, Mode: "MODE1/2352"}}}}}
	if err := noAudio.Validate(); err == nil {
		t.Fatal("expected error for sheet without audio tracks")
	}

	ok := Sheet{Files: []File{{Name: "a.wav", Tracks: []Track{{Number: 1, Mode: "AUDIO"}}}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
