package tags

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bai0012/audio-toolkit-gui/internal/domain"
)

// onePixelPNG is a valid 1x1 PNG used where picture data must decode.
const onePixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

// pngBytes decodes the test PNG fixture.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(onePixelPNG)
	if err != nil {
		t.Fatalf("decode png fixture: %v", err)
	}
	return data
}

// writeTestFLAC creates a minimal FLAC container with an empty STREAMINFO
// block and a token frame section.
func writeTestFLAC(t *testing.T, path string) {
	t.Helper()
	data := []byte("fLaC")
	data = append(data, 0x80, 0x00, 0x00, 0x22)
	data = append(data, make([]byte, 34)...)
	data = append(data, 0xFF, 0xF8, 0x00, 0x00)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write flac fixture: %v", err)
	}
}

// writeTestMP3 creates a tagless file the ID3 writer can prepend to.
func writeTestMP3(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("mp3 audio payload"), 0o644); err != nil {
		t.Fatalf("write mp3 fixture: %v", err)
	}
}

// TestFLACWriteAndReadRoundTrip checks explicit values land and read back.
func TestFLACWriteAndReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "album.flac")
	writeTestFLAC(t, path)
	accessor := NewAccessor()

	edits := domain.TagEdits{}
	edits.SetValue(domain.TagArtist, "Composer A")
	edits.SetValue(domain.TagAlbum, "Game Album")
	edits.SetValue(domain.TagYear, "2003")
	edits.SetValue(domain.TagTrackNumber, "7")
	if err := accessor.Write(path, edits); err != nil {
		t.Fatalf("write tags: %v", err)
	}

	got, err := accessor.Read(path)
	if err != nil {
		t.Fatalf("read tags: %v", err)
	}
	if got.Format != "flac" {
		t.Fatalf("format = %q, want flac", got.Format)
	}
	want := map[domain.TagKey]string{
		domain.TagArtist:      "Composer A",
		domain.TagAlbum:       "Game Album",
		domain.TagYear:        "2003",
		domain.TagTrackNumber: "7",
	}
	for key, value := range want {
		if got.Fields[key] != value {
			t.Fatalf("field %s = %q, want %q", key, got.Fields[key], value)
		}
	}
	if got.HasCover {
		t.Fatal("HasCover = true, want false")
	}
}

// TestFLACClearRemovesOnlyTargetField checks clear leaves other fields intact.
func TestFLACClearRemovesOnlyTargetField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "album.flac")
	writeTestFLAC(t, path)
	accessor := NewAccessor()

	seed := domain.TagEdits{}
	seed.SetValue(domain.TagArtist, "Composer A")
	seed.SetValue(domain.TagAlbum, "Game Album")
	seed.SetValue(domain.TagTitle, "Opening Theme")
	seed.SetValue(domain.TagGenre, "Soundtrack")
	seed.SetValue(domain.TagComment, "rip v1")
	if err := accessor.Write(path, seed); err != nil {
		t.Fatalf("seed tags: %v", err)
	}

	clearEdits := domain.TagEdits{}
	clearEdits.SetClear(domain.TagComment)
	if err := accessor.Write(path, clearEdits); err != nil {
		t.Fatalf("clear tag: %v", err)
	}

	got, err := accessor.Read(path)
	if err != nil {
		t.Fatalf("read tags: %v", err)
	}
	if _, ok := got.Fields[domain.TagComment]; ok {
		t.Fatalf("Comment still present: %q", got.Fields[domain.TagComment])
	}
	if len(got.Fields) != 4 {
		t.Fatalf("fields = %v, want 4 entries", got.Fields)
	}
	if got.Fields[domain.TagArtist] != "Composer A" || got.Fields[domain.TagTitle] != "Opening Theme" {
		t.Fatalf("untouched fields changed: %v", got.Fields)
	}
}

// TestFLACEmptyValueIsNotAClear checks the tri-state survives a round trip.
func TestFLACEmptyValueIsNotAClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "album.flac")
	writeTestFLAC(t, path)
	accessor := NewAccessor()

	edits := domain.TagEdits{}
	edits.SetValue(domain.TagComment, "")
	if err := accessor.Write(path, edits); err != nil {
		t.Fatalf("write tags: %v", err)
	}

	got, err := accessor.Read(path)
	if err != nil {
		t.Fatalf("read tags: %v", err)
	}
	value, ok := got.Fields[domain.TagComment]
	if !ok {
		t.Fatal("Comment absent, want present with empty value")
	}
	if value != "" {
		t.Fatalf("Comment = %q, want empty string", value)
	}
}

// TestFLACPictureEmbedAndRead checks cover art embed, presence, and read-back.
func TestFLACPictureEmbedAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "album.flac")
	writeTestFLAC(t, path)
	accessor := NewAccessor()
	png := pngBytes(t)

	if err := accessor.EmbedPicture(path, Picture{MIME: "image/png", Data: png}); err != nil {
		t.Fatalf("embed picture: %v", err)
	}

	got, err := accessor.Read(path)
	if err != nil {
		t.Fatalf("read tags: %v", err)
	}
	if !got.HasCover {
		t.Fatal("HasCover = false after embed")
	}

	pic, ok, err := accessor.ReadPicture(path)
	if err != nil {
		t.Fatalf("read picture: %v", err)
	}
	if !ok {
		t.Fatal("picture absent after embed")
	}
	if pic.MIME != "image/png" || len(pic.Data) != len(png) {
		t.Fatalf("picture = %s/%d bytes, want image/png/%d bytes", pic.MIME, len(pic.Data), len(png))
	}
}

// TestMP3WriteAndReadRoundTrip checks ID3 frames and COMM handling.
func TestMP3WriteAndReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	writeTestMP3(t, path)
	accessor := NewAccessor()

	edits := domain.TagEdits{}
	edits.SetValue(domain.TagArtist, "Composer A")
	edits.SetValue(domain.TagTitle, "Battle")
	edits.SetValue(domain.TagYear, "1999")
	edits.SetValue(domain.TagComment, "from cd")
	if err := accessor.Write(path, edits); err != nil {
		t.Fatalf("write tags: %v", err)
	}

	got, err := accessor.Read(path)
	if err != nil {
		t.Fatalf("read tags: %v", err)
	}
	if got.Format != "mp3" {
		t.Fatalf("format = %q, want mp3", got.Format)
	}
	if got.Fields[domain.TagArtist] != "Composer A" || got.Fields[domain.TagTitle] != "Battle" {
		t.Fatalf("fields = %v", got.Fields)
	}
	if got.Fields[domain.TagYear] != "1999" {
		t.Fatalf("Year = %q, want 1999", got.Fields[domain.TagYear])
	}
	if got.Fields[domain.TagComment] != "from cd" {
		t.Fatalf("Comment = %q, want %q", got.Fields[domain.TagComment], "from cd")
	}
}

// TestMP3ClearRemovesField checks clears delete frames on MP3 files.
func TestMP3ClearRemovesField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	writeTestMP3(t, path)
	accessor := NewAccessor()

	seed := domain.TagEdits{}
	seed.SetValue(domain.TagArtist, "Composer A")
	seed.SetValue(domain.TagGenre, "Soundtrack")
	if err := accessor.Write(path, seed); err != nil {
		t.Fatalf("seed tags: %v", err)
	}

	clearEdits := domain.TagEdits{}
	clearEdits.SetClear(domain.TagGenre)
	if err := accessor.Write(path, clearEdits); err != nil {
		t.Fatalf("clear tag: %v", err)
	}

	got, err := accessor.Read(path)
	if err != nil {
		t.Fatalf("read tags: %v", err)
	}
	if _, ok := got.Fields[domain.TagGenre]; ok {
		t.Fatal("Genre still present after clear")
	}
	if got.Fields[domain.TagArtist] != "Composer A" {
		t.Fatalf("Artist = %q, want unchanged", got.Fields[domain.TagArtist])
	}
}

// TestMP3PictureEmbedAndRead checks APIC frame round trip.
func TestMP3PictureEmbedAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	writeTestMP3(t, path)
	accessor := NewAccessor()

	if err := accessor.EmbedPicture(path, Picture{MIME: "image/jpeg", Data: []byte("jpegbytes")}); err != nil {
		t.Fatalf("embed picture: %v", err)
	}

	pic, ok, err := accessor.ReadPicture(path)
	if err != nil {
		t.Fatalf("read picture: %v", err)
	}
	if !ok || pic.MIME != "image/jpeg" || string(pic.Data) != "jpegbytes" {
		t.Fatalf("picture = %+v ok=%v", pic, ok)
	}
}

// TestWriteRejectsUnknownField checks field validation before any I/O.
func TestWriteRejectsUnknownField(t *testing.T) {
	accessor := NewAccessor()
	err := accessor.Write("whatever.flac", domain.TagEdits{"Mood": {Value: "calm"}})
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

// TestUnsupportedContainer checks the sentinel error for other formats.
func TestUnsupportedContainer(t *testing.T) {
	accessor := NewAccessor()
	_, err := accessor.Read("song.ogg")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}
