package tags

import (
	"fmt"
	"strings"

	id3v2 "github.com/bogem/id3v2/v2"

	"github.com/bai0012/audio-toolkit-gui/internal/domain"
)

// id3Frames maps normalized tag keys to ID3v2.4 text frame IDs. Comment
// is handled separately through COMM frames.
var id3Frames = map[domain.TagKey]string{
	domain.TagArtist:      "TPE1",
	domain.TagAlbumArtist: "TPE2",
	domain.TagAlbum:       "TALB",
	domain.TagTitle:       "TIT2",
	domain.TagGenre:       "TCON",
	domain.TagYear:        "TDRC",
	domain.TagTrackNumber: "TRCK",
	domain.TagDiscNumber:  "TPOS",
	domain.TagComposer:    "TCOM",
}

// readMP3Tags loads ID3v2 frames into the normalized field set.
func readMP3Tags(path string) (domain.FileTags, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return domain.FileTags{}, fmt.Errorf("open id3 tag: %w", err)
	}
	defer tag.Close()

	out := domain.FileTags{Path: path, Format: "mp3", Fields: map[domain.TagKey]string{}}
	for key, frameID := range id3Frames {
		text := strings.TrimSpace(tag.GetTextFrame(frameID).Text)
		if text == "" && key == domain.TagYear {
			// Files tagged as ID3v2.3 carry the year in TYER.
			text = strings.TrimSpace(tag.GetTextFrame("TYER").Text)
		}
		if text != "" {
			out.Fields[key] = text
		}
	}
	if comment, ok := firstCommentText(tag); ok {
		out.Fields[domain.TagComment] = comment
	}
	out.HasCover = len(tag.GetFrames("APIC")) > 0
	return out, nil
}

// writeMP3Tags applies tri-state edits to the ID3v2 tag. The underlying
// save rewrites the file through a sibling temp file and a rename.
func writeMP3Tags(path string, edits domain.TagEdits) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tag: %w", err)
	}
	defer tag.Close()

	for _, key := range domain.TagKeys {
		edit, ok := edits[key]
		if !ok {
			continue
		}

		if key == domain.TagComment {
			tag.DeleteFrames(tag.CommonID("Comments"))
			if !edit.Clear {
				tag.AddCommentFrame(id3v2.CommentFrame{
					Encoding: id3v2.EncodingUTF8,
					Language: "eng",
					Text:     edit.Value,
				})
			}
			continue
		}

		frameID := id3Frames[key]
		tag.DeleteFrames(frameID)
		if key == domain.TagYear {
			tag.DeleteFrames("TYER")
		}
		if !edit.Clear {
			tag.AddTextFrame(frameID, id3v2.EncodingUTF8, edit.Value)
		}
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 tag: %w", err)
	}
	return nil
}

// readMP3Picture returns the first attached picture frame.
func readMP3Picture(path string) (Picture, bool, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Picture{}, false, fmt.Errorf("open id3 tag: %w", err)
	}
	defer tag.Close()

	for _, framer := range tag.GetFrames("APIC") {
		pic, ok := framer.(id3v2.PictureFrame)
		if !ok {
			continue
		}
		return Picture{MIME: pic.MimeType, Data: pic.Picture}, true, nil
	}
	return Picture{}, false, nil
}

// embedMP3Picture replaces attached pictures with one front cover.
func embedMP3Picture(path string, pic Picture) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tag: %w", err)
	}
	defer tag.Close()

	tag.DeleteFrames("APIC")
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    pic.MIME,
		PictureType: id3v2.PTFrontCover,
		Picture:     pic.Data,
	})

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 tag: %w", err)
	}
	return nil
}

// firstCommentText returns the text of the first COMM frame.
func firstCommentText(tag *id3v2.Tag) (string, bool) {
	for _, framer := range tag.GetFrames(tag.CommonID("Comments")) {
		if comment, ok := framer.(id3v2.CommentFrame); ok {
			return strings.TrimSpace(comment.Text), true
		}
	}
	return "", false
}
