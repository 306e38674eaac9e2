package tags

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"github.com/bai0012/audio-toolkit-gui/internal/domain"
)

// vorbisFields maps normalized tag keys to vorbis comment field names.
var vorbisFields = map[domain.TagKey]string{
	domain.TagArtist:      "ARTIST",
	domain.TagAlbumArtist: "ALBUMARTIST",
	domain.TagAlbum:       "ALBUM",
	domain.TagTitle:       "TITLE",
	domain.TagGenre:       "GENRE",
	domain.TagYear:        "DATE",
	domain.TagTrackNumber: "TRACKNUMBER",
	domain.TagDiscNumber:  "DISCNUMBER",
	domain.TagComposer:    "COMPOSER",
	domain.TagComment:     "COMMENT",
}

// readFLACTags loads vorbis comment fields and picture presence.
func readFLACTags(path string) (domain.FileTags, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return domain.FileTags{}, fmt.Errorf("parse flac: %w", err)
	}

	out := domain.FileTags{Path: path, Format: "flac", Fields: map[domain.TagKey]string{}}
	for _, block := range f.Meta {
		switch block.Type {
		case flac.VorbisComment:
			comment, err := flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				return domain.FileTags{}, fmt.Errorf("parse vorbis comment: %w", err)
			}
			for key, field := range vorbisFields {
				values, err := comment.Get(field)
				if err != nil || len(values) == 0 {
					continue
				}
				out.Fields[key] = strings.Join(values, "; ")
			}
		case flac.Picture:
			out.HasCover = true
		}
	}
	return out, nil
}

// writeFLACTags rebuilds the vorbis comment block with the requested
// edits applied and saves through a temp sibling.
func writeFLACTags(path string, edits domain.TagEdits) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse flac: %w", err)
	}

	existing := flacvorbis.New()
	blockIdx := -1
	for i, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			parsed, err := flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				return fmt.Errorf("parse vorbis comment: %w", err)
			}
			existing = parsed
			blockIdx = i
			break
		}
	}

	edited := make(map[string]struct{}, len(edits))
	for key := range edits {
		edited[vorbisFields[key]] = struct{}{}
	}

	rebuilt := flacvorbis.New()
	rebuilt.Vendor = existing.Vendor
	for _, entry := range existing.Comments {
		field := strings.ToUpper(strings.SplitN(entry, "=", 2)[0])
		if _, ok := edited[field]; ok {
			continue
		}
		rebuilt.Comments = append(rebuilt.Comments, entry)
	}
	for _, key := range domain.TagKeys {
		edit, ok := edits[key]
		if !ok || edit.Clear {
			continue
		}
		if err := rebuilt.Add(vorbisFields[key], edit.Value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}

	block := rebuilt.Marshal()
	if blockIdx >= 0 {
		f.Meta[blockIdx] = &block
	} else {
		f.Meta = append(f.Meta, &block)
	}
	return saveFLAC(f, path)
}

// readFLACPicture returns the first embedded picture block.
func readFLACPicture(path string) (Picture, bool, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return Picture{}, false, fmt.Errorf("parse flac: %w", err)
	}

	for _, block := range f.Meta {
		if block.Type != flac.Picture {
			continue
		}
		pic, err := flacpicture.ParseFromMetaDataBlock(*block)
		if err != nil {
			return Picture{}, false, fmt.Errorf("parse flac picture: %w", err)
		}
		return Picture{MIME: pic.MIME, Data: pic.ImageData}, true, nil
	}
	return Picture{}, false, nil
}

// embedFLACPicture replaces all picture blocks with one front cover.
func embedFLACPicture(path string, pic Picture) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse flac: %w", err)
	}

	cover, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "", pic.Data, pic.MIME)
	if err != nil {
		return fmt.Errorf("build flac picture: %w", err)
	}
	block := cover.Marshal()

	meta := make([]*flac.MetaDataBlock, 0, len(f.Meta)+1)
	for _, b := range f.Meta {
		if b.Type == flac.Picture {
			continue
		}
		meta = append(meta, b)
	}
	meta = append(meta, &block)
	f.Meta = meta
	return saveFLAC(f, path)
}

// saveFLAC writes the file to a temp sibling and renames it into place,
// so an interrupted save never leaves a partially tagged file behind.
func saveFLAC(f *flac.File, path string) error {
	tmp := path + ".tagtmp"
	if err := f.Save(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save flac: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace flac: %w", err)
	}
	return nil
}
