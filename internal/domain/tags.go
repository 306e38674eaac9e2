package domain

// TagKey names one normalized tag field. The set is fixed and names are
// case-exact across containers.
type TagKey string

const (
	TagArtist      TagKey = "Artist"
	TagAlbumArtist TagKey = "AlbumArtist"
	TagAlbum       TagKey = "Album"
	TagTitle       TagKey = "Title"
	TagGenre       TagKey = "Genre"
	TagYear        TagKey = "Year"
	TagTrackNumber TagKey = "TrackNumber"
	TagDiscNumber  TagKey = "DiscNumber"
	TagComposer    TagKey = "Composer"
	TagComment     TagKey = "Comment"
)

// TagKeys lists every recognized field in display order.
var TagKeys = []TagKey{
	TagArtist,
	TagAlbumArtist,
	TagAlbum,
	TagTitle,
	TagGenre,
	TagYear,
	TagTrackNumber,
	TagDiscNumber,
	TagComposer,
	TagComment,
}

// KnownTagKey reports whether key is one of the recognized fields.
func KnownTagKey(key TagKey) bool {
	for _, k := range TagKeys {
		if k == key {
			return true
		}
	}
	return false
}

// TagEdit is one tri-state field edit. A key absent from TagEdits means
// "leave unchanged"; Clear false sets Value (an empty string is a valid
// explicit value, distinct from a clear); Clear true removes the field.
type TagEdit struct {
	Value string `json:"value,omitempty"`
	Clear bool   `json:"clear,omitempty"`
}

// TagEdits maps fields to requested edits.
type TagEdits map[TagKey]TagEdit

// SetValue records an explicit value edit for key.
func (e TagEdits) SetValue(key TagKey, value string) {
	e[key] = TagEdit{Value: value}
}

// SetClear records an explicit clear for key.
func (e TagEdits) SetClear(key TagKey) {
	e[key] = TagEdit{Clear: true}
}

// FileTags is the read-side view of one file's tags. Only fields present
// in the container appear in Fields.
type FileTags struct {
	Path     string            `json:"path"`
	Format   string            `json:"format"`
	Fields   map[TagKey]string `json:"fields"`
	HasCover bool              `json:"hasCover"`
}
