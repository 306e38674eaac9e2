package domain

// Option describes one selectable value for UI and CLI listings, such as
// an output format or a collection mode.
type Option struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// OutputFormats lists the split output formats the splitter accepts, in
// display order. "copy" keeps the source container untouched.
var OutputFormats = []string{"flac", "wav", "mp3", "ogg", "opus", "copy"}

// KnownOutputFormat reports whether format names a supported output.
func KnownOutputFormat(format string) bool {
	for _, f := range OutputFormats {
		if f == format {
			return true
		}
	}
	return false
}
