package bootstrap

import (
	"github.com/bai0012/audio-toolkit-gui/internal/domain"
)

var pipelineCatalog = []domain.Option{
	{
		ID:          string(domain.PipelineSplit),
		Label:       "Split cue sheet",
		Description: "Split an album image into per-track files using its cue sheet.",
	},
	{
		ID:          string(domain.PipelineConvert),
		Label:       "Convert WAV to FLAC",
		Description: "Losslessly compress WAV files, optionally copying tags from sibling MP3s.",
	},
	{
		ID:          string(domain.PipelineTagEdit),
		Label:       "Edit tags",
		Description: "Apply the same tag changes to every selected MP3 and FLAC file.",
	},
	{
		ID:          string(domain.PipelineEmbedCover),
		Label:       "Embed cover art",
		Description: "Embed a downloaded or local cover image into FLAC files.",
	},
}

var outputFormatDescriptions = map[string]string{
	"flac": "Lossless compression, the default.",
	"wav":  "Uncompressed PCM.",
	"mp3":  "Lossy, widely compatible.",
	"ogg":  "Lossy Vorbis.",
	"opus": "Lossy Opus, best at low bitrates.",
	"copy": "Keep the source codec, cut without re-encoding.",
}

var collectionCatalog = []domain.Option{
	{
		ID:          string(domain.CollectionNone),
		Label:       "No subfolders",
		Description: "Write tracks directly into the output directory.",
	},
	{
		ID:          string(domain.CollectionArtist),
		Label:       "Artist",
		Description: "Group tracks under an artist folder.",
	},
	{
		ID:          string(domain.CollectionAlbum),
		Label:       "Album",
		Description: "Group tracks under an album folder.",
	},
	{
		ID:          string(domain.CollectionArtistAlbum),
		Label:       "Artist / Album",
		Description: "Group tracks under artist then album folders.",
	},
}

var overwriteCatalog = []domain.Option{
	{
		ID:          string(domain.OverwriteNever),
		Label:       "Skip existing",
		Description: "Leave files that already exist untouched and mark the job skipped.",
	},
	{
		ID:          string(domain.OverwriteAlways),
		Label:       "Overwrite",
		Description: "Replace existing files.",
	},
}

// GetPipelineKinds returns the selectable processing pipelines.
func (a *App) GetPipelineKinds() []domain.Option {
	return cloneOptions(pipelineCatalog)
}

// GetOutputFormats returns the selectable split output formats.
func (a *App) GetOutputFormats() []domain.Option {
	options := make([]domain.Option, 0, len(domain.OutputFormats))
	for _, format := range domain.OutputFormats {
		options = append(options, domain.Option{
			ID:          format,
			Label:       format,
			Description: outputFormatDescriptions[format],
		})
	}
	return options
}

// GetCollectionModes returns the selectable output folder layouts.
func (a *App) GetCollectionModes() []domain.Option {
	return cloneOptions(collectionCatalog)
}

// GetOverwritePolicies returns the selectable overwrite behaviors.
func (a *App) GetOverwritePolicies() []domain.Option {
	return cloneOptions(overwriteCatalog)
}

// GetTagFields returns the editable tag field names in display order.
func (a *App) GetTagFields() []string {
	fields := make([]string, 0, len(domain.TagKeys))
	for _, key := range domain.TagKeys {
		fields = append(fields, string(key))
	}
	return fields
}

// cloneOptions copies a catalog so callers cannot mutate package state.
func cloneOptions(catalog []domain.Option) []domain.Option {
	options := make([]domain.Option, len(catalog))
	copy(options, catalog)
	return options
}
