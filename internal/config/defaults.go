package config

import (
	"strings"

	"github.com/bai0012/audio-toolkit-gui/internal/domain"
)

// DefaultSettings returns baseline configuration for first launch: FLAC
// output written next to the source files, no collection folders, and
// existing outputs left untouched.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		OutputFormat: "flac",
		Collection:   domain.CollectionNone,
		Overwrite:    domain.OverwriteNever,
	}
}

// Normalize coerces unknown option values back to their defaults. An
// empty OutputDir is valid and means "next to the source file".
func Normalize(cfg domain.Settings) domain.Settings {
	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	if !domain.KnownOutputFormat(cfg.OutputFormat) {
		cfg.OutputFormat = "flac"
	}

	switch cfg.Overwrite {
	case domain.OverwriteNever, domain.OverwriteAlways:
	default:
		cfg.Overwrite = domain.OverwriteNever
	}

	switch cfg.Collection {
	case domain.CollectionNone, domain.CollectionArtist, domain.CollectionAlbum, domain.CollectionArtistAlbum:
	default:
		cfg.Collection = domain.CollectionNone
	}

	return cfg
}
