// submodule audiotool contains command definitions
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/bai0012/audio-toolkit-gui/internal/domain"
)

// splitCommand splits cue-described albums into per-track files.
func splitCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "split",
		Usage:     "Split cue-described album images into per-track files",
		ArgsUsage: "CUE_OR_DIR...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Track output format (flac, wav, mp3, ogg, opus, copy)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory for split tracks (default: next to each cue sheet)",
			},
			&cli.StringFlag{
				Name:    "collection",
				Aliases: []string{"c"},
				Usage:   "Subfolder layout: artist, album, artist+album, none",
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "Replace track files that already exist",
			},
		},
		Action: r.Split,
	}
}

// convertCommand transcodes WAV files to FLAC.
func convertCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert WAV files to FLAC next to each source",
		ArgsUsage: "WAV_OR_DIR...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "copy-metadata",
				Usage: "Copy tags and cover art from a sibling mp3 of the same name",
			},
		},
		Action: r.Convert,
	}
}

// tagsCommand applies tri-state tag edits.
func tagsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tags",
		Usage:     "Edit tags on mp3 and flac files",
		ArgsUsage: "FILE_OR_DIR...",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "Set a field, as FIELD=VALUE (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "clear",
				Usage: "Remove a field entirely (repeatable)",
			},
		},
		Action: r.Tags,
	}
}

// coverCommand embeds album art into FLAC files.
func coverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "cover",
		Usage:     "Embed cover art into flac files",
		ArgsUsage: "FLAC_OR_DIR...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "Cover image URL (falls back to cover/folder/front images next to each file)",
			},
		},
		Action: r.Cover,
	}
}

// inspectCommand prints the tags of one file.
func inspectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the tags of one audio file",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Inspect,
	}
}

// doctorCommand runs the environment checks.
func doctorCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "doctor",
		Usage:  "Check that required tools and directories are available",
		Action: r.Doctor,
	}
}

// Split submits a cue-splitting batch and follows it to completion.
func (r *Runner) Split(ctx context.Context, cmd *cli.Command) error {
	sources := cmd.Args().Slice()
	if len(sources) == 0 {
		return errors.New("at least one cue sheet or directory is required")
	}

	cfg := r.loadSettings().BatchConfig()
	if cmd.IsSet("format") {
		format := strings.ToLower(strings.TrimSpace(cmd.String("format")))
		if !domain.KnownOutputFormat(format) {
			return fmt.Errorf("unknown output format %q", cmd.String("format"))
		}
		cfg.OutputFormat = format
	}
	if cmd.IsSet("output") {
		cfg.OutputDir = strings.TrimSpace(cmd.String("output"))
	}
	if cmd.IsSet("collection") {
		mode, err := parseCollectionMode(cmd.String("collection"))
		if err != nil {
			return err
		}
		cfg.Collection = mode
	}
	if cmd.Bool("overwrite") {
		cfg.Overwrite = domain.OverwriteAlways
	}

	return r.runBatch(ctx, domain.PipelineSplit, sources, cfg)
}

// Convert submits a wav-to-flac batch and follows it to completion.
func (r *Runner) Convert(ctx context.Context, cmd *cli.Command) error {
	sources := cmd.Args().Slice()
	if len(sources) == 0 {
		return errors.New("at least one wav file or directory is required")
	}

	cfg := r.loadSettings().BatchConfig()
	if cmd.IsSet("copy-metadata") {
		cfg.CopyMetadata = cmd.Bool("copy-metadata")
	}

	return r.runBatch(ctx, domain.PipelineConvert, sources, cfg)
}

// Tags submits a tag-editing batch built from --set and --clear flags.
func (r *Runner) Tags(ctx context.Context, cmd *cli.Command) error {
	sources := cmd.Args().Slice()
	if len(sources) == 0 {
		return errors.New("at least one audio file or directory is required")
	}

	edits := domain.TagEdits{}
	for _, pair := range cmd.StringSlice("set") {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("--set wants FIELD=VALUE, got %q", pair)
		}
		tagKey := domain.TagKey(key)
		if !domain.KnownTagKey(tagKey) {
			return fmt.Errorf("unknown tag field %q (known: %s)", key, knownTagFields())
		}
		edits.SetValue(tagKey, value)
	}
	for _, key := range cmd.StringSlice("clear") {
		tagKey := domain.TagKey(key)
		if !domain.KnownTagKey(tagKey) {
			return fmt.Errorf("unknown tag field %q (known: %s)", key, knownTagFields())
		}
		edits.SetClear(tagKey)
	}
	if len(edits) == 0 {
		return errors.New("nothing to do: pass --set FIELD=VALUE or --clear FIELD")
	}

	cfg := r.loadSettings().BatchConfig()
	cfg.TagEdits = edits
	return r.runBatch(ctx, domain.PipelineTagEdit, sources, cfg)
}

// Cover submits a cover-embedding batch and follows it to completion.
func (r *Runner) Cover(ctx context.Context, cmd *cli.Command) error {
	sources := cmd.Args().Slice()
	if len(sources) == 0 {
		return errors.New("at least one flac file or directory is required")
	}

	cfg := r.loadSettings().BatchConfig()
	if cmd.IsSet("url") {
		cfg.CoverURL = strings.TrimSpace(cmd.String("url"))
	}

	return r.runBatch(ctx, domain.PipelineEmbedCover, sources, cfg)
}

// Inspect prints the tags of one audio file.
func (r *Runner) Inspect(ctx context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.Args().First())
	if path == "" {
		return errors.New("an audio file path is required")
	}

	fileTags, err := r.tags.Read(path)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(fileTags)
	}

	r.writePlain("%s (%s)\n", fileTags.Path, fileTags.Format)
	for _, key := range domain.TagKeys {
		if value, ok := fileTags.Fields[key]; ok {
			r.writePlain("  %-12s %s\n", key, value)
		}
	}
	if fileTags.HasCover {
		r.writePlain("  cover art embedded\n")
	}
	return nil
}

// Doctor runs the environment checks and reports each result.
func (r *Runner) Doctor(ctx context.Context, cmd *cli.Command) error {
	report := r.checker.Run(r.loadSettings())

	for _, item := range report.Items {
		marker := "ok"
		if item.Status == domain.DiagnosticStatusFail {
			marker = "FAIL"
		}
		r.writePlain("[%4s] %s: %s\n", marker, item.Name, item.Message)
		if item.Status == domain.DiagnosticStatusFail && item.Hint != "" {
			r.writePlain("       %s\n", item.Hint)
		}
	}

	if report.HasFailures {
		return errors.New("environment checks failed")
	}
	r.writePlain("all checks passed\n")
	return nil
}

// parseCollectionMode validates a collection layout name. "none" and the
// empty string both select the flat layout.
func parseCollectionMode(value string) (domain.CollectionMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "none" {
		return domain.CollectionNone, nil
	}
	switch mode := domain.CollectionMode(normalized); mode {
	case domain.CollectionNone, domain.CollectionArtist, domain.CollectionAlbum, domain.CollectionArtistAlbum:
		return mode, nil
	}
	return domain.CollectionNone, fmt.Errorf("unknown collection mode %q (artist, album, artist+album, none)", value)
}

// knownTagFields lists the editable fields for error messages.
func knownTagFields() string {
	names := make([]string, 0, len(domain.TagKeys))
	for _, key := range domain.TagKeys {
		names = append(names, string(key))
	}
	return strings.Join(names, ", ")
}
