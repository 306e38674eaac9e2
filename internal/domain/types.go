package domain

import "time"

// PipelineKind selects which executor processes a job.
type PipelineKind string

const (
	PipelineSplit      PipelineKind = "split"
	PipelineConvert    PipelineKind = "convert"
	PipelineTagEdit    PipelineKind = "tag_edit"
	PipelineEmbedCover PipelineKind = "embed_cover"
)

// Valid reports whether the kind names one of the four pipelines.
func (k PipelineKind) Valid() bool {
	switch k {
	case PipelineSplit, PipelineConvert, PipelineTagEdit, PipelineEmbedCover:
		return true
	default:
		return false
	}
}

// Extensions returns the candidate source extensions for the kind,
// lowercase and dot-prefixed.
func (k PipelineKind) Extensions() []string {
	switch k {
	case PipelineSplit:
		return []string{".cue"}
	case PipelineConvert:
		return []string{".wav"}
	case PipelineTagEdit:
		return []string{".mp3", ".flac"}
	case PipelineEmbedCover:
		return []string{".flac"}
	default:
		return nil
	}
}

// OverwritePolicy controls behavior when a job's outputs already exist.
type OverwritePolicy string

const (
	OverwriteNever  OverwritePolicy = "never"
	OverwriteAlways OverwritePolicy = "always"
)

// CollectionMode selects the subfolder layout the splitter creates under
// the output directory.
type CollectionMode string

const (
	CollectionNone        CollectionMode = ""
	CollectionArtist      CollectionMode = "artist"
	CollectionAlbum       CollectionMode = "album"
	CollectionArtistAlbum CollectionMode = "artist+album"
)

// Per-job parameter keys recognized by executors. Unknown keys are ignored.
const (
	ParamOutputDir = "outputDir"
	ParamCoverURL  = "coverUrl"
)

// JobDescriptor identifies one unit of work. Immutable once submitted;
// Source may be a file or a directory (directories are expanded by
// discovery into per-file jobs inheriting Kind and Params).
type JobDescriptor struct {
	Source string            `json:"source"`
	Kind   PipelineKind      `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// Param returns the named per-job override, or empty string when unset.
func (d JobDescriptor) Param(key string) string {
	return d.Params[key]
}

// BatchConfig carries pipeline-wide options shared read-only by every job
// in one batch.
type BatchConfig struct {
	OutputFormat string          `json:"outputFormat,omitempty"`
	OutputDir    string          `json:"outputDir,omitempty"`
	Collection   CollectionMode  `json:"collection,omitempty"`
	Overwrite    OverwritePolicy `json:"overwrite,omitempty"`
	CopyMetadata bool            `json:"copyMetadata,omitempty"`
	CoverURL     string          `json:"coverUrl,omitempty"`
	TagEdits     TagEdits        `json:"tagEdits,omitempty"`
}

// Outcome classifies the terminal result of one job.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
	// OutcomeNotAttempted marks jobs left unstarted when a batch is
	// cancelled; executed jobs never carry it.
	OutcomeNotAttempted Outcome = "not_attempted"
)

// JobResult records the outcome of one job. Created exactly once per job
// and immutable afterwards. Cleanup lists source paths that became
// eligible for deletion; the orchestrator deletes them only for Success.
type JobResult struct {
	Job       JobDescriptor `json:"job"`
	Outcome   Outcome       `json:"outcome"`
	Message   string        `json:"message,omitempty"`
	Artifacts []string      `json:"artifacts,omitempty"`
	Cleanup   []string      `json:"cleanup,omitempty"`
}

// BatchState tracks the lifecycle of one submitted batch.
type BatchState string

const (
	BatchStatePending   BatchState = "pending"
	BatchStateRunning   BatchState = "running"
	BatchStateCompleted BatchState = "completed"
	BatchStateCancelled BatchState = "cancelled"
)

// Terminal reports whether the state admits no further transitions.
func (s BatchState) Terminal() bool {
	return s == BatchStateCompleted || s == BatchStateCancelled
}

// Batch stores identity and lifecycle status for one submitted batch.
type Batch struct {
	ID          string       `json:"id"`
	Kind        PipelineKind `json:"kind"`
	State       BatchState   `json:"state"`
	SubmittedAt time.Time    `json:"submittedAt"`
}

// BatchSummary aggregates per-job results once a batch reaches a terminal
// state. For completed batches Succeeded+Skipped+Failed equals the number
// of resolved jobs; cancelled batches additionally count NotAttempted.
type BatchSummary struct {
	BatchID      string      `json:"batchId"`
	State        BatchState  `json:"state"`
	Succeeded    int         `json:"succeeded"`
	Skipped      int         `json:"skipped"`
	Failed       int         `json:"failed"`
	NotAttempted int         `json:"notAttempted"`
	Results      []JobResult `json:"results"`
	StartedAt    time.Time   `json:"startedAt"`
	FinishedAt   time.Time   `json:"finishedAt"`
}

// Severity ranks progress events for display and logging.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Settings contains user-selectable defaults persisted between runs. The
// UI and CLI derive each BatchConfig from these.
type Settings struct {
	OutputFormat string          `json:"outputFormat"`
	OutputDir    string          `json:"outputDir"`
	Collection   CollectionMode  `json:"collection"`
	Overwrite    OverwritePolicy `json:"overwrite"`
	CopyMetadata bool            `json:"copyMetadata"`
	CoverURL     string          `json:"coverUrl"`
}

// BatchConfig builds a batch configuration from the persisted defaults.
func (s Settings) BatchConfig() BatchConfig {
	return BatchConfig{
		OutputFormat: s.OutputFormat,
		OutputDir:    s.OutputDir,
		Collection:   s.Collection,
		Overwrite:    s.Overwrite,
		CopyMetadata: s.CopyMetadata,
		CoverURL:     s.CoverURL,
	}
}
