package pipeline

import "fmt"

// Kind classifies executor failures for reporting and tests.
type Kind string

const (
	// KindToolUnavailable marks a missing external tool; detected before
	// any job runs and fatal for the whole batch.
	KindToolUnavailable Kind = "tool_unavailable"
	// KindToolExecutionFailed marks a nonzero exit or launch failure of
	// an external tool; fails only the owning job.
	KindToolExecutionFailed Kind = "tool_execution_failed"
	// KindOutputVerificationFailed marks a tool that reported success
	// while expected outputs are absent or empty; cleanup is withheld.
	KindOutputVerificationFailed Kind = "output_verification_failed"
	// KindMetadataIOFailed marks a tag read or write error on one file.
	KindMetadataIOFailed Kind = "metadata_io_failed"
	// KindNetworkFetchFailed marks a cover download error; triggers the
	// local search fallback instead of failing the job.
	KindNetworkFetchFailed Kind = "network_fetch_failed"
	// KindNoSourceFound marks a job with no usable cover image by any
	// means; the job is skipped, not failed.
	KindNoSourceFound Kind = "no_source_found"
)

// Error is a kind-aware executor error with optional command context.
type Error struct {
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	Command  string `json:"command,omitempty"`
	ExitCode int    `json:"exitCode,omitempty"`
	Err      error  `json:"-"`
}

// Error formats executor failures for logs and UI.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Command == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (cmd=%s exit=%d)", e.Kind, e.Message, e.Command, e.ExitCode)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
