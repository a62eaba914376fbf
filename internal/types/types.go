package types

import "errors"

// Record status values written to the document store. A record moves
// Processing -> Completed or Processing -> Error exactly once per webhook
// delivery; a crash mid-extraction leaves it in Processing.
const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusCompleted  = "Completed"
	StatusError      = "Error"
)

// SourceKind identifies which platform a transcript came from.
type SourceKind string

const (
	SourceVideo        SourceKind = "Video"
	SourceAudioPodcast SourceKind = "AudioPodcast"
)

// TranscriptResult is the normalized output of an extractor.
// Immutable once built.
type TranscriptResult struct {
	Title      string     `json:"title"`
	Transcript string     `json:"transcript"`
	SourceKind SourceKind `json:"sourceKind"`
}

// Extraction failure sentinels. Wrapped with context via %w at the call
// sites, matched with errors.Is at the service boundary.
var (
	ErrUnrecognizedSource = errors.New("unrecognized source URL")
	ErrNoCaptions         = errors.New("no caption tracks available")
	ErrResolutionFailed   = errors.New("could not resolve audio URL")
	ErrSizeExceeded       = errors.New("audio file exceeds size ceiling")
)
