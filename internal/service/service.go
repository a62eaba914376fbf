package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/codebuildervaibhav/content-transcriber/internal/source"
	"github.com/codebuildervaibhav/content-transcriber/internal/transcription"
	"github.com/codebuildervaibhav/content-transcriber/internal/types"
)

// Failure kinds carried by ProcessError. These end up in the record's error
// log, so they stay stable and machine-readable.
const (
	KindUnrecognizedSource = "unrecognized_source"
	KindNoCaptions         = "no_captions"
	KindResolutionFailed   = "resolution_failed"
	KindSizeExceeded       = "size_exceeded"
	KindTranscriptionAPI   = "transcription_api"
	KindInternal           = "internal"
)

// ProcessError is the single normalized failure produced by the service.
// It carries the failure kind plus the original cause.
type ProcessError struct {
	Kind string
	Err  error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Extractor produces a transcript result for a URL of one source kind.
type Extractor interface {
	Extract(ctx context.Context, url string) (*types.TranscriptResult, error)
}

// Service classifies a URL and dispatches to the matching extractor. It is
// the sole synchronous decision point and performs no I/O of its own.
type Service struct {
	video Extractor
	audio Extractor
}

// New creates a transcript service.
func New(video, audio Extractor) *Service {
	return &Service{video: video, audio: audio}
}

// Process returns the transcript for a URL or a *ProcessError describing why
// extraction failed. No retries.
func (s *Service) Process(ctx context.Context, url string) (*types.TranscriptResult, error) {
	kind, err := source.Detect(url)
	if err != nil {
		return nil, &ProcessError{Kind: KindUnrecognizedSource, Err: err}
	}

	var result *types.TranscriptResult
	switch kind {
	case types.SourceVideo:
		result, err = s.video.Extract(ctx, url)
	case types.SourceAudioPodcast:
		result, err = s.audio.Extract(ctx, url)
	default:
		err = fmt.Errorf("%w: %s", types.ErrUnrecognizedSource, url)
	}

	if err != nil {
		return nil, &ProcessError{Kind: classify(err), Err: err}
	}
	return result, nil
}

func classify(err error) string {
	var apiErr *transcription.APIError
	switch {
	case errors.Is(err, types.ErrUnrecognizedSource):
		return KindUnrecognizedSource
	case errors.Is(err, types.ErrNoCaptions):
		return KindNoCaptions
	case errors.Is(err, types.ErrResolutionFailed):
		return KindResolutionFailed
	case errors.Is(err, types.ErrSizeExceeded):
		return KindSizeExceeded
	case errors.As(err, &apiErr):
		return KindTranscriptionAPI
	default:
		return KindInternal
	}
}
