package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/content-transcriber/internal/transcription"
	"github.com/codebuildervaibhav/content-transcriber/internal/types"
)

type extractorStub struct {
	calls  int
	result *types.TranscriptResult
	err    error
}

func (e *extractorStub) Extract(ctx context.Context, url string) (*types.TranscriptResult, error) {
	e.calls++
	return e.result, e.err
}

func TestProcessDispatchesVideo(t *testing.T) {
	video := &extractorStub{result: &types.TranscriptResult{
		Title:      "a video",
		Transcript: "words",
		SourceKind: types.SourceVideo,
	}}
	audio := &extractorStub{}
	svc := New(video, audio)

	result, err := svc.Process(context.Background(), "https://www.youtube.com/watch?v=abc")
	require.NoError(t, err)
	require.Equal(t, types.SourceVideo, result.SourceKind)
	require.Equal(t, 1, video.calls)
	require.Equal(t, 0, audio.calls)
}

func TestProcessDispatchesAudio(t *testing.T) {
	video := &extractorStub{}
	audio := &extractorStub{result: &types.TranscriptResult{
		Title:      "an episode",
		Transcript: "spoken words",
		SourceKind: types.SourceAudioPodcast,
	}}
	svc := New(video, audio)

	result, err := svc.Process(context.Background(), "https://podcasts.apple.com/us/podcast/ep/id1?i=2")
	require.NoError(t, err)
	require.Equal(t, types.SourceAudioPodcast, result.SourceKind)
	require.Equal(t, 0, video.calls)
	require.Equal(t, 1, audio.calls)
}

func TestProcessUnrecognizedSource(t *testing.T) {
	video := &extractorStub{}
	audio := &extractorStub{}
	svc := New(video, audio)

	_, err := svc.Process(context.Background(), "https://example.com/article")

	var perr *ProcessError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, KindUnrecognizedSource, perr.Kind)
	require.ErrorIs(t, err, types.ErrUnrecognizedSource)
	// Neither extractor runs for an unclassifiable URL.
	require.Equal(t, 0, video.calls)
	require.Equal(t, 0, audio.calls)
}

func TestProcessNormalizesExtractorFailures(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantKind string
	}{
		{"no captions", fmt.Errorf("video x: %w", types.ErrNoCaptions), KindNoCaptions},
		{"resolution failed", fmt.Errorf("ep y: %w", types.ErrResolutionFailed), KindResolutionFailed},
		{"size exceeded", fmt.Errorf("30MB: %w", types.ErrSizeExceeded), KindSizeExceeded},
		{"transcription api", &transcription.APIError{StatusCode: 500, Message: "boom"}, KindTranscriptionAPI},
		{"anything else", errors.New("unexpected"), KindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(&extractorStub{err: tc.err}, &extractorStub{err: tc.err})

			_, err := svc.Process(context.Background(), "https://youtu.be/abc")

			var perr *ProcessError
			require.ErrorAs(t, err, &perr)
			require.Equal(t, tc.wantKind, perr.Kind)
			// The normalized failure still unwraps to the original cause.
			require.ErrorIs(t, perr, tc.err)
		})
	}
}
