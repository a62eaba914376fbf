package source

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/content-transcriber/internal/types"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want types.SourceKind
	}{
		{"youtube watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", types.SourceVideo},
		{"youtube short link", "https://youtu.be/dQw4w9WgXcQ", types.SourceVideo},
		{"youtube shorts", "https://www.youtube.com/shorts/abc123", types.SourceVideo},
		{"uppercase host", "HTTPS://WWW.YOUTUBE.COM/watch?v=x", types.SourceVideo},
		{"apple podcasts", "https://podcasts.apple.com/us/podcast/some-episode/id1234567890?i=1000123456789", types.SourceAudioPodcast},
		{"direct mp3", "https://cdn.example.com/episodes/42.mp3", types.SourceAudioPodcast},
		{"direct m4a with query", "https://cdn.example.com/ep.m4a?token=abc", types.SourceAudioPodcast},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Detect(tc.url)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDetectUnrecognized(t *testing.T) {
	for _, url := range []string{
		"https://example.com/blog/post",
		"not a url at all",
		"",
	} {
		_, err := Detect(url)
		require.ErrorIs(t, err, types.ErrUnrecognizedSource, "url %q", url)
	}
}

func TestDetectVideoWinsOverPodcast(t *testing.T) {
	// A YouTube URL that happens to mention an audio extension still
	// classifies as video; video hosts are checked first.
	got, err := Detect("https://www.youtube.com/watch?v=abc&title=episode.mp3")
	require.NoError(t, err)
	require.Equal(t, types.SourceVideo, got)
}

func TestExtractURL(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"bare url", "https://example.com/a", "https://example.com/a"},
		{"url with trailing text", "https://example.com/a check this out", "https://example.com/a"},
		{"url mid-text", "look at https://example.com/a later", "https://example.com/a"},
		{"no url", "just a plain title", ""},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ExtractURL(tc.text))
		})
	}
}

func TestFindContentURL(t *testing.T) {
	// URL field wins when both carry a URL.
	got := FindContentURL("https://example.com/from-url", "https://example.com/from-title")
	require.Equal(t, "https://example.com/from-url", got)

	// Title field is the fallback.
	got = FindContentURL("", "shared: https://example.com/from-title")
	require.Equal(t, "https://example.com/from-title", got)

	require.Equal(t, "", FindContentURL("no url here", "none here either"))
}
