package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codebuildervaibhav/content-transcriber/internal/types"
)

// Known host fragments, checked in order. Video wins over podcast when a URL
// somehow matches both.
var videoHosts = []string{"youtube.com", "youtu.be"}

var podcastHosts = []string{"podcasts.apple.com"}

// Direct audio files are treated as podcast sources and skip page resolution.
var audioExtensions = []string{".mp3", ".m4a", ".wav", ".ogg", ".aac", ".flac", ".m4b"}

// Detect classifies a URL as a video or audio-podcast source. Pure function,
// no network access.
func Detect(rawURL string) (types.SourceKind, error) {
	lower := strings.ToLower(strings.TrimSpace(rawURL))

	for _, host := range videoHosts {
		if strings.Contains(lower, host) {
			return types.SourceVideo, nil
		}
	}

	for _, host := range podcastHosts {
		if strings.Contains(lower, host) {
			return types.SourceAudioPodcast, nil
		}
	}

	for _, ext := range audioExtensions {
		if strings.Contains(lower, ext) {
			return types.SourceAudioPodcast, nil
		}
	}

	return "", fmt.Errorf("%w: %s", types.ErrUnrecognizedSource, rawURL)
}

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// ExtractURL pulls the first http(s) URL out of free text. Returns "" when
// the text contains no URL.
func ExtractURL(text string) string {
	return urlPattern.FindString(strings.TrimSpace(text))
}

// FindContentURL returns the content URL from the webhook's url field,
// falling back to the title field. Share sheets sometimes drop the URL into
// the record title instead of the URL property.
func FindContentURL(urlField, titleField string) string {
	if u := ExtractURL(urlField); u != "" {
		return u
	}
	return ExtractURL(titleField)
}
