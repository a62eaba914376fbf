package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/codebuildervaibhav/content-transcriber/internal/types"
)

// YouTube caption extraction goes through the Innertube /player endpoint with
// the ANDROID client, which returns the caption track list without a browser
// session. The chosen track's timedtext XML is flattened to plain text.

const (
	innertubePlayerURL = "https://www.youtube.com/youtubei/v1/player"
	oembedEndpoint     = "https://www.youtube.com/oembed"

	androidClientVersion = "20.10.38"
	androidUserAgent     = "com.google.android.youtube/" + androidClientVersion + " (Linux; U; Android 11) gzip"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/)([^&?/]+)`),
	regexp.MustCompile(`youtube\.com/shorts/([^&?/]+)`),
}

// YouTubeExtractor fetches caption tracks for a video and concatenates them
// into a transcript.
type YouTubeExtractor struct {
	playerURL  string
	oembedURL  string
	languages  []string
	httpClient *http.Client
}

// NewYouTubeExtractor creates an extractor with English language preference.
func NewYouTubeExtractor() *YouTubeExtractor {
	return &YouTubeExtractor{
		playerURL:  innertubePlayerURL,
		oembedURL:  oembedEndpoint,
		languages:  []string{"en"},
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Extract returns title and caption text for a video URL.
func (e *YouTubeExtractor) Extract(ctx context.Context, videoURL string) (*types.TranscriptResult, error) {
	videoID, err := extractVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	tracks, err := e.listCaptionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: video %s", types.ErrNoCaptions, videoID)
	}

	track := pickCaptionTrack(tracks, e.languages)
	transcript, err := e.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}
	if transcript == "" {
		return nil, fmt.Errorf("%w: empty caption track for video %s", types.ErrNoCaptions, videoID)
	}

	// Title is best effort; an oembed hiccup should not fail the extraction.
	title := e.fetchTitle(ctx, videoID)

	return &types.TranscriptResult{
		Title:      title,
		Transcript: transcript,
		SourceKind: types.SourceVideo,
	}, nil
}

func extractVideoID(videoURL string) (string, error) {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(videoURL); len(m) > 1 {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("could not extract video ID from URL: %s", videoURL)
}

// --- Innertube /player ---

type innertubeRequest struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

func (e *YouTubeExtractor) listCaptionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	reqBody, err := json.Marshal(innertubeRequest{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     androidClientVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.playerURL+"?prettyPrint=false", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", androidUserAgent)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", androidClientVersion)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("innertube player: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("innertube player: HTTP %d", resp.StatusCode)
	}

	var player playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}

	if player.Captions == nil {
		reason := ""
		if player.PlayabilityStatus != nil {
			reason = player.PlayabilityStatus.Reason
		}
		if reason != "" {
			return nil, fmt.Errorf("%w: %s", types.ErrNoCaptions, reason)
		}
		return nil, nil
	}
	return player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, nil
}

// pickCaptionTrack selects the best track: manual in a preferred language,
// then auto-generated in a preferred language, then any manual track, then
// whatever is first.
func pickCaptionTrack(tracks []captionTrack, langs []string) captionTrack {
	for _, lang := range langs {
		for _, t := range tracks {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t
			}
		}
	}
	for _, lang := range langs {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t
			}
		}
	}
	for _, t := range tracks {
		if t.Kind != "asr" {
			return t
		}
	}
	return tracks[0]
}

// --- timedtext ---

type timedText struct {
	Lines []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Text string `xml:",chardata"`
}

var whitespaceRE = regexp.MustCompile(`\s+`)

func (e *YouTubeExtractor) fetchTimedText(ctx context.Context, baseURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch timedtext: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return "", err
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	var sb strings.Builder
	for _, line := range tt.Lines {
		text := strings.TrimSpace(html.UnescapeString(line.Text))
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	return whitespaceRE.ReplaceAllString(sb.String(), " "), nil
}

// --- title ---

type oembedResponse struct {
	Title string `json:"title"`
}

// fetchTitle asks the oembed endpoint for the video title. No auth needed.
// Falls back to a placeholder so extraction never fails on the title.
func (e *YouTubeExtractor) fetchTitle(ctx context.Context, videoID string) string {
	fallback := "YouTube Video " + videoID

	url := fmt.Sprintf("%s?url=https://www.youtube.com/watch?v=%s&format=json", e.oembedURL, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fallback
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fallback
	}

	var oe oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&oe); err != nil || oe.Title == "" {
		return fallback
	}
	return oe.Title
}
