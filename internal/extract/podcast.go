package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/codebuildervaibhav/content-transcriber/internal/transcription"
	"github.com/codebuildervaibhav/content-transcriber/internal/types"
)

// Apple Podcasts URLs do not point at the audio file. Resolution goes
// episode URL -> iTunes lookup API -> RSS feed -> matching item's enclosure.
// When that chain breaks, the episode page itself is scraped for audio meta
// tags before giving up.

const itunesLookupURL = "https://itunes.apple.com/lookup"

// SpeechToText turns raw audio bytes into transcript text.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// PodcastExtractor resolves a podcast episode to a direct audio URL,
// downloads it under the size ceiling, and transcribes it.
type PodcastExtractor struct {
	lookupURL  string
	maxBytes   int64
	stt        SpeechToText
	httpClient *http.Client
	feedParser *gofeed.Parser
}

// NewPodcastExtractor creates an extractor backed by the given
// speech-to-text client.
func NewPodcastExtractor(stt SpeechToText) *PodcastExtractor {
	client := &http.Client{
		// Episode downloads can be slow; resolution calls share the client.
		Timeout: 5 * time.Minute,
	}
	parser := gofeed.NewParser()
	parser.Client = client

	return &PodcastExtractor{
		lookupURL:  itunesLookupURL,
		maxBytes:   transcription.MaxAudioBytes,
		stt:        stt,
		httpClient: client,
		feedParser: parser,
	}
}

// Extract resolves, downloads, and transcribes a podcast episode.
func (e *PodcastExtractor) Extract(ctx context.Context, episodeURL string) (*types.TranscriptResult, error) {
	var title, audioURL string

	if isDirectAudioURL(episodeURL) {
		audioURL = episodeURL
		title = titleFromAudioURL(episodeURL)
	} else {
		var err error
		title, audioURL, err = e.resolve(ctx, episodeURL)
		if err != nil {
			return nil, err
		}
	}

	audio, err := e.download(ctx, audioURL)
	if err != nil {
		return nil, err
	}

	transcript, err := e.stt.Transcribe(ctx, audio, audioFilename(audioURL))
	if err != nil {
		return nil, err
	}

	return &types.TranscriptResult{
		Title:      title,
		Transcript: transcript,
		SourceKind: types.SourceAudioPodcast,
	}, nil
}

func isDirectAudioURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(path.Ext(parsed.Path)) {
	case ".mp3", ".m4a", ".wav", ".ogg", ".aac", ".flac", ".m4b":
		return true
	}
	return false
}

func titleFromAudioURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "Audio File"
	}
	base := path.Base(parsed.Path)
	if base == "" || base == "." || base == "/" {
		return "Audio File"
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// audioFilename gives the speech-to-text API a filename whose extension
// matches the downloaded audio.
func audioFilename(audioURL string) string {
	lower := strings.ToLower(audioURL)
	for _, ext := range []string{".m4a", ".wav", ".ogg", ".aac", ".flac", ".m4b"} {
		if strings.Contains(lower, ext) {
			return "audio" + ext
		}
	}
	return "audio.mp3"
}

// --- episode resolution ---

var podcastIDRE = regexp.MustCompile(`^id(\d+)$`)

// parseAppleURL pulls the podcast ID, episode ID, and episode slug out of an
// Apple Podcasts episode URL, e.g.
// https://podcasts.apple.com/us/podcast/some-episode/id12345?i=10009876
func parseAppleURL(episodeURL string) (podcastID, episodeID, slug string) {
	parsed, err := url.Parse(episodeURL)
	if err != nil {
		return "", "", ""
	}

	parts := strings.Split(parsed.Path, "/")
	for i, part := range parts {
		if m := podcastIDRE.FindStringSubmatch(part); len(m) > 1 {
			podcastID = m[1]
			continue
		}
		if part == "podcast" && i+1 < len(parts) {
			slug = strings.ToLower(parts[i+1])
		}
	}

	episodeID = parsed.Query().Get("i")
	return podcastID, episodeID, slug
}

// resolve turns an Apple Podcasts episode URL into a title and a direct
// audio URL. The RSS path is tried first; the episode page scrape is the
// fallback.
func (e *PodcastExtractor) resolve(ctx context.Context, episodeURL string) (title, audioURL string, err error) {
	title, audioURL, rssErr := e.resolveViaFeed(ctx, episodeURL)
	if rssErr == nil {
		return title, audioURL, nil
	}

	title, audioURL, scrapeErr := e.scrapeEpisodePage(ctx, episodeURL)
	if scrapeErr == nil {
		return title, audioURL, nil
	}

	return "", "", fmt.Errorf("%w: %s (feed: %v, page: %v)", types.ErrResolutionFailed, episodeURL, rssErr, scrapeErr)
}

type lookupResponse struct {
	Results []struct {
		FeedURL        string `json:"feedUrl"`
		CollectionName string `json:"collectionName"`
	} `json:"results"`
}

func (e *PodcastExtractor) resolveViaFeed(ctx context.Context, episodeURL string) (title, audioURL string, err error) {
	podcastID, episodeID, slug := parseAppleURL(episodeURL)
	if podcastID == "" {
		return "", "", fmt.Errorf("no podcast ID in URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s?id=%s&entity=podcast", e.lookupURL, podcastID), nil)
	if err != nil {
		return "", "", err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("itunes lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("itunes lookup: HTTP %d", resp.StatusCode)
	}

	var lookup lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		return "", "", fmt.Errorf("decode lookup response: %w", err)
	}
	if len(lookup.Results) == 0 {
		return "", "", fmt.Errorf("podcast %s not found", podcastID)
	}
	feedURL := lookup.Results[0].FeedURL
	if feedURL == "" {
		return "", "", fmt.Errorf("podcast %s has no feed URL", podcastID)
	}

	feed, err := e.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return "", "", fmt.Errorf("parse feed: %w", err)
	}

	return matchEpisode(feed, episodeID, slug)
}

var slugRE = regexp.MustCompile(`[^a-z0-9]+`)

// matchEpisode finds the feed item for the requested episode: by episode ID
// in the guid first, then by title slug, then the newest item with an
// enclosure as a last resort.
func matchEpisode(feed *gofeed.Feed, episodeID, slug string) (title, audioURL string, err error) {
	var fallbackTitle, fallbackURL string

	for _, item := range feed.Items {
		if item == nil || len(item.Enclosures) == 0 {
			continue
		}
		enclosureURL := item.Enclosures[0].URL
		if enclosureURL == "" {
			continue
		}

		if episodeID != "" && strings.Contains(item.GUID, episodeID) {
			return item.Title, enclosureURL, nil
		}

		if slug != "" {
			titleSlug := strings.Trim(slugRE.ReplaceAllString(strings.ToLower(item.Title), "-"), "-")
			if titleSlug != "" && (strings.Contains(slug, titleSlug) || strings.Contains(titleSlug, slug)) {
				return item.Title, enclosureURL, nil
			}
		}

		if fallbackURL == "" {
			fallbackTitle, fallbackURL = item.Title, enclosureURL
		}
	}

	if fallbackURL != "" {
		return fallbackTitle, fallbackURL, nil
	}
	return "", "", fmt.Errorf("no episode with enclosure in feed")
}

// scrapeEpisodePage pulls audio and title meta tags off the episode page.
// Fallback for feeds the lookup API cannot reach.
func (e *PodcastExtractor) scrapeEpisodePage(ctx context.Context, episodeURL string) (title, audioURL string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, episodeURL, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch episode page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("fetch episode page: HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return "", "", fmt.Errorf("parse episode page: %w", err)
	}

	for _, selector := range []string{
		`meta[property="og:audio"]`,
		`meta[name="twitter:player:stream"]`,
	} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && content != "" {
			audioURL = content
			break
		}
	}
	if audioURL == "" {
		return "", "", fmt.Errorf("no audio meta tag on episode page")
	}

	if content, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok && content != "" {
		title = content
	} else {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = "Podcast Episode"
	}

	return title, audioURL, nil
}

// --- download ---

// download streams the audio file into memory, aborting as soon as the byte
// count crosses the ceiling rather than after the download completes.
func (e *PodcastExtractor) download(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download audio: HTTP %d", resp.StatusCode)
	}

	if resp.ContentLength > e.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", types.ErrSizeExceeded, resp.ContentLength, e.maxBytes)
	}

	// Read one byte past the ceiling so oversized files without a
	// Content-Length header are still caught mid-stream.
	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}
	if int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", types.ErrSizeExceeded, e.maxBytes)
	}

	return data, nil
}
