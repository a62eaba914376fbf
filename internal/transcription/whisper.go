package transcription

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/codebuildervaibhav/content-transcriber/internal/types"
)

// MaxAudioBytes is the Whisper API input ceiling. Files above this are
// rejected before upload; chunked transcription of longer audio is not
// implemented.
const MaxAudioBytes = 25 * 1024 * 1024

const defaultBaseURL = "https://api.openai.com/v1"

// APIError represents a failed speech-to-text API call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transcription API error (status %d): %s", e.StatusCode, e.Message)
}

// WhisperClient submits audio to the OpenAI audio transcription API.
type WhisperClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewWhisperClient creates a Whisper API client.
func NewWhisperClient(apiKey string) *WhisperClient {
	return &WhisperClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			// Transcription of a full episode can take a while.
			Timeout: 5 * time.Minute,
		},
	}
}

// Transcribe uploads audio bytes and returns the plain-text transcript.
// No additional parameters are sent; the API picks the language.
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) > MaxAudioBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", types.ErrSizeExceeded, len(audio), MaxAudioBytes)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if err := writer.WriteField("model", "whisper-1"); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if err := writer.WriteField("response_format", "text"); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &APIError{StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: errSnippet(respBody)}
	}

	return strings.TrimSpace(string(respBody)), nil
}

// errSnippet keeps API error bodies short enough for a status log field.
func errSnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 512 {
		s = s[:512]
	}
	if s == "" {
		s = "empty response body"
	}
	return s
}
