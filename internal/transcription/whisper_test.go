package transcription

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/content-transcriber/internal/types"
)

func newTestClient(serverURL string) *WhisperClient {
	c := NewWhisperClient("test-key")
	c.baseURL = serverURL
	return c
}

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(32<<20))
		require.Equal(t, "whisper-1", r.FormValue("model"))
		require.Equal(t, "text", r.FormValue("response_format"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "audio.mp3", header.Filename)

		fmt.Fprint(w, "hello from whisper\n")
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).Transcribe(context.Background(), []byte("audio bytes"), "audio.mp3")
	require.NoError(t, err)
	require.Equal(t, "hello from whisper", got)
}

func TestTranscribeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Transcribe(context.Background(), []byte("audio"), "audio.mp3")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.Contains(t, apiErr.Message, "rate limited")
}

func TestTranscribeSizeCeiling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("API must not be called for oversized audio")
	}))
	defer server.Close()

	oversized := make([]byte, MaxAudioBytes+1)
	_, err := newTestClient(server.URL).Transcribe(context.Background(), oversized, "audio.mp3")
	require.ErrorIs(t, err, types.ErrSizeExceeded)
}
