package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/content-transcriber/internal/types"
)

type transcriberStub struct {
	result *types.TranscriptResult
	err    error
	panics bool
}

func (s *transcriberStub) Process(ctx context.Context, url string) (*types.TranscriptResult, error) {
	if s.panics {
		panic("extractor blew up")
	}
	return s.result, s.err
}

type statusWrite struct {
	recordID string
	status   string
	errorLog string
}

type saveWrite struct {
	recordID string
	result   *types.TranscriptResult
}

// storeRecorder records writes and signals on done after a terminal write
// (Completed save or Error status).
type storeRecorder struct {
	mu       sync.Mutex
	statuses []statusWrite
	saves    []saveWrite
	done     chan struct{}

	statusErr error
	saveErr   error
}

func newStoreRecorder() *storeRecorder {
	return &storeRecorder{done: make(chan struct{}, 4)}
}

func (s *storeRecorder) SetStatus(ctx context.Context, recordID, status, errorLog string) error {
	s.mu.Lock()
	s.statuses = append(s.statuses, statusWrite{recordID, status, errorLog})
	s.mu.Unlock()
	if status == types.StatusError {
		s.done <- struct{}{}
	}
	return s.statusErr
}

func (s *storeRecorder) SaveTranscript(ctx context.Context, recordID string, result *types.TranscriptResult) error {
	s.mu.Lock()
	s.saves = append(s.saves, saveWrite{recordID, result})
	s.mu.Unlock()
	s.done <- struct{}{}
	return s.saveErr
}

func (s *storeRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a terminal store write")
	}
}

func startPool(transcriber Transcriber, store RecordStore) *WorkerPool {
	pool := NewWorkerPool(1, transcriber, store, zerolog.Nop())
	pool.Start()
	return pool
}

func TestProcessJobSuccess(t *testing.T) {
	result := &types.TranscriptResult{Title: "t", Transcript: "tx", SourceKind: types.SourceVideo}
	store := newStoreRecorder()
	pool := startPool(&transcriberStub{result: result}, store)

	pool.EnqueueJob(NewJob("rec-1", "https://youtu.be/abc"))
	store.wait(t)

	store.mu.Lock()
	defer store.mu.Unlock()
	// Processing first, then the transcript save; no Error write.
	require.Equal(t, []statusWrite{{"rec-1", types.StatusProcessing, ""}}, store.statuses)
	require.Equal(t, []saveWrite{{"rec-1", result}}, store.saves)
}

func TestProcessJobFailure(t *testing.T) {
	store := newStoreRecorder()
	pool := startPool(&transcriberStub{err: errors.New("no_captions: video abc")}, store)

	pool.EnqueueJob(NewJob("rec-2", "https://youtu.be/abc"))
	store.wait(t)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Empty(t, store.saves)
	require.Len(t, store.statuses, 2)
	require.Equal(t, statusWrite{"rec-2", types.StatusProcessing, ""}, store.statuses[0])
	require.Equal(t, types.StatusError, store.statuses[1].status)
	// The failure message lands in the record's error log.
	require.Contains(t, store.statuses[1].errorLog, "no_captions")
}

func TestProcessJobPanicWritesError(t *testing.T) {
	store := newStoreRecorder()
	pool := startPool(&transcriberStub{panics: true}, store)

	pool.EnqueueJob(NewJob("rec-3", "https://youtu.be/abc"))
	store.wait(t)

	store.mu.Lock()
	defer store.mu.Unlock()
	last := store.statuses[len(store.statuses)-1]
	require.Equal(t, types.StatusError, last.status)
	require.Contains(t, last.errorLog, "panic")
}

func TestProcessJobSaveFailureWritesError(t *testing.T) {
	result := &types.TranscriptResult{Title: "t", Transcript: "tx", SourceKind: types.SourceVideo}
	store := newStoreRecorder()
	store.saveErr = errors.New("document store write failed (status 502): upstream")
	pool := startPool(&transcriberStub{result: result}, store)

	pool.EnqueueJob(NewJob("rec-4", "https://youtu.be/abc"))
	// Wait for the save attempt, then the follow-up Error status.
	store.wait(t)
	store.wait(t)

	store.mu.Lock()
	defer store.mu.Unlock()
	last := store.statuses[len(store.statuses)-1]
	require.Equal(t, types.StatusError, last.status)
	require.Contains(t, last.errorLog, "document store write failed")
}

func TestProcessingWriteFailureDoesNotStopJob(t *testing.T) {
	result := &types.TranscriptResult{Title: "t", Transcript: "tx", SourceKind: types.SourceVideo}
	store := newStoreRecorder()
	store.statusErr = errors.New("record not found")
	pool := startPool(&transcriberStub{result: result}, store)

	pool.EnqueueJob(NewJob("rec-5", "https://youtu.be/abc"))
	store.wait(t)

	store.mu.Lock()
	defer store.mu.Unlock()
	// Extraction ran and the save happened despite the failed Processing write.
	require.Len(t, store.saves, 1)
}
