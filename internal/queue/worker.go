package queue

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/content-transcriber/internal/types"
)

// Transcriber produces a transcript for a URL.
type Transcriber interface {
	Process(ctx context.Context, url string) (*types.TranscriptResult, error)
}

// RecordStore writes job outcomes to the external document store.
type RecordStore interface {
	SetStatus(ctx context.Context, recordID, status, errorLog string) error
	SaveTranscript(ctx context.Context, recordID string, result *types.TranscriptResult) error
}

// WorkerPool runs webhook jobs in the background: Processing status write,
// transcription, then the terminal Completed/Error write. The webhook
// response never waits on any of this; completion is observed only through
// the record's status.
type WorkerPool struct {
	jobQueue    chan *Job
	workerCount int
	transcriber Transcriber
	store       RecordStore
	log         zerolog.Logger
}

// NewWorkerPool creates a worker pool.
func NewWorkerPool(workerCount int, transcriber Transcriber, store RecordStore, log zerolog.Logger) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &WorkerPool{
		jobQueue:    make(chan *Job, 100),
		workerCount: workerCount,
		transcriber: transcriber,
		store:       store,
		log:         log,
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	wp.log.Info().Int("workers", wp.workerCount).Msg("starting worker pool")
	for i := 0; i < wp.workerCount; i++ {
		go wp.worker(i)
	}
}

// EnqueueJob adds a job to the queue.
func (wp *WorkerPool) EnqueueJob(job *Job) {
	wp.jobQueue <- job
	wp.log.Info().
		Str("job_id", job.ID).
		Str("record_id", job.RecordID).
		Str("url", job.URL).
		Msg("job enqueued")
}

func (wp *WorkerPool) worker(id int) {
	for job := range wp.jobQueue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					wp.log.Error().
						Int("worker", id).
						Str("job_id", job.ID).
						Str("stack", string(debug.Stack())).
						Msgf("panic processing job: %v", r)
					wp.writeFailure(job, fmt.Sprintf("internal: panic: %v", r))
				}
			}()
			wp.processJob(id, job)
		}()
	}
}

// processJob runs one transcribe-then-update sequence. Failures land in the
// record's error log; a failed store write is logged and dropped.
func (wp *WorkerPool) processJob(workerID int, job *Job) {
	ctx := context.Background()

	log := wp.log.With().
		Int("worker", workerID).
		Str("job_id", job.ID).
		Str("record_id", job.RecordID).
		Logger()
	log.Info().Str("url", job.URL).Msg("processing job")

	if err := wp.store.SetStatus(ctx, job.RecordID, types.StatusProcessing, ""); err != nil {
		// The record may be stale or gone; extraction still proceeds and
		// the terminal write gets its own chance.
		log.Warn().Err(err).Msg("failed to mark record processing")
	}

	result, err := wp.transcriber.Process(ctx, job.URL)
	if err != nil {
		log.Error().Err(err).Msg("transcription failed")
		wp.writeFailure(job, err.Error())
		return
	}

	if err := wp.store.SaveTranscript(ctx, job.RecordID, result); err != nil {
		log.Error().Err(err).Msg("failed to save transcript")
		wp.writeFailure(job, "document store write failed: "+err.Error())
		return
	}

	log.Info().
		Str("source", string(result.SourceKind)).
		Int("transcript_chars", len(result.Transcript)).
		Msg("job completed")
}

func (wp *WorkerPool) writeFailure(job *Job, errorLog string) {
	if err := wp.store.SetStatus(context.Background(), job.RecordID, types.StatusError, errorLog); err != nil {
		wp.log.Error().
			Str("job_id", job.ID).
			Str("record_id", job.RecordID).
			Err(err).
			Msg("failed to write error status")
	}
}
