package queue

import (
	"time"

	"github.com/google/uuid"
)

// Job is one webhook delivery's unit of background work: transcribe the URL,
// then write the outcome to the record.
type Job struct {
	ID        string
	RecordID  string
	URL       string
	CreatedAt time.Time
}

// NewJob creates a job with a fresh ID.
func NewJob(recordID, url string) *Job {
	return &Job{
		ID:        uuid.New().String(),
		RecordID:  recordID,
		URL:       url,
		CreatedAt: time.Now(),
	}
}
